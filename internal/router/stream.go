package router

import (
	"bufio"
	"bytes"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// splitFuncFor returns the bufio.SplitFunc that slices a raw upstream
// stream body into the frame units each format's stream converter
// expects: blank-line-delimited SSE blocks for Claude/OpenAI, bare
// newline-delimited JSON objects for Gemini (§4.10 step 7, §4.4.6).
func splitFuncFor(format constant.Format) bufio.SplitFunc {
	switch format {
	case constant.Gemini:
		return bufio.ScanLines
	default:
		return scanSSEBlocks
	}
}

// scanSSEBlocks splits on a blank line ("\n\n"), the frame boundary SSE
// producers use between events.
func scanSSEBlocks(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if idx := bytes.Index(data, []byte("\n\n")); idx >= 0 {
		return idx + 2, data[:idx], nil
	}
	if atEOF {
		return len(data), bytes.TrimRight(data, "\n"), nil
	}
	return 0, nil, nil
}
