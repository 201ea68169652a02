package claudegemini

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// GeminiToClaudeStreamState accumulates state across newline-delimited
// Gemini stream chunks on their way to Claude SSE frames (§4.4.6).
type GeminiToClaudeStreamState struct {
	MessageID         string
	MessageStarted    bool
	ContentBlockStopped bool
	MessageStopSent   bool
}

func claudeSSEEvent(event, payload string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload)
}

// GeminiStreamChunkToClaude consumes one complete newline-delimited JSON
// object from the upstream Gemini stream and returns the Claude SSE frames
// it produces.
func GeminiStreamChunkToClaude(state *GeminiToClaudeStreamState, rawLine []byte) []string {
	line := strings.TrimSpace(string(rawLine))
	line = strings.TrimPrefix(line, "data:")
	line = strings.TrimSpace(line)
	if line == "" || line == "[" || line == "]" || line == "," {
		return nil
	}
	line = strings.TrimSuffix(strings.TrimPrefix(line, ","), ",")

	root := gjson.ParseBytes([]byte(line))
	var out []string

	if !state.MessageStarted {
		state.MessageID = "msg_gemini_" + uuid.NewString()
		state.MessageStarted = true
		start := `{"type":"message_start","message":{"type":"message","role":"assistant","content":[],"usage":{"input_tokens":0,"output_tokens":0}}}`
		start, _ = sjson.Set(start, "message.id", state.MessageID)
		out = append(out, claudeSSEEvent("message_start", start))
		out = append(out, claudeSSEEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`))
	}

	candidate := root.Get("candidates.0")
	var text string
	candidate.Get("content.parts").ForEach(func(_, p gjson.Result) bool {
		text += p.Get("text").String()
		return true
	})
	if text != "" {
		d := `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":""}}`
		d, _ = sjson.Set(d, "delta.text", text)
		out = append(out, claudeSSEEvent("content_block_delta", d))
	}

	if finish := candidate.Get("finishReason"); finish.Exists() && finish.String() != "" {
		mapped, ok := geminiFinishToClaude[finish.String()]
		if !ok {
			mapped = "end_turn"
		}
		out = append(out, finishGeminiToClaude(state, mapped, root)...)
	}

	return out
}

func finishGeminiToClaude(state *GeminiToClaudeStreamState, stopReason string, root gjson.Result) []string {
	var out []string
	if state.MessageStopSent {
		return out
	}
	if !state.ContentBlockStopped {
		out = append(out, claudeSSEEvent("content_block_stop", `{"type":"content_block_stop","index":0}`))
		state.ContentBlockStopped = true
	}
	delta := `{"type":"message_delta","delta":{"stop_reason":""},"usage":{"output_tokens":0}}`
	delta, _ = sjson.Set(delta, "delta.stop_reason", stopReason)
	if usage := root.Get("usageMetadata"); usage.Exists() {
		delta, _ = sjson.Set(delta, "usage.output_tokens", usage.Get("candidatesTokenCount").Int())
	}
	out = append(out, claudeSSEEvent("message_delta", delta))
	out = append(out, claudeSSEEvent("message_stop", `{"type":"message_stop"}`))
	state.MessageStopSent = true
	return out
}

// GeminiStreamError builds a Claude-shaped in-band SSE error frame for a
// Gemini-to-Claude stream and marks the stream finished. The router's own
// stream loop does not call it; it writes its error frames through its
// own helper.
func GeminiStreamError(state *GeminiToClaudeStreamState, message string) string {
	payload := `{"type":"error","error":{"type":"api_error","message":""}}`
	payload, _ = sjson.Set(payload, "error.message", message)
	state.MessageStopSent = true
	return claudeSSEEvent("error", payload)
}
