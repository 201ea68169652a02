package forwarder

import "io"

// teeReadCloser forwards every Read to the caller unchanged while
// mirroring up to maxCapturedBytes into an in-memory buffer and counting
// frames (newline-delimited) and total bytes seen; on Close it pushes the
// accumulated StreamCompletionData to completion (§4.10 step 7, "streaming
// same format both sides").
type teeReadCloser struct {
	upstream   io.ReadCloser
	completion chan<- StreamCompletionData

	captured   []byte
	totalSize  int
	chunkCount int
	closed     bool
}

func newTeeReadCloser(upstream io.ReadCloser, completion chan<- StreamCompletionData) *teeReadCloser {
	return &teeReadCloser{
		upstream:   upstream,
		completion: completion,
		captured:   make([]byte, 0, maxCapturedBytes),
	}
}

func (t *teeReadCloser) Read(p []byte) (int, error) {
	n, err := t.upstream.Read(p)
	if n > 0 {
		t.totalSize += n
		for _, b := range p[:n] {
			if b == '\n' {
				t.chunkCount++
			}
		}
		if room := maxCapturedBytes - len(t.captured); room > 0 {
			take := n
			if take > room {
				take = room
			}
			t.captured = append(t.captured, p[:take]...)
		}
	}
	return n, err
}

func (t *teeReadCloser) Close() error {
	err := t.upstream.Close()
	if !t.closed {
		t.closed = true
		t.completion <- StreamCompletionData{
			ResponseBody:     t.captured,
			ResponseBodySize: t.totalSize,
			ChunkCount:       t.chunkCount,
		}
		close(t.completion)
	}
	return err
}
