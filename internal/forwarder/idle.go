package forwarder

import (
	"io"
	"time"
)

// idleTimeoutReader enforces §5's per-chunk stream activity timer
// (supplemented from original_source's router.rs "last_activity" idle
// watchdog, §9 "Supplemented features"): every Read resets a timer, and if
// no Read completes before idle elapses the underlying reader is closed,
// which unblocks any in-flight Read with an error; the router's stream
// loop then writes that to the client as an in-band error frame tagged
// ReasonUnknown.
type idleTimeoutReader struct {
	upstream io.ReadCloser
	idle     time.Duration
	timer    *time.Timer
}

func newIdleTimeoutReader(upstream io.ReadCloser, idle time.Duration) *idleTimeoutReader {
	r := &idleTimeoutReader{upstream: upstream, idle: idle}
	if idle > 0 {
		r.timer = time.AfterFunc(idle, func() {
			_ = upstream.Close()
		})
	}
	return r
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.upstream.Read(p)
	if r.timer != nil {
		r.timer.Reset(r.idle)
	}
	return n, err
}

func (r *idleTimeoutReader) Close() error {
	if r.timer != nil {
		r.timer.Stop()
	}
	return r.upstream.Close()
}
