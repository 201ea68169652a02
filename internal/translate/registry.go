// Package translate is the home of C5: pure request/response converters
// between Claude, OpenAI and Gemini wire formats, plus the streaming
// transducers that maintain per-stream state. The registry below mirrors
// the teacher's internal/translator/translator package: converters
// self-register under an (from, to) key in an init(), and callers look the
// pair up instead of switching on format by hand.
package translate

import (
	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// RequestFunc converts a raw request body from one format into another.
// modelName is the already-mapped target model name to embed.
type RequestFunc func(modelName string, rawJSON []byte, stream bool) []byte

// NonStreamResponseFunc converts one complete upstream response body.
type NonStreamResponseFunc func(rawJSON []byte) []byte

// StreamState is the opaque per-stream accumulator a streaming converter
// keeps between calls; each converter package defines its own concrete
// type behind this interface.
type StreamState interface{}

// StreamChunkFunc converts one upstream stream frame into zero or more
// client-format SSE frames, mutating state across calls. It never returns
// an error value and emits no error frame itself: a failed upstream read
// is turned into an in-band error frame by the router's stream loop.
type StreamChunkFunc func(state StreamState, rawFrame []byte) (out []string, newState StreamState)

// NewStreamStateFunc constructs the zero-value accumulator for a streaming
// conversion direction.
type NewStreamStateFunc func() StreamState

// Converter bundles everything registered for one (from, to) pair.
type Converter struct {
	Request        RequestFunc
	NonStream      NonStreamResponseFunc
	NewStreamState NewStreamStateFunc
	StreamChunk    StreamChunkFunc
}

var registry = map[constant.Format]map[constant.Format]Converter{}

// Register installs a converter for the (from, to) direction. Called from
// each converter package's init(), exactly like the teacher's
// translator.Register.
func Register(from, to constant.Format, c Converter) {
	if registry[from] == nil {
		registry[from] = make(map[constant.Format]Converter)
	}
	registry[from][to] = c
}

// Lookup returns the registered converter for (from, to), if any.
func Lookup(from, to constant.Format) (Converter, bool) {
	if inner, ok := registry[from]; ok {
		c, ok := inner[to]
		return c, ok
	}
	return Converter{}, false
}

// NeedConvert reports whether a registered converter exists for the pair.
func NeedConvert(from, to constant.Format) bool {
	_, ok := Lookup(from, to)
	return ok
}

// Request converts rawJSON from `from` format to `to` format. Callers that
// found direction == routing.None should not call this at all; Request
// passes the body through unchanged if no converter is registered.
func Request(from, to constant.Format, modelName string, rawJSON []byte, stream bool) []byte {
	if c, ok := Lookup(from, to); ok && c.Request != nil {
		return c.Request(modelName, rawJSON, stream)
	}
	return rawJSON
}

// ResponseNonStream converts one complete response body.
func ResponseNonStream(from, to constant.Format, rawJSON []byte) []byte {
	if c, ok := Lookup(from, to); ok && c.NonStream != nil {
		return c.NonStream(rawJSON)
	}
	return rawJSON
}
