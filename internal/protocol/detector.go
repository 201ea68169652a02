// Package protocol classifies an inbound request path into the wire format
// it belongs to. It is a pure function over strings, grounded on the
// first-match decision table in original_source's proxy/protocol_detector.rs,
// re-expressed in the teacher's path-prefix-matching idiom (see how
// internal/api/server.go groups routes by prefix).
package protocol

import (
	"strings"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// Detect classifies path into one of Claude, OpenAI, Gemini or Unknown.
// First match wins; callers that need "Unknown defaults to Claude" for
// backward compatibility apply that at the call site (§4.1).
func Detect(path string) constant.Format {
	switch {
	case strings.HasPrefix(path, "/v1/messages"):
		return constant.Claude
	case strings.HasPrefix(path, "/v1/chat/completions"):
		return constant.OpenAI
	case strings.HasPrefix(path, "/v1/completions") && !strings.Contains(path, "chat"):
		return constant.OpenAI
	case strings.HasPrefix(path, "/v1/models"):
		return constant.OpenAI
	case strings.Contains(path, ":generateContent") || strings.Contains(path, ":streamGenerateContent"):
		return constant.Gemini
	case strings.HasPrefix(path, "/v1beta/models"):
		return constant.Gemini
	default:
		return constant.Unknown
	}
}

// EffectiveInbound applies the "Unknown treated as Claude downstream for
// backward compatibility" rule from §4.1.
func EffectiveInbound(path string) constant.Format {
	f := Detect(path)
	if f == constant.Unknown {
		return constant.Claude
	}
	return f
}

// StripSessionPrefix removes a leading "/session/{id}" segment from path,
// returning the session id (empty if absent) and the remaining path that
// C2/C11 should operate on, per the "…/session/{session_id}/<any>" route
// in §6.
func StripSessionPrefix(path string) (sessionID string, rest string) {
	const prefix = "/session/"
	if !strings.HasPrefix(path, prefix) {
		return "", path
	}
	remainder := path[len(prefix):]
	idx := strings.IndexByte(remainder, '/')
	if idx < 0 {
		return remainder, "/"
	}
	return remainder[:idx], remainder[idx:]
}
