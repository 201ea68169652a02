// Package clientdetect classifies the calling tool from its inbound
// headers (falling back to the request path), grounded on
// original_source's proxy/client_detector.rs: explicit header first, then
// a User-Agent dictionary, then auth-shape inference, then the path.
package clientdetect

import (
	"net/http"
	"strings"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/protocol"
)

// Type is the closed set of client kinds the proxy recognizes.
type Type string

const (
	ClaudeCode    Type = "claude_code"
	Codex         Type = "codex"
	Cursor        Type = "cursor"
	Continue      Type = "continue"
	Cline         Type = "cline"
	GenericOpenAI Type = "generic_openai"
	GenericClaude Type = "generic_claude"
	TypeUnknown   Type = "unknown"
)

// Confidence grades how sure the detector is of its classification.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Result is what the detector hands back to the routing-context builder.
type Result struct {
	ClientType Type
	UserAgent  string
	Confidence Confidence
	Method     string
}

// ExpectedFormat maps a client kind to the wire format it expects.
func (t Type) ExpectedFormat() constant.Format {
	switch t {
	case ClaudeCode, Cline, GenericClaude:
		return constant.Claude
	case Codex, Cursor, GenericOpenAI:
		return constant.OpenAI
	default:
		return constant.Unknown
	}
}

// userAgentDictionary maps a lowercase User-Agent substring to a client type.
// Order matters only in that the first substring match wins; entries are
// kept mutually exclusive in practice.
var userAgentDictionary = []struct {
	substr string
	typ    Type
}{
	{"claude-cli", ClaudeCode},
	{"claude-code", ClaudeCode},
	{"cline", Cline},
	{"codex", Codex},
	{"cursor", Cursor},
	{"continue", Continue},
	{"anthropic-sdk", GenericClaude},
	{"openai-python", GenericOpenAI},
	{"openai-node", GenericOpenAI},
}

// Detect classifies headers, using path only as a last-resort fallback.
func Detect(headers http.Header, path string) Result {
	if t, ok := fromExplicitHeader(headers); ok {
		return Result{ClientType: t, UserAgent: headers.Get("User-Agent"), Confidence: High, Method: "explicit_header"}
	}

	ua := headers.Get("User-Agent")
	if t, ok := fromUserAgent(ua); ok {
		return Result{ClientType: t, UserAgent: ua, Confidence: Medium, Method: "user_agent"}
	}

	if t, ok := fromAuthShape(headers); ok {
		return Result{ClientType: t, UserAgent: ua, Confidence: Medium, Method: "auth_shape"}
	}

	switch protocol.Detect(path) {
	case constant.Claude:
		return Result{ClientType: GenericClaude, UserAgent: ua, Confidence: Low, Method: "path"}
	case constant.OpenAI:
		return Result{ClientType: GenericOpenAI, UserAgent: ua, Confidence: Low, Method: "path"}
	default:
		return Result{ClientType: TypeUnknown, UserAgent: ua, Confidence: Low, Method: "path"}
	}
}

func fromExplicitHeader(headers http.Header) (Type, bool) {
	for _, key := range []string{"X-Client-Type", "X-Client-Name"} {
		v := strings.ToLower(headers.Get(key))
		if v == "" {
			continue
		}
		for _, entry := range userAgentDictionary {
			if strings.Contains(v, entry.substr) {
				return entry.typ, true
			}
		}
	}
	return "", false
}

func fromUserAgent(ua string) (Type, bool) {
	if ua == "" {
		return "", false
	}
	lower := strings.ToLower(ua)
	for _, entry := range userAgentDictionary {
		if strings.Contains(lower, entry.substr) {
			return entry.typ, true
		}
	}
	return "", false
}

func fromAuthShape(headers http.Header) (Type, bool) {
	if headers.Get("x-api-key") != "" {
		return GenericClaude, true
	}
	auth := headers.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		if headers.Get("openai-organization") != "" || headers.Get("openai-project") != "" {
			return GenericOpenAI, true
		}
		if headers.Get("anthropic-version") == "" {
			return GenericOpenAI, true
		}
	}
	return "", false
}
