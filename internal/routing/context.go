// Package routing builds the per-request RoutingContext from the protocol
// and client detectors plus the selected upstream's provider kind,
// grounded on original_source's proxy/smart_router.rs: client format,
// backend format, then the six-way conversion-direction decision.
package routing

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/llmproxy/claude-proxy-router/internal/clientdetect"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/modelmap"
	"github.com/llmproxy/claude-proxy-router/internal/protocol"
)

// Direction is the ordered pair of (inbound, outbound) formats governing
// which converter the core invokes, or None when no conversion is needed.
type Direction string

const (
	None              Direction = "none"
	ClaudeToOpenAI    Direction = "claude_to_openai"
	OpenAIToClaude    Direction = "openai_to_claude"
	ClaudeToGemini    Direction = "claude_to_gemini"
	GeminiToClaude    Direction = "gemini_to_claude"
	OpenAIToGemini    Direction = "openai_to_gemini"
	GeminiToOpenAI    Direction = "gemini_to_openai"
)

// reverse returns the inverse of a Direction, per the RoutingContext
// invariant that response_conversion is strictly the reverse of
// request_conversion.
func (d Direction) reverse() Direction {
	switch d {
	case ClaudeToOpenAI:
		return OpenAIToClaude
	case OpenAIToClaude:
		return ClaudeToOpenAI
	case ClaudeToGemini:
		return GeminiToClaude
	case GeminiToClaude:
		return ClaudeToGemini
	case OpenAIToGemini:
		return GeminiToOpenAI
	case GeminiToOpenAI:
		return OpenAIToGemini
	default:
		return None
	}
}

func directionFor(from, to constant.Format) Direction {
	if from == to {
		return None
	}
	switch {
	case from == constant.Claude && to == constant.OpenAI:
		return ClaudeToOpenAI
	case from == constant.OpenAI && to == constant.Claude:
		return OpenAIToClaude
	case from == constant.Claude && to == constant.Gemini:
		return ClaudeToGemini
	case from == constant.Gemini && to == constant.Claude:
		return GeminiToClaude
	case from == constant.OpenAI && to == constant.Gemini:
		return OpenAIToGemini
	case from == constant.Gemini && to == constant.OpenAI:
		return GeminiToOpenAI
	default:
		return None
	}
}

// Context is the per-request, ephemeral routing decision (§3).
type Context struct {
	ClientType         clientdetect.Type
	ClientFormat       constant.Format
	BackendFormat      constant.Format
	RequestConversion  Direction
	ResponseConversion Direction
	SourceModel        string
	TargetModel        string
}

// NeedsRequestConversion reports whether the inbound body must go through a
// converter before being forwarded.
func (c Context) NeedsRequestConversion() bool { return c.RequestConversion != None }

// NeedsResponseConversion reports whether the upstream body must go through
// a converter before being returned to the client.
func (c Context) NeedsResponseConversion() bool { return c.ResponseConversion != None }

// Build derives a Context from inbound headers+path and the active
// config's provider kind (§4.3).
func Build(headers http.Header, path string, backend constant.Format) Context {
	detected := clientdetect.Detect(headers, path)
	clientFormat := detected.ClientType.ExpectedFormat()
	if clientFormat == constant.Unknown {
		clientFormat = protocol.EffectiveInbound(path)
	}

	req := directionFor(clientFormat, backend)
	resp := req.reverse()

	logrus.Debugf("routing: client=%s client_format=%s backend=%s request_conv=%s response_conv=%s",
		detected.ClientType, clientFormat, backend, req, resp)

	return Context{
		ClientType:         detected.ClientType,
		ClientFormat:       clientFormat,
		BackendFormat:      backend,
		RequestConversion:  req,
		ResponseConversion: resp,
	}
}

// WithModel resolves source->target model names across the conversion
// direction, passing the source through unchanged when no mapping exists.
func (c Context) WithModel(sourceModel string) Context {
	c.SourceModel = sourceModel
	switch c.RequestConversion {
	case ClaudeToOpenAI:
		c.TargetModel = modelmap.ToOpenAI(sourceModel)
	case OpenAIToClaude:
		c.TargetModel = modelmap.ToClaude(sourceModel)
	default:
		c.TargetModel = sourceModel
	}
	if c.TargetModel == "" {
		c.TargetModel = sourceModel
	}
	return c
}
