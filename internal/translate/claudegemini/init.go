package claudegemini

import (
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/translate"
)

func init() {
	translate.Register(constant.Claude, constant.Gemini, translate.Converter{
		Request:   ClaudeToGeminiRequest,
		NonStream: ClaudeToGeminiResponse,
	})

	translate.Register(constant.Gemini, constant.Claude, translate.Converter{
		Request:   GeminiToClaudeRequest,
		NonStream: GeminiToClaudeResponse,
		NewStreamState: func() translate.StreamState {
			return &GeminiToClaudeStreamState{}
		},
		StreamChunk: func(state translate.StreamState, rawFrame []byte) ([]string, translate.StreamState) {
			s := state.(*GeminiToClaudeStreamState)
			return GeminiStreamChunkToClaude(s, rawFrame), s
		},
	})
}
