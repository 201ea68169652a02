package claudeopenai

import (
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/translate"
)

func init() {
	translate.Register(constant.OpenAI, constant.Claude, translate.Converter{
		Request:   OpenAIToClaudeRequest,
		NonStream: OpenAIToClaudeResponse,
		NewStreamState: func() translate.StreamState {
			return &OpenAIToClaudeStreamState{}
		},
		StreamChunk: func(state translate.StreamState, rawFrame []byte) ([]string, translate.StreamState) {
			s := state.(*OpenAIToClaudeStreamState)
			return OpenAIStreamChunkToClaude(s, rawFrame), s
		},
	})

	translate.Register(constant.Claude, constant.OpenAI, translate.Converter{
		Request:   ClaudeToOpenAIRequest,
		NonStream: ClaudeToOpenAIResponse,
		NewStreamState: func() translate.StreamState {
			return &ClaudeToOpenAIStreamState{}
		},
		StreamChunk: func(state translate.StreamState, rawFrame []byte) ([]string, translate.StreamState) {
			s := state.(*ClaudeToOpenAIStreamState)
			return ClaudeStreamEventToOpenAI(s, rawFrame), s
		},
	})
}
