package claudeopenai

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var openAIStopReasonToClaude = map[string]string{
	"stop":   "end_turn",
	"length": "max_tokens",
}

var claudeStopReasonToOpenAI = map[string]string{
	"end_turn":      "stop",
	"max_tokens":    "length",
	"stop_sequence": "stop",
}

// OpenAIToClaudeResponse converts one complete OpenAI chat.completion
// response into a Claude Messages response (§4.4.5).
func OpenAIToClaudeResponse(rawJSON []byte) []byte {
	root := gjson.ParseBytes(rawJSON)

	id := root.Get("id").String()
	msgID := strings.Replace(id, "chatcmpl-", "msg_", 1)
	if msgID == "" {
		msgID = "msg_" + uuid.NewString()
	}

	text := root.Get("choices.0.message.content").String()
	stopReason := root.Get("choices.0.finish_reason").String()
	mapped, ok := openAIStopReasonToClaude[stopReason]
	if !ok {
		mapped = stopReason
	}

	out := `{"type":"message","role":"assistant","content":[]}`
	out, _ = sjson.Set(out, "id", msgID)
	out, _ = sjson.Set(out, "model", root.Get("model").String())
	out, _ = sjson.Set(out, "stop_reason", mapped)
	out, _ = sjson.SetRaw(out, "content.-1", `{"type":"text","text":""}`)
	out, _ = sjson.Set(out, "content.0.text", text)

	if usage := root.Get("usage"); usage.Exists() {
		out, _ = sjson.Set(out, "usage.input_tokens", usage.Get("prompt_tokens").Int())
		out, _ = sjson.Set(out, "usage.output_tokens", usage.Get("completion_tokens").Int())
	}

	return []byte(out)
}

// ClaudeToOpenAIResponse converts one complete Claude Messages response
// into an OpenAI chat.completion response (§4.4.5).
func ClaudeToOpenAIResponse(rawJSON []byte) []byte {
	root := gjson.ParseBytes(rawJSON)

	var textParts []string
	if content := root.Get("content"); content.IsArray() {
		content.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" {
				textParts = append(textParts, block.Get("text").String())
			}
			return true
		})
	}
	text := strings.Join(textParts, "")

	stopReason := root.Get("stop_reason").String()
	mapped, ok := claudeStopReasonToOpenAI[stopReason]
	if !ok {
		mapped = stopReason
	}

	out := `{"object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant"}}]}`
	out, _ = sjson.Set(out, "id", "chatcmpl-"+root.Get("id").String())
	out, _ = sjson.Set(out, "model", root.Get("model").String())
	out, _ = sjson.Set(out, "created", time.Now().Unix())
	out, _ = sjson.Set(out, "choices.0.message.content", text)
	out, _ = sjson.Set(out, "choices.0.finish_reason", mapped)

	inputTokens := root.Get("usage.input_tokens").Int()
	outputTokens := root.Get("usage.output_tokens").Int()
	out, _ = sjson.Set(out, "usage.prompt_tokens", inputTokens)
	out, _ = sjson.Set(out, "usage.completion_tokens", outputTokens)
	out, _ = sjson.Set(out, "usage.total_tokens", inputTokens+outputTokens)

	return []byte(out)
}
