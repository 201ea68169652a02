package claudegemini

import (
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var geminiFinishToClaude = map[string]string{
	"STOP":       "end_turn",
	"MAX_TOKENS": "max_tokens",
	"SAFETY":     "safety",
	"RECITATION": "safety",
	"OTHER":      "stop_sequence",
}

var claudeStopToGeminiFinish = map[string]string{
	"end_turn":      "STOP",
	"max_tokens":    "MAX_TOKENS",
	"stop_sequence": "OTHER",
	"safety":        "SAFETY",
}

// GeminiToClaudeResponse converts one complete Gemini generateContent
// response into a Claude Messages response (§4.4.5).
func GeminiToClaudeResponse(rawJSON []byte) []byte {
	root := gjson.ParseBytes(rawJSON)
	candidate := root.Get("candidates.0")

	var text string
	candidate.Get("content.parts").ForEach(func(_, p gjson.Result) bool {
		text += p.Get("text").String()
		return true
	})

	finish := candidate.Get("finishReason").String()
	mapped, ok := geminiFinishToClaude[finish]
	if !ok {
		mapped = "end_turn"
	}

	out := `{"type":"message","role":"assistant","content":[{"type":"text","text":""}]}`
	out, _ = sjson.Set(out, "id", "msg_gemini_"+uuid.NewString())
	out, _ = sjson.Set(out, "content.0.text", text)
	out, _ = sjson.Set(out, "stop_reason", mapped)

	if usage := root.Get("usageMetadata"); usage.Exists() {
		out, _ = sjson.Set(out, "usage.input_tokens", usage.Get("promptTokenCount").Int())
		out, _ = sjson.Set(out, "usage.output_tokens", usage.Get("candidatesTokenCount").Int())
	}

	return []byte(out)
}

// ClaudeToGeminiResponse converts one complete Claude Messages response
// into a Gemini generateContent response, for the reverse pairing (a
// native Gemini client routed to a Claude backend).
func ClaudeToGeminiResponse(rawJSON []byte) []byte {
	root := gjson.ParseBytes(rawJSON)
	text := blockText(root.Get("content"))

	finish, ok := claudeStopToGeminiFinish[root.Get("stop_reason").String()]
	if !ok {
		finish = "STOP"
	}

	out := `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`
	out, _ = sjson.Set(out, "candidates.0.content.parts.0.text", text)
	out, _ = sjson.Set(out, "candidates.0.finishReason", finish)
	out, _ = sjson.Set(out, "usageMetadata.promptTokenCount", root.Get("usage.input_tokens").Int())
	out, _ = sjson.Set(out, "usageMetadata.candidatesTokenCount", root.Get("usage.output_tokens").Int())

	return []byte(out)
}
