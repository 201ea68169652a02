// Package claudeopenai implements the Claude<->OpenAI request/response/
// streaming converters (§4.4.2, §4.4.3, §4.4.5, §4.4.6). Like the teacher's
// internal/translator/openai/claude and internal/translator/claude/openai
// packages, every conversion reads and patches raw JSON with gjson/sjson
// rather than round-tripping through Go structs.
package claudeopenai

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// OpenAIToClaudeRequest converts an OpenAI Chat Completions request body
// into a Claude Messages request body (§4.4.2).
func OpenAIToClaudeRequest(modelName string, rawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(rawJSON)
	out := `{"model":"","messages":[]}`

	out, _ = sjson.Set(out, "model", modelName)
	out, _ = sjson.Set(out, "stream", stream)

	if v := root.Get("max_tokens"); v.Exists() {
		out, _ = sjson.Set(out, "max_tokens", v.Int())
	}
	if v := root.Get("temperature"); v.Exists() {
		out, _ = sjson.Set(out, "temperature", v.Float())
	}
	if v := root.Get("top_p"); v.Exists() {
		out, _ = sjson.Set(out, "top_p", v.Float())
	}
	// top_k has no OpenAI equivalent; explicitly left unset (§4.4.2).

	if stop := root.Get("stop"); stop.Exists() {
		if stop.IsArray() {
			var stops []string
			stop.ForEach(func(_, v gjson.Result) bool {
				stops = append(stops, v.String())
				return true
			})
			if len(stops) > 0 {
				out, _ = sjson.Set(out, "stop_sequences", stops)
			}
		} else if stop.String() != "" {
			out, _ = sjson.Set(out, "stop_sequences", []string{stop.String()})
		}
	}

	var systemParts []string
	var claudeMessages []interface{}

	if messages := root.Get("messages"); messages.Exists() && messages.IsArray() {
		messages.ForEach(func(_, m gjson.Result) bool {
			role := m.Get("role").String()
			content := messageText(m)
			if role == "system" {
				if content != "" {
					systemParts = append(systemParts, content)
				}
				return true
			}
			claudeMessages = append(claudeMessages, map[string]interface{}{
				"role":    role,
				"content": content,
			})
			return true
		})
	}

	if len(systemParts) > 0 {
		out, _ = sjson.Set(out, "system", strings.Join(systemParts, "\n\n"))
	}

	// Claude requires the first message to be role=user; synthesize one
	// when the conversation is empty or opens with something else.
	if len(claudeMessages) == 0 {
		claudeMessages = append(claudeMessages, map[string]interface{}{"role": "user", "content": "Hello"})
	} else if first, ok := claudeMessages[0].(map[string]interface{}); ok && first["role"] != "user" {
		claudeMessages = append([]interface{}{map[string]interface{}{"role": "user", "content": "Continue"}}, claudeMessages...)
	}

	out, _ = sjson.Set(out, "messages", claudeMessages)
	return []byte(out)
}

// messageText extracts the text of one OpenAI message, whether its content
// is a plain string or a multi-part array (text/image_url parts).
func messageText(message gjson.Result) string {
	content := message.Get("content")
	if content.Type == gjson.String {
		return content.String()
	}
	if content.IsArray() {
		var parts []string
		content.ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "text" {
				parts = append(parts, part.Get("text").String())
			}
			return true
		})
		return strings.Join(parts, "")
	}
	return ""
}

// ClaudeToOpenAIRequest converts a Claude Messages request body into an
// OpenAI Chat Completions request body (§4.4.3).
func ClaudeToOpenAIRequest(modelName string, rawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(rawJSON)
	out := `{"model":"","messages":[]}`

	out, _ = sjson.Set(out, "model", modelName)
	out, _ = sjson.Set(out, "stream", stream)

	if v := root.Get("max_tokens"); v.Exists() {
		out, _ = sjson.Set(out, "max_tokens", v.Int())
	}
	if v := root.Get("temperature"); v.Exists() {
		out, _ = sjson.Set(out, "temperature", v.Float())
	}
	if v := root.Get("top_p"); v.Exists() {
		out, _ = sjson.Set(out, "top_p", v.Float())
	}
	// top_k is dropped: no OpenAI equivalent (§4.4.3).

	if stops := root.Get("stop_sequences"); stops.Exists() && stops.IsArray() {
		var out2 []string
		stops.ForEach(func(_, v gjson.Result) bool {
			out2 = append(out2, v.String())
			return true
		})
		if len(out2) == 1 {
			out, _ = sjson.Set(out, "stop", out2[0])
		} else if len(out2) > 1 {
			out, _ = sjson.Set(out, "stop", out2)
		}
	}

	var openaiMessages []interface{}
	if system := root.Get("system"); system.Exists() && system.String() != "" {
		openaiMessages = append(openaiMessages, map[string]interface{}{
			"role":    "system",
			"content": system.String(),
		})
	}

	if messages := root.Get("messages"); messages.Exists() && messages.IsArray() {
		messages.ForEach(func(_, m gjson.Result) bool {
			role := m.Get("role").String()
			content := m.Get("content")
			var text string
			if content.Type == gjson.String {
				text = content.String()
			} else if content.IsArray() {
				var parts []string
				content.ForEach(func(_, block gjson.Result) bool {
					switch block.Get("type").String() {
					case "text":
						parts = append(parts, block.Get("text").String())
					case "image":
						// Best-effort only: no OpenAI multimodal mapping here yet.
					}
					return true
				})
				text = strings.Join(parts, "")
			}
			openaiMessages = append(openaiMessages, map[string]interface{}{
				"role":    role,
				"content": text,
			})
			return true
		})
	}

	out, _ = sjson.Set(out, "messages", openaiMessages)
	return []byte(out)
}
