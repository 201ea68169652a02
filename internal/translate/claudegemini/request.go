// Package claudegemini implements the Claude<->Gemini request/response/
// streaming converters (§4.4.4, §4.4.5, §4.4.6), in the same gjson/sjson
// raw-JSON-patching idiom as internal/translate/claudeopenai.
package claudegemini

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ClaudeToGeminiRequest converts a Claude Messages request body into a
// Gemini generateContent request body (§4.4.4).
func ClaudeToGeminiRequest(modelName string, rawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(rawJSON)
	out := `{"contents":[]}`

	var contents []interface{}
	if messages := root.Get("messages"); messages.Exists() && messages.IsArray() {
		messages.ForEach(func(_, m gjson.Result) bool {
			role := "user"
			if m.Get("role").String() == "assistant" {
				role = "model"
			}
			text := blockText(m.Get("content"))
			contents = append(contents, map[string]interface{}{
				"role":  role,
				"parts": []interface{}{map[string]interface{}{"text": text}},
			})
			return true
		})
	}
	out, _ = sjson.Set(out, "contents", contents)

	genConfig := map[string]interface{}{}
	if v := root.Get("temperature"); v.Exists() {
		genConfig["temperature"] = v.Float()
	}
	if v := root.Get("top_p"); v.Exists() {
		genConfig["topP"] = v.Float()
	}
	if v := root.Get("top_k"); v.Exists() {
		genConfig["topK"] = v.Int()
	}
	if v := root.Get("max_tokens"); v.Exists() {
		genConfig["maxOutputTokens"] = v.Int()
	}
	if stops := root.Get("stop_sequences"); stops.Exists() && stops.IsArray() {
		var ss []string
		stops.ForEach(func(_, v gjson.Result) bool {
			ss = append(ss, v.String())
			return true
		})
		if len(ss) > 0 {
			genConfig["stopSequences"] = ss
		}
	}
	if len(genConfig) > 0 {
		out, _ = sjson.Set(out, "generationConfig", genConfig)
	}

	if system := root.Get("system"); system.Exists() && system.String() != "" {
		out, _ = sjson.Set(out, "systemInstruction", map[string]interface{}{
			"parts": []interface{}{map[string]interface{}{"text": system.String()}},
		})
	}

	return []byte(out)
}

// blockText flattens Claude message content (a plain string or an array of
// text/image/tool blocks) into a single string, joining blocks with "\n".
func blockText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	if content.IsArray() {
		var parts []string
		content.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" {
				parts = append(parts, block.Get("text").String())
			}
			return true
		})
		return strings.Join(parts, "\n")
	}
	return ""
}

// GeminiRequestPath builds the outbound Gemini API path for a model and
// streaming mode, per §4.4.4.
func GeminiRequestPath(model string, stream bool) string {
	if stream {
		return "/v1beta/models/" + model + ":streamGenerateContent"
	}
	return "/v1beta/models/" + model + ":generateContent"
}

// GeminiToClaudeRequest is the reverse direction: a native Gemini client
// talking to a Claude backend. Gemini "contents" map directly onto Claude
// messages; role "model" becomes "assistant".
func GeminiToClaudeRequest(modelName string, rawJSON []byte, stream bool) []byte {
	root := gjson.ParseBytes(rawJSON)
	out := `{"model":"","messages":[]}`
	out, _ = sjson.Set(out, "model", modelName)
	out, _ = sjson.Set(out, "stream", stream)

	var messages []interface{}
	if contents := root.Get("contents"); contents.Exists() && contents.IsArray() {
		contents.ForEach(func(_, c gjson.Result) bool {
			role := "user"
			if c.Get("role").String() == "model" {
				role = "assistant"
			}
			var parts []string
			c.Get("parts").ForEach(func(_, p gjson.Result) bool {
				if t := p.Get("text"); t.Exists() {
					parts = append(parts, t.String())
				}
				return true
			})
			messages = append(messages, map[string]interface{}{
				"role":    role,
				"content": strings.Join(parts, ""),
			})
			return true
		})
	}
	out, _ = sjson.Set(out, "messages", messages)

	if gc := root.Get("generationConfig"); gc.Exists() {
		if v := gc.Get("temperature"); v.Exists() {
			out, _ = sjson.Set(out, "temperature", v.Float())
		}
		if v := gc.Get("maxOutputTokens"); v.Exists() {
			out, _ = sjson.Set(out, "max_tokens", v.Int())
		}
	}
	if si := root.Get("systemInstruction"); si.Exists() {
		out, _ = sjson.Set(out, "system", blockText(si))
	}

	return []byte(out)
}
