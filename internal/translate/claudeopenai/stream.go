package claudeopenai

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// OpenAIToClaudeStreamState is the per-stream accumulator for §4.4.6's
// "OpenAI-stream -> Claude-SSE" conversion, mirroring the teacher's
// ConvertOpenAIResponseToAnthropicParams accumulator.
type OpenAIToClaudeStreamState struct {
	MessageID            string
	Model                string
	MessageStarted        bool
	ContentBlockStarted   bool
	ContentBlockStopped   bool
	MessageDeltaSent      bool
	MessageStopSent       bool
	StopReason            string
	OutputTokens          int64
}

func claudeSSE(event string, payload string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload)
}

// OpenAIStreamChunkToClaude consumes one upstream OpenAI SSE frame (the
// full "data: {...}" line, or "data: [DONE]") and returns zero or more
// Claude SSE frames.
func OpenAIStreamChunkToClaude(state *OpenAIToClaudeStreamState, rawFrame []byte) []string {
	line := strings.TrimSpace(string(rawFrame))
	line = strings.TrimPrefix(line, "data:")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line == "[DONE]" {
		return finishOpenAIToClaude(state)
	}

	root := gjson.ParseBytes([]byte(line))
	var out []string

	if !state.MessageStarted {
		state.MessageID = root.Get("id").String()
		if state.MessageID == "" {
			state.MessageID = "msg_" + uuid.NewString()
		}
		state.Model = root.Get("model").String()
		state.MessageStarted = true

		start := `{"type":"message_start","message":{"type":"message","role":"assistant","content":[],"usage":{"input_tokens":0,"output_tokens":0}}}`
		start, _ = sjson.Set(start, "message.id", state.MessageID)
		start, _ = sjson.Set(start, "message.model", state.Model)
		out = append(out, claudeSSE("message_start", start))

		blockStart := `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`
		out = append(out, claudeSSE("content_block_start", blockStart))
		state.ContentBlockStarted = true
	}

	if delta := root.Get("choices.0.delta.content"); delta.Exists() && delta.String() != "" {
		d := `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":""}}`
		d, _ = sjson.Set(d, "delta.text", delta.String())
		out = append(out, claudeSSE("content_block_delta", d))
	}

	if finish := root.Get("choices.0.finish_reason"); finish.Exists() && finish.String() != "" {
		state.StopReason = finish.String()
		out = append(out, finishOpenAIToClaude(state)...)
	}

	return out
}

func finishOpenAIToClaude(state *OpenAIToClaudeStreamState) []string {
	var out []string
	if state.MessageStopSent {
		return out
	}
	if !state.ContentBlockStopped {
		out = append(out, claudeSSE("content_block_stop", `{"type":"content_block_stop","index":0}`))
		state.ContentBlockStopped = true
	}
	if !state.MessageDeltaSent {
		stopReason := state.StopReason
		if stopReason == "" {
			stopReason = "stop"
		}
		mapped, ok := openAIStopReasonToClaude[stopReason]
		if !ok {
			mapped = "end_turn"
		}
		delta := `{"type":"message_delta","delta":{"stop_reason":""},"usage":{"output_tokens":0}}`
		delta, _ = sjson.Set(delta, "delta.stop_reason", mapped)
		delta, _ = sjson.Set(delta, "usage.output_tokens", state.OutputTokens)
		out = append(out, claudeSSE("message_delta", delta))
		state.MessageDeltaSent = true
	}
	out = append(out, claudeSSE("message_stop", `{"type":"message_stop"}`))
	state.MessageStopSent = true
	return out
}

// ClaudeToOpenAIStreamState is the accumulator for the reverse direction.
type ClaudeToOpenAIStreamState struct {
	MessageID string
	Model     string
	Done      bool
}

func openAIChunk(payload string) string {
	return "data: " + payload + "\n\n"
}

// ClaudeStreamEventToOpenAI consumes one upstream Claude SSE event (the
// full "event: <name>\ndata: {...}\n\n" block) and returns zero or more
// OpenAI-format SSE frames (§4.4.6).
func ClaudeStreamEventToOpenAI(state *ClaudeToOpenAIStreamState, rawEvent []byte) []string {
	eventName, payload := splitClaudeEvent(rawEvent)
	if payload == "" {
		return nil
	}
	root := gjson.ParseBytes([]byte(payload))

	switch eventName {
	case "message_start":
		state.MessageID = "chatcmpl-" + root.Get("message.id").String()
		state.Model = root.Get("message.model").String()
		chunk := `{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"}}]}`
		chunk, _ = sjson.Set(chunk, "id", state.MessageID)
		chunk, _ = sjson.Set(chunk, "model", state.Model)
		chunk, _ = sjson.Set(chunk, "system_fingerprint", state.Model)
		return []string{openAIChunk(chunk)}

	case "content_block_delta":
		if root.Get("delta.type").String() != "text_delta" {
			return nil
		}
		text := root.Get("delta.text").String()
		if text == "" {
			return nil
		}
		chunk := `{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{}}]}`
		chunk, _ = sjson.Set(chunk, "id", state.MessageID)
		chunk, _ = sjson.Set(chunk, "model", state.Model)
		chunk, _ = sjson.Set(chunk, "choices.0.delta.content", text)
		return []string{openAIChunk(chunk)}

	case "message_delta":
		stopReason := root.Get("delta.stop_reason").String()
		mapped, ok := claudeStopReasonToOpenAI[stopReason]
		if !ok {
			mapped = stopReason
		}
		chunk := `{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{}}]}`
		chunk, _ = sjson.Set(chunk, "id", state.MessageID)
		chunk, _ = sjson.Set(chunk, "model", state.Model)
		chunk, _ = sjson.Set(chunk, "choices.0.finish_reason", mapped)
		if usage := root.Get("usage"); usage.Exists() {
			chunk, _ = sjson.Set(chunk, "usage.completion_tokens", usage.Get("output_tokens").Int())
		}
		return []string{openAIChunk(chunk)}

	case "message_stop":
		state.Done = true
		return []string{openAIChunk("[DONE]")}

	default:
		// ping, content_block_start, content_block_stop: no OpenAI output.
		return nil
	}
}

func splitClaudeEvent(raw []byte) (event, data string) {
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	return event, data
}
