package claudegemini

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestClaudeToGeminiRequestMapsMessagesAndParams(t *testing.T) {
	body := []byte(`{"model":"claude-3","system":"be nice","max_tokens":256,"temperature":0.5,"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
	out := ClaudeToGeminiRequest("gemini-1.5-pro", body, false)

	root := gjson.ParseBytes(out)
	contents := root.Get("contents").Array()
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Get("role").String() != "user" {
		t.Fatalf("expected first role user, got %s", contents[0].Get("role").String())
	}
	if contents[1].Get("role").String() != "model" {
		t.Fatalf("expected assistant mapped to model, got %s", contents[1].Get("role").String())
	}
	if root.Get("generationConfig.maxOutputTokens").Int() != 256 {
		t.Fatalf("expected maxOutputTokens 256, got %d", root.Get("generationConfig.maxOutputTokens").Int())
	}
	if root.Get("systemInstruction.parts.0.text").String() != "be nice" {
		t.Fatalf("expected system instruction carried over, got %q", root.Get("systemInstruction.parts.0.text").String())
	}
}

func TestGeminiRequestPath(t *testing.T) {
	if got := GeminiRequestPath("gemini-1.5-pro", false); !strings.HasSuffix(got, ":generateContent") {
		t.Fatalf("expected generateContent suffix, got %q", got)
	}
	if got := GeminiRequestPath("gemini-1.5-pro", true); !strings.HasSuffix(got, ":streamGenerateContent") {
		t.Fatalf("expected streamGenerateContent suffix, got %q", got)
	}
}

func TestGeminiToClaudeRequestMapsContents(t *testing.T) {
	body := []byte(`{"contents":[{"role":"user","parts":[{"text":"hi"}]},{"role":"model","parts":[{"text":"hello"}]}],"generationConfig":{"maxOutputTokens":100}}`)
	out := GeminiToClaudeRequest("claude-3", body, true)

	root := gjson.ParseBytes(out)
	if root.Get("model").String() != "claude-3" {
		t.Fatalf("expected model claude-3, got %q", root.Get("model").String())
	}
	if !root.Get("stream").Bool() {
		t.Fatal("expected stream true")
	}
	msgs := root.Get("messages").Array()
	if len(msgs) != 2 || msgs[1].Get("role").String() != "assistant" {
		t.Fatalf("expected model mapped to assistant, got %+v", msgs)
	}
	if root.Get("max_tokens").Int() != 100 {
		t.Fatalf("expected max_tokens 100, got %d", root.Get("max_tokens").Int())
	}
}

func TestGeminiToClaudeResponse(t *testing.T) {
	body := []byte(`{"candidates":[{"content":{"parts":[{"text":"hi there"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":3}}`)
	out := GeminiToClaudeResponse(body)
	root := gjson.ParseBytes(out)
	if root.Get("content.0.text").String() != "hi there" {
		t.Fatalf("expected content text, got %q", root.Get("content.0.text").String())
	}
	if root.Get("stop_reason").String() != "end_turn" {
		t.Fatalf("expected end_turn, got %q", root.Get("stop_reason").String())
	}
	if root.Get("usage.input_tokens").Int() != 5 {
		t.Fatalf("expected input_tokens 5, got %d", root.Get("usage.input_tokens").Int())
	}
}

func TestClaudeToGeminiResponse(t *testing.T) {
	body := []byte(`{"content":[{"type":"text","text":"hi there"}],"stop_reason":"max_tokens","usage":{"input_tokens":5,"output_tokens":3}}`)
	out := ClaudeToGeminiResponse(body)
	root := gjson.ParseBytes(out)
	if root.Get("candidates.0.content.parts.0.text").String() != "hi there" {
		t.Fatalf("expected text carried over, got %q", root.Get("candidates.0.content.parts.0.text").String())
	}
	if root.Get("candidates.0.finishReason").String() != "MAX_TOKENS" {
		t.Fatalf("expected MAX_TOKENS, got %q", root.Get("candidates.0.finishReason").String())
	}
}

func TestGeminiStreamChunkToClaudeEmitsMessageStartOnce(t *testing.T) {
	state := &GeminiToClaudeStreamState{}
	frame := []byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`)

	out1 := GeminiStreamChunkToClaude(state, frame)
	joined := strings.Join(out1, "")
	if !strings.Contains(joined, "message_start") {
		t.Fatalf("expected message_start on first chunk, got %q", joined)
	}

	out2 := GeminiStreamChunkToClaude(state, frame)
	joined2 := strings.Join(out2, "")
	if strings.Contains(joined2, "message_start") {
		t.Fatalf("did not expect a second message_start, got %q", joined2)
	}
}

func TestGeminiStreamChunkToClaudeEmitsMessageStopOnFinish(t *testing.T) {
	state := &GeminiToClaudeStreamState{}
	GeminiStreamChunkToClaude(state, []byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`))
	out := GeminiStreamChunkToClaude(state, []byte(`{"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}]}`))
	joined := strings.Join(out, "")
	if !strings.Contains(joined, "message_stop") {
		t.Fatalf("expected message_stop on finish, got %q", joined)
	}
	if !state.MessageStopSent {
		t.Fatal("expected MessageStopSent to be set")
	}
}

func TestGeminiStreamChunkToClaudeIgnoresArrayBracketLines(t *testing.T) {
	state := &GeminiToClaudeStreamState{}
	if out := GeminiStreamChunkToClaude(state, []byte("[")); out != nil {
		t.Fatalf("expected nil for bare array-open line, got %v", out)
	}
}

func TestGeminiStreamError(t *testing.T) {
	state := &GeminiToClaudeStreamState{}
	frame := GeminiStreamError(state, "upstream closed")
	if !strings.HasPrefix(frame, "event: error\n") {
		t.Fatalf("expected an event: error SSE frame, got %q", frame)
	}
	if !strings.Contains(frame, "upstream closed") {
		t.Fatalf("expected the message to be embedded, got %q", frame)
	}
	if !state.MessageStopSent {
		t.Fatal("expected MessageStopSent to be set after an error frame")
	}
}
