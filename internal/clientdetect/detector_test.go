package clientdetect

import (
	"net/http"
	"testing"
)

func TestDetectExplicitHeaderWins(t *testing.T) {
	h := http.Header{}
	h.Set("X-Client-Type", "claude-cli")
	h.Set("User-Agent", "codex/1.0")
	res := Detect(h, "/v1/chat/completions")
	if res.ClientType != ClaudeCode {
		t.Fatalf("expected ClaudeCode from explicit header, got %s", res.ClientType)
	}
	if res.Confidence != High {
		t.Fatalf("expected High confidence, got %s", res.Confidence)
	}
}

func TestDetectUserAgentDictionary(t *testing.T) {
	h := http.Header{}
	h.Set("User-Agent", "Cursor/0.9 (Macintosh)")
	res := Detect(h, "/v1/chat/completions")
	if res.ClientType != Cursor {
		t.Fatalf("expected Cursor, got %s", res.ClientType)
	}
	if res.Confidence != Medium {
		t.Fatalf("expected Medium confidence, got %s", res.Confidence)
	}
}

func TestDetectAuthShapeFallback(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer sk-abc123")
	res := Detect(h, "/v1/chat/completions")
	if res.ClientType != GenericOpenAI {
		t.Fatalf("expected GenericOpenAI from bearer auth shape, got %s", res.ClientType)
	}
}

func TestDetectXAPIKeyImpliesClaude(t *testing.T) {
	h := http.Header{}
	h.Set("x-api-key", "sk-ant-123")
	res := Detect(h, "/v1/messages")
	if res.ClientType != GenericClaude {
		t.Fatalf("expected GenericClaude, got %s", res.ClientType)
	}
}

func TestDetectPathFallbackWhenHeadersUninformative(t *testing.T) {
	h := http.Header{}
	res := Detect(h, "/v1/messages")
	if res.ClientType != GenericClaude {
		t.Fatalf("expected GenericClaude from path fallback, got %s", res.ClientType)
	}
	if res.Confidence != Low {
		t.Fatalf("expected Low confidence, got %s", res.Confidence)
	}
}

func TestTypeExpectedFormat(t *testing.T) {
	if ClaudeCode.ExpectedFormat() != "claude" {
		t.Fatalf("expected claude format for ClaudeCode, got %s", ClaudeCode.ExpectedFormat())
	}
	if Codex.ExpectedFormat() != "openai" {
		t.Fatalf("expected openai format for Codex, got %s", Codex.ExpectedFormat())
	}
	if TypeUnknown.ExpectedFormat() != "unknown" {
		t.Fatalf("expected unknown format for TypeUnknown, got %s", TypeUnknown.ExpectedFormat())
	}
}
