package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

func TestForwardNonStreamingSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("expected rewritten Authorization header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	cfg := &config.ApiConfig{
		ID:           1,
		APIKey:       "secret-key",
		ServerURL:    srv.URL,
		ProviderType: constant.Claude,
	}
	_ = u

	f := New(5*time.Second, 0)
	req := Request{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		RawPath: "/v1/messages",
		Header: http.Header{"Authorization": []string{"Bearer client-supplied"}},
		Body:   []byte(`{"model":"claude-3","messages":[]}`),
	}

	result, failure := f.Forward(context.Background(), req, cfg, "claude-3", false)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	body, _ := io.ReadAll(result.Body)
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if result.Details.ResponseBodySize != len(`{"ok":true}`) {
		t.Fatalf("unexpected captured response size: %d", result.Details.ResponseBodySize)
	}
}

func TestForwardGeminiDoesNotReconvertAlreadyGeminiBody(t *testing.T) {
	var gotBody []byte
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	cfg := &config.ApiConfig{ID: 1, APIKey: "k", ServerURL: srv.URL, ProviderType: constant.Gemini}
	f := New(5*time.Second, 0)

	// This is a body the router already converted to Gemini shape
	// (translate.Request ran ClaudeToGeminiRequest); the forwarder must
	// forward it unchanged, not run the converter on it a second time.
	geminiBody := []byte(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`)
	req := Request{Method: http.MethodPost, Path: "/v1beta/models/gemini-pro:generateContent", RawPath: "/v1beta/models/gemini-pro:generateContent", Header: http.Header{}, Body: geminiBody}

	result, failure := f.Forward(context.Background(), req, cfg, "gemini-pro", false)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	if string(gotBody) != string(geminiBody) {
		t.Fatalf("expected the already-converted Gemini body to pass through unchanged, got %s", gotBody)
	}
	if gotPath == "" {
		t.Fatal("expected a rewritten Gemini request path")
	}
}

func TestForwardStatusTriageClassifiesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	cfg := &config.ApiConfig{ID: 1, APIKey: "k", ServerURL: srv.URL, ProviderType: constant.Claude}
	f := New(5*time.Second, 0)
	req := Request{Method: http.MethodPost, Path: "/v1/messages", RawPath: "/v1/messages", Header: http.Header{}, Body: []byte(`{}`)}

	_, failure := f.Forward(context.Background(), req, cfg, "claude-3", false)
	if failure == nil {
		t.Fatal("expected a failure")
	}
	if failure.Reason != constant.ReasonRateLimit {
		t.Fatalf("expected RateLimit, got %s", failure.Reason)
	}
	if failure.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", failure.StatusCode)
	}
}

func TestForwardStreamingTeesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		_, _ = w.Write([]byte("event: message_start\ndata: {}\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
		_, _ = w.Write([]byte("event: message_stop\ndata: {}\n\n"))
	}))
	defer srv.Close()

	cfg := &config.ApiConfig{ID: 1, APIKey: "k", ServerURL: srv.URL, ProviderType: constant.Claude}
	f := New(5*time.Second, 0)
	req := Request{Method: http.MethodPost, Path: "/v1/messages", RawPath: "/v1/messages", Header: http.Header{}, Body: []byte(`{"stream":true}`)}

	result, failure := f.Forward(context.Background(), req, cfg, "claude-3", true)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if !result.IsStream {
		t.Fatal("expected IsStream true")
	}

	body, err := io.ReadAll(result.Body)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if err := result.Body.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	select {
	case completion := <-result.Completion:
		if completion.ResponseBodySize != len(body) {
			t.Fatalf("expected completion size %d, got %d", len(body), completion.ResponseBodySize)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream completion")
	}
}

func TestForwardStreamIdleTimeoutAbortsRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		_, _ = w.Write([]byte("event: message_start\ndata: {}\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
		// Never write the rest; the idle timer should abort the client read.
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := &config.ApiConfig{ID: 1, APIKey: "k", ServerURL: srv.URL, ProviderType: constant.Claude}
	f := New(5*time.Second, 50*time.Millisecond)
	req := Request{Method: http.MethodPost, Path: "/v1/messages", RawPath: "/v1/messages", Header: http.Header{}, Body: []byte(`{"stream":true}`)}

	result, failure := f.Forward(context.Background(), req, cfg, "claude-3", true)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	defer result.Body.Close()

	_, err := io.ReadAll(result.Body)
	if err == nil {
		t.Fatal("expected the idle timeout to abort the read with an error")
	}
}
