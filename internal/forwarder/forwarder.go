// Package forwarder implements C11: take one inbound client request plus
// the selected upstream config, rewrite it for the backend, send it over
// net/http's connection-pooled Transport, and hand back either a fully
// buffered response or a streaming body teed into a completion channel.
// Grounded on the teacher's internal/client/claude_client.go APIRequest
// (header construction, status triage, io.ReadCloser streaming) but built
// on http.Transport/http.Client rather than a bespoke dial, the idiomatic
// Go way to get pooled connections, TLS SNI and a deadline in one place.
package forwarder

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/llmproxy/claude-proxy-router/internal/autoswitch"
	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/translate/claudegemini"
)

// maxCapturedBytes bounds how much of a request/response body is retained
// for the call record (§4.10 step 7).
const maxCapturedBytes = 8 * 1024

// claudeBlacklistFields lists Claude request fields upstream providers are
// known to reject; they are dropped before forwarding (§4.10 step 3).
var claudeBlacklistFields = []string{"context_management"}

// Request is everything the router extracts from the inbound HTTP
// request before calling Forward.
type Request struct {
	Method  string
	Path    string
	RawPath string
	Query   string
	Header  http.Header
	Body    []byte
}

// StreamCompletionData is pushed to the completion channel once a
// streaming response finishes, per §4.10 step 7.
type StreamCompletionData struct {
	ResponseBody     []byte
	ResponseBodySize int
	ChunkCount       int
}

// Details mirrors the ForwardDetails record §4.10 step 8 asks for.
type Details struct {
	TargetURL         string
	RequestBody       []byte
	RequestBodySize   int
	ResponseHeaders   http.Header
	ResponseBody      []byte
	ResponseBodySize  int
	IsStreaming       bool
	StreamChunkCount  int
	Model             string
}

// Result is what Forward returns: the status, headers and either a
// buffered body or a body reader plus a completion channel for streams.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	IsStream   bool
	LatencyMs  int64
	Details    Details
	Completion <-chan StreamCompletionData
}

// Failure is the typed error C11 produces on a 4xx/5xx or transport
// failure, carrying enough to classify via autoswitch.Classify (§4.10
// step 6, §4.9).
type Failure struct {
	StatusCode int
	Body       string
	Reason     constant.SwitchReason
	LatencyMs  *int64
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("upstream failure (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("upstream failure (%s): status %d", f.Reason, f.StatusCode)
}

// Forwarder holds the shared, connection-pooled HTTP client the teacher's
// clients construct once per process rather than per request.
type Forwarder struct {
	client            *http.Client
	totalDeadline     time.Duration
	streamIdleTimeout time.Duration
}

// New builds a Forwarder with the given total per-request deadline
// (§5: "global per-request deadline = 120s from the moment C11 opens the
// TCP socket") and per-chunk stream idle timeout (§9 supplemented
// feature). A zero streamIdleTimeout disables idle enforcement.
func New(totalDeadline, streamIdleTimeout time.Duration) *Forwarder {
	return &Forwarder{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: totalDeadline,
				}).DialContext,
				TLSHandshakeTimeout:   totalDeadline,
				ResponseHeaderTimeout: totalDeadline,
				// Upstream is spoken over HTTP/1.1 only; see DESIGN.md.
				ForceAttemptHTTP2:   false,
				MaxIdleConnsPerHost: 32,
			},
		},
		totalDeadline:     totalDeadline,
		streamIdleTimeout: streamIdleTimeout,
	}
}

// target holds the parsed pieces of ApiConfig.ServerURL (§4.10 step 1).
type target struct {
	scheme     string
	host       string
	hostNoPort string
	prefixPath string
}

func parseTarget(serverURL string) (target, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return target{}, fmt.Errorf("forwarder: invalid server_url %q: %w", serverURL, err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := u.Host
	hostNoPort := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostNoPort = h
	}
	if !strings.Contains(host, ":") {
		if scheme == "https" {
			host = host + ":443"
		} else {
			host = host + ":80"
		}
	}
	return target{
		scheme:     scheme,
		host:       host,
		hostNoPort: hostNoPort,
		prefixPath: strings.TrimSuffix(u.Path, "/"),
	}, nil
}

// Forward implements C11 end to end for one client request.
func (f *Forwarder) Forward(ctx context.Context, req Request, cfg *config.ApiConfig, model string, isStream bool) (*Result, *Failure) {
	tgt, err := parseTarget(cfg.ServerURL)
	if err != nil {
		return nil, &Failure{Reason: constant.ReasonUnknown, Err: err}
	}

	body := req.Body
	outboundPath := tgt.prefixPath + req.RawPath
	if req.Query != "" {
		outboundPath += "?" + req.Query
	}

	switch cfg.ProviderType {
	case constant.Gemini:
		// The router has already run the inbound body through
		// translate.Request (§4.10 step 3: parse as the client's format,
		// convert to the backend's); this only rewrites the URI, it never
		// re-converts an already-Gemini-shaped body.
		outboundPath = tgt.prefixPath + claudegemini.GeminiRequestPath(model, isStream)
	case constant.Claude:
		if len(body) > 0 && looksLikeJSON(body) {
			body = stripBlacklisted(body, claudeBlacklistFields)
		}
	}

	targetURL := fmt.Sprintf("%s://%s%s", tgt.scheme, tgt.host, outboundPath)

	dialCtx, cancel := context.WithTimeout(ctx, f.totalDeadline)
	// A streaming body is read after Forward returns, so its request
	// context is left to end with the total deadline or with ctx.
	keepCtx := false
	defer func() {
		if !keepCtx {
			cancel()
		}
	}()

	httpReq, err := http.NewRequestWithContext(dialCtx, req.Method, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Failure{Reason: constant.ReasonUnknown, Err: err}
	}
	rewriteHeaders(httpReq, req.Header, tgt.hostNoPort, cfg.APIKey, len(body))

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		reason := constant.ReasonConnectionFailed
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			reason = constant.ReasonTimeout
		}
		return nil, &Failure{Reason: reason, Err: err, LatencyMs: &latency}
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBytes))
		reason := classifyStatus(resp.StatusCode, string(raw))
		return nil, &Failure{StatusCode: resp.StatusCode, Body: string(raw), Reason: reason, LatencyMs: &latency}
	}

	details := Details{
		TargetURL:       targetURL,
		RequestBody:     truncate(body, maxCapturedBytes),
		RequestBodySize: len(body),
		ResponseHeaders: resp.Header.Clone(),
		IsStreaming:     isStream,
		Model:           model,
	}

	if !isStream {
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &Failure{Reason: constant.ReasonUnknown, Err: err, LatencyMs: &latency}
		}
		details.ResponseBody = truncate(raw, maxCapturedBytes)
		details.ResponseBodySize = len(raw)
		return &Result{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       io.NopCloser(bytes.NewReader(raw)),
			IsStream:   false,
			LatencyMs:  latency,
			Details:    details,
		}, nil
	}

	keepCtx = true
	completion := make(chan StreamCompletionData, 1)
	var streamBody io.ReadCloser = resp.Body
	if f.streamIdleTimeout > 0 {
		streamBody = newIdleTimeoutReader(streamBody, f.streamIdleTimeout)
	}
	teed := newTeeReadCloser(streamBody, completion)

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       teed,
		IsStream:   true,
		LatencyMs:  latency,
		Details:    details,
		Completion: completion,
	}, nil
}

func rewriteHeaders(httpReq *http.Request, in http.Header, hostNoPort, apiKey string, bodyLen int) {
	for k, vs := range in {
		lk := strings.ToLower(k)
		if lk == "authorization" || lk == "host" || lk == "content-length" {
			continue
		}
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Host = hostNoPort
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.ContentLength = int64(bodyLen)
	httpReq.Header.Set("Content-Length", strconv.Itoa(bodyLen))
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func stripBlacklisted(body []byte, fields []string) []byte {
	out := body
	for _, field := range fields {
		if gjson.GetBytes(out, field).Exists() {
			out, _ = sjson.DeleteBytes(out, field)
		}
	}
	return out
}

func truncate(b []byte, max int) []byte {
	if len(b) <= max {
		return b
	}
	return b[:max]
}

// classifyStatus derives a SwitchReason from a triaged error response
// body, delegating to the same classifier C10 uses so C11 and C10 never
// disagree on what a given upstream error means.
func classifyStatus(status int, body string) constant.SwitchReason {
	return autoswitch.Classify(autoswitch.FailureSignal{StatusCode: status, Body: body})
}
