// Package router implements C12, the request router / front door: the
// only component that owns the inbound HTTP listener. It wires C2-C4 to
// pick a routing context, C5 to translate request/response bodies, C11 to
// reach the upstream, and C10 to decide whether a failure should rotate
// the active config, following the same gin.Engine-plus-route-groups
// shape as the teacher's internal/api/server.go.
package router

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	log "github.com/sirupsen/logrus"

	"github.com/llmproxy/claude-proxy-router/internal/activeconfig"
	"github.com/llmproxy/claude-proxy-router/internal/autoswitch"
	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/forwarder"
	"github.com/llmproxy/claude-proxy-router/internal/protocol"
	"github.com/llmproxy/claude-proxy-router/internal/routing"
	"github.com/llmproxy/claude-proxy-router/internal/session"
	"github.com/llmproxy/claude-proxy-router/internal/translate"
	"github.com/llmproxy/claude-proxy-router/internal/validate"
)

// scannerBufferSize mirrors the teacher's generous scanner buffer
// (internal/client/claude_client.go uses 10240*1024) so a single stream
// frame never overruns bufio.Scanner's default 64 KiB token limit.
const scannerBufferSize = 10240 * 1024

// routeDefs enumerates the inbound surface (§6); each is registered both
// bare and under a "/session/:session_id" prefix.
var routeDefs = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/v1/messages"},
	{http.MethodPost, "/v1/chat/completions"},
	{http.MethodPost, "/v1/completions"},
	{http.MethodGet, "/v1/models"},
	{http.MethodPost, "/v1beta/models/:action"},
	{http.MethodGet, "/v1beta/models/:action"},
}

// Server owns the gin engine and every collaborator a request needs.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	store    config.Store
	sessions *session.Table
	active   *activeconfig.Cell
	switcher *autoswitch.Controller
	fwd      *forwarder.Forwarder

	basePort          int
	portFallbackRange int
}

// New constructs a Server wired to its collaborators and registers every
// route in routeDefs, bare and session-prefixed.
func New(cfg *config.Config, store config.Store, sessions *session.Table, active *activeconfig.Cell, switcher *autoswitch.Controller, fwd *forwarder.Forwarder) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(ginLogger())
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		engine:   engine,
		store:    store,
		sessions: sessions,
		active:   active,
		switcher: switcher,
		fwd:      fwd,
	}

	for _, rd := range routeDefs {
		engine.Handle(rd.method, rd.path, s.handle)
		engine.Handle(rd.method, "/session/:session_id"+rd.path, s.handle)
	}

	s.httpServer = &http.Server{Handler: engine}
	s.basePort = cfg.Port
	s.portFallbackRange = cfg.PortFallbackRange
	return s
}

// Start binds the listener, trying basePort then up to portFallbackRange
// subsequent ports when the preferred one is busy (§6: "if occupied, the
// server attempts the next nine ports sequentially"), then blocks serving
// until Stop is called.
func (s *Server) Start() error {
	var lastErr error
	for offset := 0; offset <= s.portFallbackRange; offset++ {
		port := s.basePort + offset
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			lastErr = err
			continue
		}
		log.Infof("router: listening on port %d", port)
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("router: server error: %w", err)
		}
		return nil
	}
	return fmt.Errorf("router: no free port in range %d-%d: %w", s.basePort, s.basePort+s.portFallbackRange, lastErr)
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// handle is the single entry point every registered route funnels
// through (§4.11 steps 1-3).
func (s *Server) handle(c *gin.Context) {
	sessionID, rest := protocol.StripSessionPrefix(c.Request.URL.Path)
	clientFormat := protocol.EffectiveInbound(rest)

	cfg, isNewBinding, err := s.resolveConfig(sessionID)
	if err != nil {
		writeError(c, clientFormat, http.StatusServiceUnavailable, constant.ReasonUnknown, err.Error())
		return
	}
	if isNewBinding {
		s.sessions.Register(sessionID, cfg.ID, "")
	}

	group, err := s.store.GetGroup(groupIDOf(cfg))
	if err != nil {
		group = &config.ConfigGroup{}
	}

	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
	}

	if errs := validateInbound(clientFormat, c.Request.Method, body); len(errs) > 0 {
		writeValidationError(c, clientFormat, errs)
		return
	}

	routingCtx := routing.Build(c.Request.Header, rest, cfg.ProviderType)
	sourceModel := gjson.GetBytes(body, "model").String()
	routingCtx = routingCtx.WithModel(sourceModel)
	targetModel := applyOverride(routingCtx.TargetModel, cfg.ModelOverrides)

	isStream := gjson.GetBytes(body, "stream").Bool() || strings.Contains(rest, "streamGenerateContent")

	outBody := body
	if routingCtx.NeedsRequestConversion() && len(body) > 0 {
		outBody = translate.Request(routingCtx.ClientFormat, routingCtx.BackendFormat, targetModel, body, isStream)
	}

	fwdReq := forwarder.Request{
		Method:  c.Request.Method,
		Path:    rest,
		RawPath: rest,
		Query:   c.Request.URL.RawQuery,
		Header:  c.Request.Header.Clone(),
		Body:    outBody,
	}

	result, failure := s.fwd.Forward(c.Request.Context(), fwdReq, cfg, targetModel, isStream)
	if failure != nil {
		s.onFailure(c, sessionID, cfg, routingCtx.ClientFormat, failure)
		return
	}

	s.onSuccess(sessionID, cfg, group, result.LatencyMs)
	s.respond(c, routingCtx, result)
}

// resolveConfig finds the ApiConfig this request targets: the session's
// pinned config if sessionID names one, otherwise the process-wide active
// config (§4.6, §5's active_cell). When a session id is present but has no
// binding yet, it reports isNewBinding so the caller registers one against
// whatever the current default active config is.
func (s *Server) resolveConfig(sessionID string) (cfg *config.ApiConfig, isNewBinding bool, err error) {
	if sessionID != "" {
		if b, ok := s.sessions.GetEntry(sessionID); ok {
			cfg, err = s.store.GetConfig(b.ConfigID)
			return cfg, false, err
		}
	}
	activeID, ok := s.active.Get()
	if !ok {
		return nil, false, fmt.Errorf("no active upstream configuration")
	}
	cfg, err = s.store.GetConfig(activeID)
	return cfg, sessionID != "", err
}

func groupIDOf(cfg *config.ApiConfig) int64 {
	if cfg.GroupID == nil {
		return 0
	}
	return *cfg.GroupID
}

// onFailure runs §4.11 step 3: classify (already done by the forwarder),
// ask C10 to decide, rotate the active pointer on SwitchTo, and respond
// with the client-format error envelope.
func (s *Server) onFailure(c *gin.Context, sessionID string, cfg *config.ApiConfig, clientFormat constant.Format, failure *forwarder.Failure) {
	decision, err := s.switcher.HandleFailureWithRetry(cfg.ID, failure.Reason, failure.LatencyMs)
	if err != nil {
		log.Errorf("router: auto-switch decision failed: %v", err)
	} else if decision.Outcome == autoswitch.SwitchedTo {
		log.Infof("router: switching active config %d -> %d (reason=%s)", cfg.ID, decision.NewConfigID, failure.Reason)
		if sessionID != "" {
			s.sessions.Switch(sessionID, decision.NewConfigID)
		} else {
			s.active.Set(decision.NewConfigID)
		}
	}

	message := failure.Body
	if message == "" {
		if failure.Err != nil {
			message = failure.Err.Error()
		} else {
			message = "upstream request failed"
		}
	}
	writeError(c, clientFormat, failure.StatusCode, failure.Reason, message)
}

// onSuccess runs §4.11 step 2: compare the observed latency against the
// group's threshold, either flagging HighLatency to C10 (the reply still
// goes out; any switch applies to the next request) or resetting C10's
// counter.
func (s *Server) onSuccess(sessionID string, cfg *config.ApiConfig, group *config.ConfigGroup, latencyMs int64) {
	_ = s.store.SetLatency(cfg.ID, latencyMs)
	if group.LatencyThresholdMs > 0 && latencyMs > group.LatencyThresholdMs {
		decision, err := s.switcher.HandleFailureWithRetry(cfg.ID, constant.ReasonHighLatency, &latencyMs)
		if err != nil {
			log.Errorf("router: high-latency switch decision failed: %v", err)
		} else if decision.Outcome == autoswitch.SwitchedTo {
			log.Infof("router: switching active config %d -> %d (reason=%s)", cfg.ID, decision.NewConfigID, constant.ReasonHighLatency)
			if sessionID != "" {
				s.sessions.Switch(sessionID, decision.NewConfigID)
			} else {
				s.active.Set(decision.NewConfigID)
			}
		}
		return
	}
	if err := s.switcher.OnSuccess(cfg.ID); err != nil {
		log.Errorf("router: failed to reset failure counter: %v", err)
	}
}

// respond writes the upstream result back to the client, converting the
// body first if the routing context calls for it (§4.10 step 7).
func (s *Server) respond(c *gin.Context, routingCtx routing.Context, result *forwarder.Result) {
	if !result.IsStream {
		defer result.Body.Close()
		raw, err := io.ReadAll(result.Body)
		if err != nil {
			writeError(c, routingCtx.ClientFormat, http.StatusBadGateway, constant.ReasonUnknown, err.Error())
			return
		}
		if routingCtx.NeedsResponseConversion() {
			raw = translate.ResponseNonStream(routingCtx.BackendFormat, routingCtx.ClientFormat, raw)
		}
		contentType := result.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(result.StatusCode, contentType, raw)
		return
	}

	s.respondStream(c, routingCtx, result)
}

// respondStream implements §4.10 step 7's two streaming cases: a same
// format passthrough tee, or a per-chunk converting transducer, both
// async and yielding at each upstream frame boundary (§5).
func (s *Server) respondStream(c *gin.Context, routingCtx routing.Context, result *forwarder.Result) {
	defer result.Body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(result.StatusCode)

	flusher, canFlush := c.Writer.(http.Flusher)

	if !routingCtx.NeedsResponseConversion() {
		buf := make([]byte, 32*1024)
		for {
			n, err := result.Body.Read(buf)
			if n > 0 {
				_, _ = c.Writer.Write(buf[:n])
				if canFlush {
					flusher.Flush()
				}
			}
			if err != nil {
				if err != io.EOF {
					frame := writeStreamError(c, routingCtx.ClientFormat, constant.ReasonUnknown, err.Error())
					_, _ = c.Writer.Write([]byte(frame))
					if canFlush {
						flusher.Flush()
					}
				}
				return
			}
		}
	}

	converter, ok := translate.Lookup(routingCtx.BackendFormat, routingCtx.ClientFormat)
	if !ok || converter.StreamChunk == nil || converter.NewStreamState == nil {
		// No per-chunk transducer registered for this pair (an
		// Open Question resolution noted in DESIGN.md): fall back to
		// buffering the whole stream and running the non-streaming
		// converter once, emitted as a single frame.
		raw, _ := io.ReadAll(result.Body)
		converted := translate.ResponseNonStream(routingCtx.BackendFormat, routingCtx.ClientFormat, raw)
		_, _ = c.Writer.Write(converted)
		if canFlush {
			flusher.Flush()
		}
		return
	}

	state := converter.NewStreamState()
	scanner := bufio.NewScanner(result.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)
	scanner.Split(splitFuncFor(routingCtx.BackendFormat))

	for scanner.Scan() {
		frame := scanner.Bytes()
		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		var out []string
		out, state = converter.StreamChunk(state, frame)
		for _, line := range out {
			_, _ = c.Writer.Write([]byte(line))
		}
		if len(out) > 0 && canFlush {
			flusher.Flush()
		}
	}

	if err := scanner.Err(); err != nil {
		frame := writeStreamError(c, routingCtx.ClientFormat, constant.ReasonUnknown, err.Error())
		_, _ = c.Writer.Write([]byte(frame))
		if canFlush {
			flusher.Flush()
		}
	}
}

// applyOverride substitutes a per-slot model override, matched by the
// family keyword present in the already-mapped target model name; an
// empty override leaves the name unchanged.
func applyOverride(modelName string, o config.ModelOverrides) string {
	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "haiku") && o.Haiku != "":
		return o.Haiku
	case strings.Contains(lower, "sonnet") && o.Sonnet != "":
		return o.Sonnet
	case strings.Contains(lower, "opus") && o.Opus != "":
		return o.Opus
	case (strings.Contains(lower, "small") || strings.Contains(lower, "fast")) && o.SmallFast != "":
		return o.SmallFast
	case o.Default != "":
		return o.Default
	default:
		return modelName
	}
}

// validateInbound runs C6 against a request body in the client's native
// format, skipping GET requests and bodies the client format has no
// validator for (Gemini requests are not field-validated in this release).
func validateInbound(clientFormat constant.Format, method string, body []byte) []validate.FieldError {
	if method != http.MethodPost || len(body) == 0 {
		return nil
	}
	switch clientFormat {
	case constant.Claude:
		return validate.ClaudeRequest(body)
	case constant.OpenAI:
		return validate.OpenAIRequest(body)
	default:
		return nil
	}
}

func writeValidationError(c *gin.Context, clientFormat constant.Format, errs []validate.FieldError) {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	writeError(c, clientFormat, http.StatusBadRequest, constant.ReasonValidation, strings.Join(messages, "; "))
}
