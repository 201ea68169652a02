// Package autoswitch implements C10: error classification, the per-config
// consecutive-failure counter, the retry-vs-switch decision, and
// SwitchEvent emission (§4.9).
package autoswitch

import (
	"strings"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// FailureSignal is everything the classifier needs to attribute a failure
// to one of the closed SwitchReason values (§4.9).
type FailureSignal struct {
	StatusCode      int
	Body            string
	TransportError  error
	IsTimeout       bool
	IsConnectFailed bool
	LatencyMs       *int64
	LatencyThresholdMs int64
}

// Classify derives a SwitchReason from an error surface, matching first on
// the timeout signal, then status code, then body phrasing, then the
// connect-failure signal, and last the measured latency.
func Classify(sig FailureSignal) constant.SwitchReason {
	body := strings.ToLower(sig.Body)

	if sig.IsTimeout {
		return constant.ReasonTimeout
	}

	switch sig.StatusCode {
	case 429:
		return constant.ReasonRateLimit
	case 401:
		return constant.ReasonAuthFailed
	case 402:
		return constant.ReasonInsufficientBalance
	}

	if strings.Contains(body, "rate limit") || strings.Contains(body, "quota exceeded") {
		if sig.StatusCode == 429 {
			return constant.ReasonRateLimit
		}
		return constant.ReasonQuotaExceeded
	}
	if strings.Contains(body, "invalid api key") || strings.Contains(body, "unauthorized") || strings.Contains(body, "authentication failed") {
		return constant.ReasonAuthFailed
	}
	if sig.StatusCode == 403 && (strings.Contains(body, "banned") || strings.Contains(body, "suspended") || strings.Contains(body, "disabled") || strings.Contains(body, "blocked") || strings.Contains(body, "account") || strings.Contains(body, "key")) {
		return constant.ReasonAccountBanned
	}
	if strings.Contains(body, "banned") || strings.Contains(body, "suspended") || strings.Contains(body, "disabled") || strings.Contains(body, "blocked") {
		return constant.ReasonAccountBanned
	}
	if strings.Contains(body, "余额不足") || strings.Contains(body, "insufficient balance") || strings.Contains(body, "insufficient credit") {
		return constant.ReasonInsufficientBalance
	}
	if sig.IsConnectFailed {
		return constant.ReasonConnectionFailed
	}
	if sig.LatencyMs != nil && sig.LatencyThresholdMs > 0 && *sig.LatencyMs > sig.LatencyThresholdMs {
		return constant.ReasonHighLatency
	}
	return constant.ReasonUnknown
}
