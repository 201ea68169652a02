package router

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// claudeErrorType maps a SwitchReason onto a Claude error envelope's
// error.type (§4.12).
func claudeErrorType(reason constant.SwitchReason) string {
	switch reason {
	case constant.ReasonAuthFailed, constant.ReasonAccountBanned, constant.ReasonInsufficientBalance:
		return "authentication_error"
	case constant.ReasonQuotaExceeded, constant.ReasonRateLimit:
		return "rate_limit_error"
	case constant.ReasonValidation:
		return "invalid_request_error"
	default:
		return "api_error"
	}
}

// openAIErrorType maps a SwitchReason onto an OpenAI error envelope's
// error.type (§4.12).
func openAIErrorType(reason constant.SwitchReason) string {
	switch reason {
	case constant.ReasonAuthFailed, constant.ReasonAccountBanned, constant.ReasonInsufficientBalance:
		return "invalid_api_key"
	case constant.ReasonQuotaExceeded, constant.ReasonRateLimit:
		return "rate_limit_exceeded"
	case constant.ReasonValidation:
		return "invalid_request_error"
	default:
		return "server_error"
	}
}

// statusForReason picks the HTTP status the envelope is served under when
// the upstream did not supply one (e.g. a connection failure).
func statusForReason(reason constant.SwitchReason) int {
	switch reason {
	case constant.ReasonAuthFailed:
		return 401
	case constant.ReasonAccountBanned, constant.ReasonInsufficientBalance:
		return 403
	case constant.ReasonQuotaExceeded, constant.ReasonRateLimit:
		return 429
	case constant.ReasonTimeout:
		return 504
	case constant.ReasonValidation:
		return 400
	default:
		return 502
	}
}

// writeError synthesizes and writes the client-format error envelope
// (§4.12). Gemini clients receive the Claude-shaped envelope, per the
// spec's "Gemini errors in this release are returned in Claude shape".
func writeError(c *gin.Context, clientFormat constant.Format, status int, reason constant.SwitchReason, message string) {
	if status == 0 {
		status = statusForReason(reason)
	}
	if clientFormat == constant.OpenAI {
		c.JSON(status, gin.H{
			"error": gin.H{
				"message": message,
				"type":    openAIErrorType(reason),
				"code":    string(reason),
			},
		})
		return
	}
	c.JSON(status, gin.H{
		"type": "error",
		"error": gin.H{
			"type":    claudeErrorType(reason),
			"message": message,
		},
	})
}

// writeStreamError builds and returns, for the caller to write, the
// in-band SSE error frame a broken mid-stream upstream connection produces
// instead of truncating the client's stream silently (§4.4.6, §9: "no fallible stream item"). Gemini clients, like
// errored non-stream responses, receive the Claude-shaped frame.
func writeStreamError(c *gin.Context, clientFormat constant.Format, reason constant.SwitchReason, message string) string {
	if clientFormat == constant.OpenAI {
		payload := fmt.Sprintf(`{"error":{"message":%q,"type":%q,"code":%q}}`, message, openAIErrorType(reason), string(reason))
		return "data: " + payload + "\n\n"
	}
	payload := fmt.Sprintf(`{"type":"error","error":{"type":%q,"message":%q}}`, claudeErrorType(reason), message)
	return "event: error\ndata: " + payload + "\n\n"
}
