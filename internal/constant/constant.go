// Package constant holds the small set of closed-vocabulary string tags
// shared across the proxy core: wire formats, provider kinds and switch
// reasons. Keeping them as typed string constants (rather than scattering
// literals) is the same convention the translator registry uses to key its
// from/to maps.
package constant

// Format identifies a wire protocol understood by the proxy.
type Format string

const (
	Claude  Format = "claude"
	OpenAI  Format = "openai"
	Gemini  Format = "gemini"
	Unknown Format = "unknown"
)

// ProviderType identifies the upstream an ApiConfig talks to. It reuses the
// Format vocabulary since every provider kind the core knows about also
// has a native wire format.
type ProviderType = Format

// SwitchReason is the closed set of causes the auto-switch controller can
// attribute a failure to.
type SwitchReason string

const (
	ReasonTimeout             SwitchReason = "Timeout"
	ReasonConnectionFailed    SwitchReason = "ConnectionFailed"
	ReasonQuotaExceeded       SwitchReason = "QuotaExceeded"
	ReasonHighLatency         SwitchReason = "HighLatency"
	ReasonInsufficientBalance SwitchReason = "InsufficientBalance"
	ReasonAccountBanned       SwitchReason = "AccountBanned"
	ReasonAuthFailed          SwitchReason = "AuthFailed"
	ReasonRateLimit           SwitchReason = "RateLimit"
	ReasonUnknown             SwitchReason = "Unknown"
	// ReasonValidation tags a request rejected before it ever reaches an
	// upstream (S6); the auto-switch controller never sees it.
	ReasonValidation SwitchReason = "Validation"
)

// Recoverable reports whether a request through the same config may
// succeed again later, as opposed to the config needing to be benched.
func (r SwitchReason) Recoverable() bool {
	switch r {
	case ReasonAuthFailed, ReasonAccountBanned, ReasonInsufficientBalance, ReasonQuotaExceeded:
		return false
	default:
		return true
	}
}
