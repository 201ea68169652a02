// Package config defines the bootstrap configuration for the proxy server
// and the data model (ApiConfig, ConfigGroup) the request-path core reads
// through a narrow store interface. The core never touches a database
// directly; persistence is an external collaborator (see Store).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

// Config is the proxy process's own bootstrap configuration, loaded from a
// small YAML file. It governs the process itself (listener, timeouts,
// session GC, logging); the config/group pool lives behind Store.
type Config struct {
	// Port is the first loopback port the listener attempts to bind.
	Port int `yaml:"port"`
	// PortFallbackRange is how many subsequent ports are tried if Port is busy.
	PortFallbackRange int `yaml:"port-fallback-range"`
	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
	// RequestTimeoutMs bounds a single upstream round trip (see forwarder).
	RequestTimeoutMs int `yaml:"request-timeout-ms"`
	// StreamIdleTimeoutSecs bounds inactivity on a streaming upstream body.
	StreamIdleTimeoutSecs int `yaml:"stream-idle-timeout-secs"`
	// SessionMaxAgeSecs is the default bound cleanup_stale_sessions uses.
	SessionMaxAgeSecs int64 `yaml:"session-max-age-secs"`
	// LogDir is where the rotating request/event log is written.
	LogDir string `yaml:"log-dir"`
}

// LoadConfig reads a YAML configuration file from the given path and
// unmarshals it, filling in defaults for anything left zero.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 25341
	}
	if c.PortFallbackRange == 0 {
		c.PortFallbackRange = 9
	}
	if c.RequestTimeoutMs == 0 {
		c.RequestTimeoutMs = 120_000
	}
	if c.StreamIdleTimeoutSecs == 0 {
		c.StreamIdleTimeoutSecs = 60
	}
	if c.SessionMaxAgeSecs == 0 {
		c.SessionMaxAgeSecs = 6 * 3600
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
}

// ApiConfig is one upstream identity: a named credential pointing at a
// specific provider, plus the metrics and model overrides the forwarder,
// weight calculator and auto-switch controller read and write.
type ApiConfig struct {
	ID           int64              `json:"id" yaml:"id"`
	Name         string             `json:"name" yaml:"name"`
	APIKey       string             `json:"api_key" yaml:"api_key"`
	ServerURL    string             `json:"server_url" yaml:"server_url"`
	ProviderType constant.Format    `json:"provider_type" yaml:"provider_type"`
	GroupID      *int64             `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	SortOrder    int                `json:"sort_order" yaml:"sort_order"`
	IsAvailable  bool               `json:"is_available" yaml:"is_available"`
	IsEnabled    bool               `json:"is_enabled" yaml:"is_enabled"`
	WeightScore  float64            `json:"weight_score" yaml:"weight_score"`

	LastLatencyMs       *int64     `json:"last_latency_ms,omitempty" yaml:"last_latency_ms,omitempty"`
	LastTestAt          *int64     `json:"last_test_at,omitempty" yaml:"last_test_at,omitempty"`
	LastSuccessTime     *int64     `json:"last_success_time,omitempty" yaml:"last_success_time,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures" yaml:"consecutive_failures"`

	ModelOverrides ModelOverrides `json:"model_overrides" yaml:"model_overrides"`

	APITimeoutMs   *int64 `json:"api_timeout_ms,omitempty" yaml:"api_timeout_ms,omitempty"`
	MaxOutputTokens *int64 `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`

	LastBalance     *float64 `json:"last_balance,omitempty" yaml:"last_balance,omitempty"`
	BalanceCurrency string   `json:"balance_currency,omitempty" yaml:"balance_currency,omitempty"`
}

// ModelOverrides lets a config remap the logical model slots Claude CLI
// tooling requests (default/haiku/sonnet/opus/small-fast) to a concrete
// upstream model name.
type ModelOverrides struct {
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	Haiku    string `json:"haiku,omitempty" yaml:"haiku,omitempty"`
	Sonnet   string `json:"sonnet,omitempty" yaml:"sonnet,omitempty"`
	Opus     string `json:"opus,omitempty" yaml:"opus,omitempty"`
	SmallFast string `json:"small_fast,omitempty" yaml:"small_fast,omitempty"`
}

// Selectable reports whether this config participates in selection at all.
func (c *ApiConfig) Selectable() bool {
	return c != nil && c.IsEnabled && c.IsAvailable
}

// ConfigGroup is a selection domain: the policy knobs shared by every
// ApiConfig that names it as their group_id.
type ConfigGroup struct {
	ID                 int64 `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	AutoSwitchEnabled  bool  `json:"auto_switch_enabled" yaml:"auto_switch_enabled"`
	LatencyThresholdMs int64 `json:"latency_threshold_ms" yaml:"latency_threshold_ms"`
	RetryCount         int   `json:"retry_count" yaml:"retry_count"`
	RetryBaseDelayMs   int64 `json:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs    int64 `json:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
	RateLimitDelayMs   int64 `json:"rate_limit_delay_ms" yaml:"rate_limit_delay_ms"`
}

// SwitchEvent is the audit record produced whenever the auto-switch
// controller decides to rotate the active config, successful or not.
type SwitchEvent struct {
	SourceConfigID int64             `json:"source_config_id"`
	TargetConfigID *int64            `json:"target_config_id,omitempty"`
	GroupID        int64             `json:"group_id"`
	Reason         constant.SwitchReason `json:"reason"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	LatencyMs      *int64            `json:"latency_ms,omitempty"`
	At             int64             `json:"at"`
}

// Store is the persistence interface the core consumes. It is implemented
// externally (SQLite, in-memory, whatever); the core only ever calls
// through it and never assumes a storage engine.
type Store interface {
	GetConfig(id int64) (*ApiConfig, error)
	GetGroup(id int64) (*ConfigGroup, error)
	// ListEnabledAvailableInGroup returns selectable configs ordered by
	// (weight_score desc, sort_order asc).
	ListEnabledAvailableInGroup(groupID int64) ([]*ApiConfig, error)

	SetLatency(configID int64, ms int64) error
	SetAvailability(configID int64, available bool) error
	SetWeight(configID int64, weight float64) error
	IncFailure(configID int64) (int, error)
	ResetFailure(configID int64) error
	SetActive(configID int64) error

	AppendSwitchLog(SwitchEvent) error
}
