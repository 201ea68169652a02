// Package modelmap is a pure table of Claude<->OpenAI model-name
// equivalence plus per-model capability metadata. It is data, not logic:
// new entries are added to the table below, never by branching code,
// mirroring the static model lists in the teacher's registry package
// (registry/model_definitions.go) and the normalization rules sketched in
// original_source's converters/model_mapper.rs.
package modelmap

import "strings"

// Capability describes what the proxy knows about one logical model.
type Capability struct {
	ContextWindow int
	MaxOutput     int
	Family        string // "opus", "sonnet", "haiku", "gpt", ...
}

// Entry is one row of the equivalence table.
type Entry struct {
	Claude string
	OpenAI string
	Cap    Capability
}

// table is the forward equivalence list. Reverse lookups are built once
// from this at package init.
var table = []Entry{
	{Claude: "claude-opus-4-1-20250805", OpenAI: "gpt-4.1", Cap: Capability{ContextWindow: 200_000, MaxOutput: 32_000, Family: "opus"}},
	{Claude: "claude-opus-4-20250514", OpenAI: "gpt-4.1", Cap: Capability{ContextWindow: 200_000, MaxOutput: 32_000, Family: "opus"}},
	{Claude: "claude-sonnet-4-20250514", OpenAI: "gpt-4o", Cap: Capability{ContextWindow: 200_000, MaxOutput: 64_000, Family: "sonnet"}},
	{Claude: "claude-3-7-sonnet-20250219", OpenAI: "gpt-4o", Cap: Capability{ContextWindow: 200_000, MaxOutput: 64_000, Family: "sonnet"}},
	{Claude: "claude-3-5-haiku-20241022", OpenAI: "gpt-4o-mini", Cap: Capability{ContextWindow: 200_000, MaxOutput: 8_192, Family: "haiku"}},
}

// defaultFallback is the model used when a family has no table entry at all.
var defaultFallback = map[string]string{
	"opus":   "claude-opus-4-1-20250805",
	"sonnet": "claude-sonnet-4-20250514",
	"haiku":  "claude-3-5-haiku-20241022",
}

var (
	claudeToOpenAI map[string]string
	openAIToClaude map[string]string
	capByClaude    map[string]Capability
)

func init() {
	claudeToOpenAI = make(map[string]string, len(table))
	openAIToClaude = make(map[string]string, len(table))
	capByClaude = make(map[string]Capability, len(table))
	for _, e := range table {
		claudeToOpenAI[e.Claude] = e.OpenAI
		// First writer wins on the reverse map so the canonical Claude
		// model for a shared OpenAI alias stays the first table row.
		if _, ok := openAIToClaude[e.OpenAI]; !ok {
			openAIToClaude[e.OpenAI] = e.Claude
		}
		capByClaude[e.Claude] = e.Cap
	}
}

// normalizeClaude strips the "-latest" suffix Anthropic model names
// sometimes carry, e.g. "claude-opus-4-latest" -> "claude-opus-4".
func normalizeClaude(model string) string {
	return strings.TrimSuffix(model, "-latest")
}

// normalizeOpenAI strips a trailing "-YYYY-MM-DD" date suffix or a known
// marketing suffix, so "gpt-4o-2024-08-06" and "gpt-4o-mini-high" both
// resolve against the base table entries.
func normalizeOpenAI(model string) string {
	parts := strings.Split(model, "-")
	if len(parts) >= 3 {
		last3 := strings.Join(parts[len(parts)-3:], "-")
		if isDateSuffix(last3) {
			return strings.Join(parts[:len(parts)-3], "-")
		}
	}
	for _, suffix := range []string{"-high", "-mini-high", "-preview"} {
		if strings.HasSuffix(model, suffix) {
			return strings.TrimSuffix(model, suffix)
		}
	}
	return model
}

func isDateSuffix(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	for i, p := range parts {
		want := 2
		if i == 0 {
			want = 4
		}
		if len(p) != want {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// ToOpenAI maps a Claude model name to its OpenAI equivalent. If no entry
// exists the source model name is passed through unchanged (§4.3).
func ToOpenAI(claudeModel string) string {
	if m, ok := claudeToOpenAI[normalizeClaude(claudeModel)]; ok {
		return m
	}
	return claudeModel
}

// ToClaude maps an OpenAI model name to its Claude equivalent, passing the
// source through when unknown.
func ToClaude(openAIModel string) string {
	if m, ok := openAIToClaude[normalizeOpenAI(openAIModel)]; ok {
		return m
	}
	return openAIModel
}

// CapabilityFor returns the known capability metadata for a Claude model
// name, or the zero value and false if the model isn't in the table.
func CapabilityFor(claudeModel string) (Capability, bool) {
	c, ok := capByClaude[normalizeClaude(claudeModel)]
	return c, ok
}

// DefaultFallback returns the default model for a capability family
// ("opus", "sonnet", "haiku"), or "" if the family is unrecognized.
func DefaultFallback(family string) string {
	return defaultFallback[family]
}
