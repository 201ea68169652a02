// Package selector implements C9: pick the highest-scoring selectable
// config in a group, breaking ties on intra-group order.
package selector

import "github.com/llmproxy/claude-proxy-router/internal/config"

// Select returns the config with the highest WeightScore among candidates,
// breaking ties by the lower SortOrder (§4.8). Callers are expected to
// have already filtered to enabled-and-available configs (e.g. via
// Store.ListEnabledAvailableInGroup); Select re-checks Selectable defensively.
func Select(candidates []*config.ApiConfig) *config.ApiConfig {
	var best *config.ApiConfig
	for _, c := range candidates {
		if !c.Selectable() {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		if c.WeightScore > best.WeightScore {
			best = c
			continue
		}
		if c.WeightScore == best.WeightScore && c.SortOrder < best.SortOrder {
			best = c
		}
	}
	return best
}

// SelectExcluding behaves like Select but skips a given config id, used by
// the auto-switch controller when choosing a replacement for the config
// that just failed (§4.9).
func SelectExcluding(candidates []*config.ApiConfig, excludeID int64) *config.ApiConfig {
	filtered := make([]*config.ApiConfig, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == excludeID {
			continue
		}
		filtered = append(filtered, c)
	}
	return Select(filtered)
}
