// Package weight implements the pure multi-factor scoring function (C8,
// §4.7). The four sub-scores and their combination weights are taken
// verbatim from original_source's services/weight_calculator.rs.
package weight

import "math"

const (
	latencyExcellentMs = 200.0
	latencyPoorMs      = 2000.0
	maxConsecutiveFail = 5.0
	balanceExcellent   = 50.0
	balancePoor        = 1.0
)

// Inputs bundles one config's metrics plus its position in the group, the
// inputs §4.7 specifies the calculator over.
type Inputs struct {
	LastLatencyMs       *int64
	ConsecutiveFailures int
	LastBalance         *float64
	BalanceCurrency     string
	SortOrder           int
	TotalConfigsInGroup int
	AutoBalanceCheck    bool
}

func latencyScore(latencyMs *int64) float64 {
	if latencyMs == nil {
		return 50
	}
	l := float64(*latencyMs)
	if l <= latencyExcellentMs {
		return 100
	}
	if l >= latencyPoorMs {
		return 0
	}
	rangeMs := latencyPoorMs - latencyExcellentMs
	position := l - latencyExcellentMs
	return 100 * (1 - position/rangeMs)
}

func successScore(consecutiveFailures int) float64 {
	if consecutiveFailures <= 0 {
		return 100
	}
	if float64(consecutiveFailures) >= maxConsecutiveFail {
		return 0
	}
	return 100 * (1 - float64(consecutiveFailures)/maxConsecutiveFail)
}

// normalizeToUSD converts a balance in the given currency code to USD
// using the fixed rates §4.7 specifies; unrecognized currencies pass
// through unchanged.
func normalizeToUSD(balance float64, currency string) float64 {
	switch currency {
	case "CNY":
		return balance / 7.2
	case "EUR":
		return balance * 1.08
	case "GBP":
		return balance * 1.27
	case "JPY":
		return balance / 150
	default:
		return balance
	}
}

func balanceScore(balance *float64, currency string) float64 {
	if balance == nil {
		return 50
	}
	usd := normalizeToUSD(*balance, currency)
	if usd >= balanceExcellent {
		return 100
	}
	if usd <= balancePoor {
		return 0
	}
	logBalance := math.Log(usd + 1)
	logExcellent := math.Log(balanceExcellent + 1)
	logPoor := math.Log(balancePoor + 1)
	return 100 * (logBalance - logPoor) / (logExcellent - logPoor)
}

func priorityScore(sortOrder, total int) float64 {
	if total <= 1 {
		return 100
	}
	maxOrder := total - 1
	if sortOrder <= 0 {
		return 100
	}
	if sortOrder >= maxOrder {
		return 0
	}
	return 100 * (1 - float64(sortOrder)/float64(maxOrder))
}

// Calculate combines the four sub-scores into W in [0,1], per §4.7's
// weighted-sum formula (balance-aware weights when a balance is known and
// auto-balance-check is enabled, latency/success/priority-only otherwise).
func Calculate(in Inputs) float64 {
	lat := latencyScore(in.LastLatencyMs)
	succ := successScore(in.ConsecutiveFailures)
	prio := priorityScore(in.SortOrder, in.TotalConfigsInGroup)

	var w float64
	if in.LastBalance != nil && in.AutoBalanceCheck {
		bal := balanceScore(in.LastBalance, in.BalanceCurrency)
		w = 0.30*lat + 0.30*succ + 0.25*bal + 0.15*prio
	} else {
		w = 0.40*lat + 0.40*succ + 0.20*prio
	}

	w /= 100
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
