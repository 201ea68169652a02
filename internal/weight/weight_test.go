package weight

import "testing"

func TestCalculateExcellentMetricsScoreNearOne(t *testing.T) {
	latency := int64(100)
	w := Calculate(Inputs{
		LastLatencyMs:       &latency,
		ConsecutiveFailures: 0,
		SortOrder:           0,
		TotalConfigsInGroup: 3,
	})
	if w < 0.95 {
		t.Fatalf("expected near-perfect score, got %f", w)
	}
}

func TestCalculatePoorMetricsScoreNearZero(t *testing.T) {
	latency := int64(5000)
	w := Calculate(Inputs{
		LastLatencyMs:       &latency,
		ConsecutiveFailures: 10,
		SortOrder:           2,
		TotalConfigsInGroup: 3,
	})
	if w > 0.05 {
		t.Fatalf("expected near-zero score, got %f", w)
	}
}

func TestCalculateUnknownLatencyAndBalanceUseMidpoint(t *testing.T) {
	w := Calculate(Inputs{
		ConsecutiveFailures: 0,
		SortOrder:           0,
		TotalConfigsInGroup: 1,
	})
	if w <= 0 || w >= 1 {
		t.Fatalf("expected a mid-range score, got %f", w)
	}
}

func TestCalculateClampsToUnitInterval(t *testing.T) {
	latency := int64(100)
	w := Calculate(Inputs{
		LastLatencyMs:       &latency,
		ConsecutiveFailures: 0,
		SortOrder:           0,
		TotalConfigsInGroup: 1,
	})
	if w < 0 || w > 1 {
		t.Fatalf("expected w in [0,1], got %f", w)
	}
}

func TestCalculateBalanceAwareWeighting(t *testing.T) {
	latency := int64(100)
	balance := 100.0
	withBalance := Calculate(Inputs{
		LastLatencyMs:       &latency,
		ConsecutiveFailures: 0,
		LastBalance:         &balance,
		BalanceCurrency:     "USD",
		AutoBalanceCheck:    true,
		SortOrder:           0,
		TotalConfigsInGroup: 1,
	})
	withoutBalance := Calculate(Inputs{
		LastLatencyMs:       &latency,
		ConsecutiveFailures: 0,
		SortOrder:           0,
		TotalConfigsInGroup: 1,
	})
	if withBalance <= 0 || withoutBalance <= 0 {
		t.Fatalf("expected both scores positive, got %f and %f", withBalance, withoutBalance)
	}
}

func TestCalculatePriorityScoreFavorsLowerSortOrder(t *testing.T) {
	latency := int64(100)
	first := Calculate(Inputs{LastLatencyMs: &latency, SortOrder: 0, TotalConfigsInGroup: 5})
	last := Calculate(Inputs{LastLatencyMs: &latency, SortOrder: 4, TotalConfigsInGroup: 5})
	if first <= last {
		t.Fatalf("expected lower sort order to score higher: first=%f last=%f", first, last)
	}
}
