package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

func emptySwitchEvent() config.SwitchEvent {
	return config.SwitchEvent{SourceConfigID: 10, GroupID: 1, Reason: constant.ReasonTimeout}
}

const samplePool = `
groups:
  - id: 1
    name: default
    auto_switch_enabled: true
    latency_threshold_ms: 3000
    retry_count: 2
configs:
  - id: 10
    name: primary
    server_url: https://api.example.com
    provider_type: claude
    group_id: 1
    sort_order: 0
    is_enabled: true
    is_available: true
    weight_score: 0.9
  - id: 20
    name: backup
    server_url: https://backup.example.com
    provider_type: claude
    group_id: 1
    sort_order: 1
    is_enabled: true
    is_available: true
    weight_score: 0.4
`

func writeTempPool(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write temp pool file: %v", err)
	}
	return path
}

func TestLoadSeedsConfigsAndGroups(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := s.GetConfig(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "primary" {
		t.Fatalf("expected primary, got %q", cfg.Name)
	}
	if _, err := s.GetGroup(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetConfigMissingReturnsErrNotFound(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)
	if _, err := s.GetConfig(999); err != ErrNotFound() {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEnabledAvailableInGroupOrdersByWeightThenSortOrder(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)
	list, err := s.ListEnabledAvailableInGroup(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 10 || list[1].ID != 20 {
		t.Fatalf("expected [10, 20] ordered by weight desc, got %+v", list)
	}
}

func TestBootstrapPicksLowestIDSelectable(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)
	cfg, err := s.Bootstrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ID != 10 {
		t.Fatalf("expected bootstrap config 10, got %d", cfg.ID)
	}
}

func TestReloadPreservesLiveMetricFields(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)

	if err := s.SetLatency(10, 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetAvailability(10, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.IncFailure(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Reload(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := s.GetConfig(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsAvailable {
		t.Fatal("expected IsAvailable=false to survive reload")
	}
	if cfg.LastLatencyMs == nil || *cfg.LastLatencyMs != 250 {
		t.Fatalf("expected latency 250ms to survive reload, got %+v", cfg.LastLatencyMs)
	}
	if cfg.ConsecutiveFailures != 1 {
		t.Fatalf("expected failure count 1 to survive reload, got %d", cfg.ConsecutiveFailures)
	}
}

func TestIncFailureAndResetFailure(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)

	count, err := s.IncFailure(10)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d, err %v", count, err)
	}
	count, _ = s.IncFailure(10)
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if err := s.ResetFailure(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _ := s.GetConfig(10)
	if cfg.ConsecutiveFailures != 0 {
		t.Fatalf("expected reset to 0, got %d", cfg.ConsecutiveFailures)
	}
}

func TestAppendSwitchLogCapsAtThousandEntries(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)

	for i := 0; i < 1005; i++ {
		if err := s.AppendSwitchLog(emptySwitchEvent()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := len(s.SwitchLog()); got != 1000 {
		t.Fatalf("expected switch log capped at 1000, got %d", got)
	}
}

func TestSetActiveRejectsUnknownConfig(t *testing.T) {
	path := writeTempPool(t, samplePool)
	s, _ := Load(path)
	if err := s.SetActive(999); err != ErrNotFound() {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetActive(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
