// Package store provides a minimal in-memory implementation of
// config.Store, seeded from and hot-reloadable against a YAML pool file.
// It exists so cmd/proxyd can boot end to end without a real database:
// the core's contract with persistence is the narrow config.Store
// interface, and a CRUD/admin layer is expected to own the durable copy
// (see the SQLite-backed equivalent in a full deployment). This
// implementation keeps the same pool in memory, guarded by a
// sync.RWMutex, the same map-guarding idiom the teacher uses for its
// in-memory model registry.
package store

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/llmproxy/claude-proxy-router/internal/config"
)

// Pool is the YAML document shape a pool file is seeded from.
type Pool struct {
	Groups  []config.ConfigGroup `yaml:"groups"`
	Configs []config.ApiConfig   `yaml:"configs"`
}

// Store is a sync.RWMutex-guarded, in-memory config.Store implementation
// seeded from a YAML file on disk. It never writes the file back; a
// separate admin/CRUD surface owns durable mutation, and this store is
// refreshed from disk by Reload (normally driven by internal/watcher).
type Store struct {
	mu sync.RWMutex

	groups  map[int64]*config.ConfigGroup
	configs map[int64]*config.ApiConfig

	switchLog []config.SwitchEvent
}

// Load reads a YAML pool file and returns a freshly seeded Store.
func Load(path string) (*Store, error) {
	s := &Store{
		groups:  make(map[int64]*config.ConfigGroup),
		configs: make(map[int64]*config.ApiConfig),
	}
	if err := s.Reload(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the pool file and replaces the in-memory contents.
// Live metrics fields (latency, availability, weight, failure count) on
// configs that still exist after reload are preserved rather than reset,
// so a hot reload of the group/config roster does not erase state the
// auto-switch controller depends on for configs untouched by the edit.
func (s *Store) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config pool file: %w", err)
	}

	var pool Pool
	if err = yaml.Unmarshal(data, &pool); err != nil {
		return fmt.Errorf("failed to parse config pool file: %w", err)
	}

	newGroups := make(map[int64]*config.ConfigGroup, len(pool.Groups))
	for i := range pool.Groups {
		g := pool.Groups[i]
		newGroups[g.ID] = &g
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newConfigs := make(map[int64]*config.ApiConfig, len(pool.Configs))
	for i := range pool.Configs {
		c := pool.Configs[i]
		if prev, ok := s.configs[c.ID]; ok {
			c.IsAvailable = prev.IsAvailable
			c.WeightScore = prev.WeightScore
			c.LastLatencyMs = prev.LastLatencyMs
			c.LastTestAt = prev.LastTestAt
			c.LastSuccessTime = prev.LastSuccessTime
			c.ConsecutiveFailures = prev.ConsecutiveFailures
		}
		newConfigs[c.ID] = &c
	}

	s.groups = newGroups
	s.configs = newConfigs
	return nil
}

var errNotFound = fmt.Errorf("not found")

// ErrNotFound is returned by lookups that miss.
func ErrNotFound() error { return errNotFound }

// Bootstrap picks the config the process should start with as its default
// active config: the lowest-id selectable config in the pool. It is used
// once at startup to seed internal/activeconfig.Cell before any request or
// auto-switch decision has run.
func (s *Store) Bootstrap() (*config.ApiConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *config.ApiConfig
	for _, c := range s.configs {
		if !c.Selectable() {
			continue
		}
		if best == nil || c.ID < best.ID {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no selectable config in pool")
	}
	cp := *best
	return &cp, nil
}

func (s *Store) GetConfig(id int64) (*config.ApiConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) GetGroup(id int64) (*config.ConfigGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *g
	return &cp, nil
}

// ListEnabledAvailableInGroup returns selectable configs in the group
// ordered by (weight_score desc, sort_order asc).
func (s *Store) ListEnabledAvailableInGroup(groupID int64) ([]*config.ApiConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*config.ApiConfig, 0)
	for _, c := range s.configs {
		if c.GroupID == nil || *c.GroupID != groupID {
			continue
		}
		if !c.Selectable() {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			swap := a.WeightScore < b.WeightScore
			if a.WeightScore == b.WeightScore {
				swap = a.SortOrder > b.SortOrder
			}
			if !swap {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

func (s *Store) SetLatency(configID int64, ms int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[configID]
	if !ok {
		return errNotFound
	}
	c.LastLatencyMs = &ms
	now := time.Now().Unix()
	c.LastTestAt = &now
	return nil
}

func (s *Store) SetAvailability(configID int64, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[configID]
	if !ok {
		return errNotFound
	}
	c.IsAvailable = available
	return nil
}

func (s *Store) SetWeight(configID int64, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[configID]
	if !ok {
		return errNotFound
	}
	c.WeightScore = weight
	return nil
}

func (s *Store) IncFailure(configID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[configID]
	if !ok {
		return 0, errNotFound
	}
	c.ConsecutiveFailures++
	return c.ConsecutiveFailures, nil
}

func (s *Store) ResetFailure(configID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[configID]
	if !ok {
		return errNotFound
	}
	c.ConsecutiveFailures = 0
	now := time.Now().Unix()
	c.LastSuccessTime = &now
	return nil
}

func (s *Store) SetActive(configID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[configID]; !ok {
		return errNotFound
	}
	return nil
}

func (s *Store) AppendSwitchLog(evt config.SwitchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchLog = append(s.switchLog, evt)
	if len(s.switchLog) > 1000 {
		s.switchLog = s.switchLog[len(s.switchLog)-1000:]
	}
	return nil
}

// SwitchLog returns a snapshot of the recorded switch events, most recent last.
func (s *Store) SwitchLog() []config.SwitchEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]config.SwitchEvent, len(s.switchLog))
	copy(out, s.switchLog)
	return out
}
