// Package session implements the process-wide session->config binding
// table (C7, §4.6). It is the hot-path reader/writer lock the design notes
// call out explicitly: fine-grained sync.RWMutex over a plain map, entries
// copied out so no borrow escapes the lock, grounded on the same
// sync.RWMutex-guarded-map idiom the teacher uses for its model registry
// (internal/registry/model_registry.go).
package session

import (
	"sync"
	"time"
)

// Binding is one session_id -> config_id pinning, copied out of the table
// on every read so callers never hold a reference into locked state.
type Binding struct {
	SessionID   string
	ConfigID    int64
	Name        string
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// Table is the thread-safe binding map described in §4.6.
type Table struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
	now      func() time.Time
}

// NewTable constructs an empty binding table.
func NewTable() *Table {
	return &Table{
		bindings: make(map[string]*Binding),
		now:      time.Now,
	}
}

// Register inserts or replaces the binding for sessionID, setting both
// timestamps to now.
func (t *Table) Register(sessionID string, configID int64, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.bindings[sessionID] = &Binding{
		SessionID:  sessionID,
		ConfigID:   configID,
		Name:       name,
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

// Switch updates the config pinned to sessionID, returning whether the
// session existed.
func (t *Table) Switch(sessionID string, newConfigID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bindings[sessionID]
	if !ok {
		return false
	}
	b.ConfigID = newConfigID
	b.LastUsedAt = t.now()
	return true
}

// GetEntry returns a copy of the binding for sessionID, if any.
func (t *Table) GetEntry(sessionID string) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[sessionID]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// ListSessions returns a copy of every binding currently held.
func (t *Table) ListSessions() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, *b)
	}
	return out
}

// SessionCount reports how many bindings are held.
func (t *Table) SessionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}

// Remove deletes the binding for sessionID, if present.
func (t *Table) Remove(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, sessionID)
}

// CleanupStaleSessions removes every binding whose LastUsedAt is older
// than maxAge, returning how many were removed.
func (t *Table) CleanupStaleSessions(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-maxAge)
	removed := 0
	for id, b := range t.bindings {
		if b.LastUsedAt.Before(cutoff) {
			delete(t.bindings, id)
			removed++
		}
	}
	return removed
}

// Clear removes every binding.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = make(map[string]*Binding)
}
