package autoswitch

import (
	"fmt"
	"sync"

	"github.com/llmproxy/claude-proxy-router/internal/config"
	"github.com/llmproxy/claude-proxy-router/internal/constant"
	"github.com/llmproxy/claude-proxy-router/internal/selector"
)

// Outcome discriminates what the caller should do after a failed request
// has been run through HandleFailureWithRetry (§4.9).
type Outcome int

const (
	// RetryCurrent means the caller should retry the same config (either
	// the failure was recoverable and under threshold, or no replacement
	// exists and the caller has no better option).
	RetryCurrent Outcome = iota
	// SwitchedTo means the controller rotated the active config; Decision.NewConfigID
	// names the replacement, which subsequent requests are sent to.
	SwitchedTo
	// Exhausted means the config was marked unavailable and no replacement
	// could be selected; the caller must surface an error upstream.
	Exhausted
)

// Decision is the result of HandleFailureWithRetry.
type Decision struct {
	Outcome      Outcome
	NewConfigID  int64
	Reason       constant.SwitchReason
}

// Controller runs the retry/switch decision procedure and keeps an
// in-memory mirror of each config's consecutive-failure count so
// decisions do not require a store round trip on the hot path. Failure
// increments and resets go through the persistence interface and then
// update the mirror; the one exception is a newly selected replacement,
// whose mirror entry is zeroed without a store write.
type Controller struct {
	mu       sync.Mutex
	counters map[int64]int
	store    config.Store
}

// New constructs a Controller backed by the given store.
func New(store config.Store) *Controller {
	return &Controller{
		counters: make(map[int64]int),
		store:    store,
	}
}

// OnSuccess resets both the persisted and in-memory failure counters for
// a config that just completed a request successfully.
func (c *Controller) OnSuccess(configID int64) error {
	c.mu.Lock()
	c.counters[configID] = 0
	c.mu.Unlock()
	return c.store.ResetFailure(configID)
}

// HandleFailureWithRetry runs the four-step procedure from §4.9: bump the
// failure counter, then either bench and replace (non-recoverable reasons,
// or a recoverable reason that has exhausted the group's retry budget) or
// ask the caller to retry the same config.
func (c *Controller) HandleFailureWithRetry(configID int64, reason constant.SwitchReason, latencyMs *int64) (Decision, error) {
	cfg, err := c.store.GetConfig(configID)
	if err != nil {
		return Decision{}, fmt.Errorf("autoswitch: load config %d: %w", configID, err)
	}
	if cfg.GroupID == nil {
		return Decision{Outcome: RetryCurrent, Reason: reason}, c.bumpFailure(configID)
	}
	groupID := *cfg.GroupID

	group, err := c.store.GetGroup(groupID)
	if err != nil {
		return Decision{}, fmt.Errorf("autoswitch: load group %d: %w", groupID, err)
	}

	count, err := c.incFailure(configID)
	if err != nil {
		return Decision{}, err
	}

	if !group.AutoSwitchEnabled {
		return Decision{Outcome: RetryCurrent, Reason: reason}, nil
	}

	if !reason.Recoverable() {
		return c.benchAndReplace(configID, groupID, reason, latencyMs)
	}

	if count >= group.RetryCount {
		d, err := c.benchAndReplace(configID, groupID, reason, latencyMs)
		if err == nil && d.Outcome == Exhausted {
			d.Outcome = RetryCurrent
		}
		return d, err
	}

	return Decision{Outcome: RetryCurrent, Reason: reason}, nil
}

func (c *Controller) incFailure(configID int64) (int, error) {
	count, err := c.store.IncFailure(configID)
	if err != nil {
		return 0, fmt.Errorf("autoswitch: inc failure for %d: %w", configID, err)
	}
	c.mu.Lock()
	c.counters[configID] = count
	c.mu.Unlock()
	return count, nil
}

func (c *Controller) bumpFailure(configID int64) error {
	_, err := c.incFailure(configID)
	return err
}

// benchAndReplace marks configID unavailable, selects a replacement from
// the same group excluding configID, and either switches to it or reports
// exhaustion. On either path it emits a SwitchEvent (§4.9 step 4).
func (c *Controller) benchAndReplace(configID, groupID int64, reason constant.SwitchReason, latencyMs *int64) (Decision, error) {
	if err := c.store.SetAvailability(configID, false); err != nil {
		return Decision{}, fmt.Errorf("autoswitch: mark %d unavailable: %w", configID, err)
	}

	candidates, err := c.store.ListEnabledAvailableInGroup(groupID)
	if err != nil {
		return Decision{}, fmt.Errorf("autoswitch: list group %d: %w", groupID, err)
	}
	replacement := selector.SelectExcluding(candidates, configID)

	event := config.SwitchEvent{
		SourceConfigID: configID,
		GroupID:        groupID,
		Reason:         reason,
		LatencyMs:      latencyMs,
	}

	if replacement == nil {
		event.ErrorMessage = "no available replacement in group"
		if logErr := c.store.AppendSwitchLog(event); logErr != nil {
			return Decision{}, fmt.Errorf("autoswitch: append switch log: %w", logErr)
		}
		return Decision{Outcome: Exhausted, Reason: reason}, nil
	}

	if err := c.store.SetActive(replacement.ID); err != nil {
		return Decision{}, fmt.Errorf("autoswitch: set active %d: %w", replacement.ID, err)
	}
	event.TargetConfigID = &replacement.ID
	if err := c.store.AppendSwitchLog(event); err != nil {
		return Decision{}, fmt.Errorf("autoswitch: append switch log: %w", err)
	}

	c.mu.Lock()
	c.counters[replacement.ID] = 0
	c.mu.Unlock()

	return Decision{Outcome: SwitchedTo, NewConfigID: replacement.ID, Reason: reason}, nil
}
