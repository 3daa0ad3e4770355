// Package quota enforces the per-source and global acceptance limits for
// the intake pipeline. All state is in-memory and process-lifetime: a
// restart clears it, which is the documented operator escape hatch.
package quota

import (
	"fmt"
	"sync"
	"time"
)

// Limit scopes reported by LimitError.
const (
	// ScopePerSource marks a rejection by the per-source sliding window.
	ScopePerSource = "per_source"
	// ScopeGlobal marks a rejection by the global daily counter.
	ScopeGlobal = "global"
)

// Defaults for the tracker limits.
const (
	// DefaultPerSourceLimit is the max accepted submissions per source
	// within the sliding window.
	DefaultPerSourceLimit = 3
	// DefaultWindow is the per-source sliding window length.
	DefaultWindow = time.Hour
	// DefaultDailyLimit is the max accepted submissions across all sources
	// per UTC day.
	DefaultDailyLimit = 30
)

// LimitError reports which limit rejected a submission.
type LimitError struct {
	Scope string
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("quota: %s limit exceeded", e.Scope)
}

// DailyLimitProvider supplies the effective global daily limit at check
// time, so a runtime override can take effect without restarting.
type DailyLimitProvider func() int

// Tracker holds the volatile quota state. The single mutex covers both the
// per-source window and the daily counter so check-and-reserve is atomic:
// two concurrent submissions can never both claim the last slot.
type Tracker struct {
	mu sync.Mutex

	perSourceLimit int
	window         time.Duration
	dailyLimit     DailyLimitProvider

	acceptedAt map[string][]time.Time
	day        string // UTC date marker for the daily counter, "2006-01-02".
	dayCount   int
}

// NewTracker constructs a Tracker. dailyLimit may be nil, in which case
// DefaultDailyLimit applies.
func NewTracker(perSourceLimit int, window time.Duration, dailyLimit DailyLimitProvider) *Tracker {
	if perSourceLimit <= 0 {
		perSourceLimit = DefaultPerSourceLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if dailyLimit == nil {
		dailyLimit = func() int { return DefaultDailyLimit }
	}
	return &Tracker{
		perSourceLimit: perSourceLimit,
		window:         window,
		dailyLimit:     dailyLimit,
		acceptedAt:     map[string][]time.Time{},
	}
}

// TryAccept reserves a quota slot for sourceID at time now, or returns a
// *LimitError naming the exceeded scope. The per-source window is evaluated
// first: a source over its own limit must not consume global budget. Both
// checks and the reservation happen under one lock.
func (t *Tracker) TryAccept(sourceID string, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.pruneLocked(sourceID, now)
	if len(recent) >= t.perSourceLimit {
		return &LimitError{Scope: ScopePerSource}
	}

	t.rolloverLocked(now)
	limit := t.dailyLimit()
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if t.dayCount >= limit {
		return &LimitError{Scope: ScopeGlobal}
	}

	t.acceptedAt[sourceID] = append(recent, now)
	t.dayCount++
	return nil
}

// Remaining reports how many per-source slots sourceID still has at time
// now. It prunes expired timestamps but never consumes a slot.
func (t *Tracker) Remaining(sourceID string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.pruneLocked(sourceID, now)
	remaining := t.perSourceLimit - len(recent)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AcceptedToday reports the global counter for the UTC day of now.
func (t *Tracker) AcceptedToday(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked(now)
	return t.dayCount
}

// pruneLocked discards timestamps for sourceID older than now minus the
// window and returns the surviving slice. Empty entries are deleted so the
// map does not grow without bound across sources.
func (t *Tracker) pruneLocked(sourceID string, now time.Time) []time.Time {
	cutoff := now.Add(-t.window)
	recorded := t.acceptedAt[sourceID]
	recent := recorded[:0]
	for _, ts := range recorded {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) == 0 {
		delete(t.acceptedAt, sourceID)
		return nil
	}
	t.acceptedAt[sourceID] = recent
	return recent
}

// rolloverLocked resets the daily counter when the UTC date of now differs
// from the stored day marker.
func (t *Tracker) rolloverLocked(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if day != t.day {
		t.day = day
		t.dayCount = 0
	}
}
