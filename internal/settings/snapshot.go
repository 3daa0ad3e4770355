// Package settings keeps an in-memory snapshot of DB-backed runtime
// overrides. The only override today is the global daily acceptance limit;
// the env/config value stands when no row is present.
package settings

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DailyLimitKey is the settings row key for the daily limit override.
const DailyLimitKey = "DAILY_LIMIT"

// snapshot holds the in-memory settings values.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

// globalSnapshot stores the latest snapshot atomically.
var globalSnapshot atomic.Value // stores snapshot

// init seeds the global snapshot.
func init() {
	globalSnapshot.Store(snapshot{values: map[string]json.RawMessage{}})
}

// Store replaces the in-memory snapshot of DB-backed settings.
func Store(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v == nil {
			next[key] = nil
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}

	globalSnapshot.Store(snapshot{
		updatedAt: updatedAt.UTC(),
		values:    next,
	})
}

// UpdatedAt returns the last update timestamp for the snapshot.
func UpdatedAt() time.Time {
	return load().updatedAt
}

// Value returns a copy of the raw value for a key.
func Value(key string) (json.RawMessage, bool) {
	cfg := load()
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	val, ok := cfg.values[key]
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// DailyLimit returns the effective global daily limit: the override when a
// valid positive one is stored, otherwise fallback.
func DailyLimit(fallback int) int {
	raw, ok := Value(DailyLimitKey)
	if !ok || len(raw) == 0 {
		return fallback
	}

	var limit int
	if errUnmarshal := json.Unmarshal(raw, &limit); errUnmarshal != nil {
		// Tolerate a quoted number, e.g. "30".
		var s string
		if errString := json.Unmarshal(raw, &s); errString != nil {
			return fallback
		}
		parsed, errParse := strconv.Atoi(strings.TrimSpace(s))
		if errParse != nil {
			return fallback
		}
		limit = parsed
	}
	if limit <= 0 {
		return fallback
	}
	return limit
}

// load returns the current snapshot with safe defaults.
func load() snapshot {
	v := globalSnapshot.Load()
	cfg, ok := v.(snapshot)
	if !ok {
		return snapshot{values: map[string]json.RawMessage{}}
	}
	if cfg.values == nil {
		return snapshot{updatedAt: cfg.updatedAt, values: map[string]json.RawMessage{}}
	}
	return cfg
}
