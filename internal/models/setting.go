package models

import (
	"encoding/json"
	"time"
)

// Setting is a key/value row for runtime-tunable configuration, currently
// only the daily acceptance limit override.
type Setting struct {
	Key       string          `gorm:"type:varchar(255);primaryKey"`                      // Configuration key.
	Value     json.RawMessage `gorm:"type:jsonb"`                                        // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}
