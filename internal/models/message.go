package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message is one accepted guestbook submission. Rows are append-only:
// the intake pipeline inserts them and only moderation flips the gallery
// fields afterwards.
type Message struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key, insertion order.

	Message     string    `gorm:"type:text;not null"` // Sanitized text as persisted and forwarded.
	SubmittedAt time.Time `gorm:"not null;index"`     // Acceptance timestamp (UTC).
	IPHash      string    `gorm:"type:text;not null"` // Truncated SHA-256 of the source address.

	GalleryApproved bool    `gorm:"not null;default:false;index"` // Set by moderation only.
	Commentary      *string `gorm:"type:text"`                    // Optional moderator note.

	ForwardError datatypes.JSON `gorm:"type:jsonb"` // Detail of the last failed print attempt, if any.
}
