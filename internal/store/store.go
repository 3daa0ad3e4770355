// Package store persists accepted guestbook messages.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thermalpress/guestbook-gateway/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotPending is returned when a moderation action targets a message that
// does not exist or is already approved.
var ErrNotPending = errors.New("store: no pending message with that id")

// MessageStore is the append-only log of accepted messages backed by GORM.
// Identifiers come from the primary key sequence, so they are strictly
// increasing in insertion order.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore constructs a MessageStore.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append durably records a sanitized message and returns its identifier.
// Once Append returns, the message survives process restart.
func (s *MessageStore) Append(ctx context.Context, cleanText, sourceHash string, submittedAt time.Time) (uint64, error) {
	row := models.Message{
		Message:     cleanText,
		SubmittedAt: submittedAt.UTC(),
		IPHash:      sourceHash,
	}
	if errCreate := s.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return 0, fmt.Errorf("store: append: %w", errCreate)
	}
	return row.ID, nil
}

// ListApprovedForGallery returns gallery-approved messages newest first.
// It returns an empty slice, never an error, when none are approved.
func (s *MessageStore) ListApprovedForGallery(ctx context.Context) ([]models.Message, error) {
	rows := []models.Message{}
	if errFind := s.db.WithContext(ctx).
		Where("gallery_approved = ?", true).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list approved: %w", errFind)
	}
	return rows, nil
}

// ListRecent returns the n most recently inserted messages, newest first.
// Administrative/debug use only.
func (s *MessageStore) ListRecent(ctx context.Context, n int) ([]models.Message, error) {
	if n <= 0 {
		return []models.Message{}, nil
	}
	rows := []models.Message{}
	if errFind := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(n).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list recent: %w", errFind)
	}
	return rows, nil
}

// ListPending returns messages awaiting moderation, oldest first.
func (s *MessageStore) ListPending(ctx context.Context) ([]models.Message, error) {
	rows := []models.Message{}
	if errFind := s.db.WithContext(ctx).
		Where("gallery_approved = ?", false).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list pending: %w", errFind)
	}
	return rows, nil
}

// GetPending fetches a single pending message by id.
func (s *MessageStore) GetPending(ctx context.Context, id uint64) (*models.Message, error) {
	var row models.Message
	errFind := s.db.WithContext(ctx).
		Where("id = ? AND gallery_approved = ?", id, false).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("store: get pending: %w", errFind)
	}
	return &row, nil
}

// Approve marks a pending message as gallery-approved with an optional
// moderator commentary. Approving an unknown or already-approved id returns
// ErrNotPending.
func (s *MessageStore) Approve(ctx context.Context, id uint64, commentary string) error {
	updates := map[string]any{"gallery_approved": true}
	commentary = strings.TrimSpace(commentary)
	if commentary != "" {
		updates["commentary"] = commentary
	}

	result := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND gallery_approved = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("store: approve: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

// RecordForwardError attaches the detail of a failed print attempt to a
// persisted message. Best effort: the caller already reported the sink
// failure, so a write error here is surfaced but not fatal to the request.
func (s *MessageStore) RecordForwardError(ctx context.Context, id uint64, detail datatypes.JSON) error {
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Update("forward_error", detail).Error; errUpdate != nil {
		return fmt.Errorf("store: record forward error: %w", errUpdate)
	}
	return nil
}
