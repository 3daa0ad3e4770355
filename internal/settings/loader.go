package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thermalpress/guestbook-gateway/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshSnapshot reloads all settings rows from the database and replaces
// the in-memory snapshot.
//
// Required at process startup; otherwise DailyLimit() falls back to the
// configured default until an operator updates the override (which triggers
// a refresh).
func RefreshSnapshot(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return errFind
	}

	values := make(map[string]json.RawMessage, len(rows))
	maxUpdatedAt := time.Time{}
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		values[key] = row.Value
		if rowUpdatedAt := row.UpdatedAt.UTC(); rowUpdatedAt.After(maxUpdatedAt) {
			maxUpdatedAt = rowUpdatedAt
		}
	}

	Store(maxUpdatedAt, values)
	return nil
}

// SetDailyLimitOverride upserts the daily limit override row and refreshes
// the snapshot.
func SetDailyLimitOverride(ctx context.Context, db *gorm.DB, limit int) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if limit <= 0 {
		return fmt.Errorf("settings: daily limit must be positive, got %d", limit)
	}

	value, errMarshal := json.Marshal(limit)
	if errMarshal != nil {
		return fmt.Errorf("settings: encode daily limit: %w", errMarshal)
	}
	row := models.Setting{Key: DailyLimitKey, Value: value, UpdatedAt: time.Now().UTC()}
	if errUpsert := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error; errUpsert != nil {
		return fmt.Errorf("settings: set daily limit: %w", errUpsert)
	}

	return RefreshSnapshot(ctx, db)
}

// ClearDailyLimitOverride deletes the override row, restoring the
// env/config default, and refreshes the snapshot.
func ClearDailyLimitOverride(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if errDelete := db.WithContext(ctx).
		Where("key = ?", DailyLimitKey).
		Delete(&models.Setting{}).Error; errDelete != nil {
		return fmt.Errorf("settings: clear daily limit: %w", errDelete)
	}
	return RefreshSnapshot(ctx, db)
}
