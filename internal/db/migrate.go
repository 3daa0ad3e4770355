package db

import (
	"fmt"

	"github.com/thermalpress/guestbook-gateway/internal/models"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. AutoMigrate creates the tables on a
// fresh database and backfills the moderation and forwarding columns on a
// database created by an older deployment.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Message{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
