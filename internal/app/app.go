// Package app wires configuration, storage, and the intake pipeline into a
// runnable server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/thermalpress/guestbook-gateway/internal/config"
	"github.com/thermalpress/guestbook-gateway/internal/db"
	gatewayhttp "github.com/thermalpress/guestbook-gateway/internal/http"
	"github.com/thermalpress/guestbook-gateway/internal/intake"
	"github.com/thermalpress/guestbook-gateway/internal/logging"
	"github.com/thermalpress/guestbook-gateway/internal/printer"
	"github.com/thermalpress/guestbook-gateway/internal/quota"
	"github.com/thermalpress/guestbook-gateway/internal/settings"
	"github.com/thermalpress/guestbook-gateway/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful server shutdown.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and brings the schema up to date.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// OpenStore opens the database for CLI commands that act on the store
// directly (moderation, recent listing, limit override).
func OpenStore(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return nil, nil, errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return nil, nil, errOpen
	}
	return cfg, conn, nil
}

// RunServer boots the gateway and serves until ctx is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.RefreshSnapshot(ctx, conn); errRefresh != nil {
		return errRefresh
	}

	// Quota state is in-memory on purpose: a restart clears it, and there
	// is no cross-process coordination.
	tracker := quota.NewTracker(quota.DefaultPerSourceLimit, quota.DefaultWindow, func() int {
		return settings.DailyLimit(cfg.DailyLimit)
	})
	messages := store.NewMessageStore(conn)
	sink := printer.NewClient(cfg.PrinterURL, cfg.PrinterTimeout())
	svc := intake.NewService(tracker, messages, sink, nil)

	gin.SetMode(gin.ReleaseMode)
	engine, errRouter := gatewayhttp.NewRouter(svc, messages, cfg.TrustedProxies)
	if errRouter != nil {
		return errRouter
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"listen":      cfg.Listen,
			"printer":     cfg.PrinterURL,
			"daily_limit": settings.DailyLimit(cfg.DailyLimit),
		}).Info("guestbook gateway started")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case errServe := <-serveErr:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	log.Info("guestbook gateway stopped")
	return nil
}
