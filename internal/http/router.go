// Package http exposes the gateway's HTTP surface: the public submit and
// gallery endpoints plus a health probe.
package http

import (
	"net/http"
	"time"

	"github.com/thermalpress/guestbook-gateway/internal/intake"
	"github.com/thermalpress/guestbook-gateway/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with all routes registered.
// trustedProxies controls which upstream addresses may set the
// client-address headers; the source identifier for rate limiting comes
// from gin's ClientIP resolution.
func NewRouter(svc *intake.Service, messages *store.MessageStore, trustedProxies []string) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(requestLogMiddleware(), gin.Recovery())
	if errProxies := engine.SetTrustedProxies(trustedProxies); errProxies != nil {
		return nil, errProxies
	}

	handler := NewHandler(svc, messages)
	engine.POST("/submit", handler.Submit)
	engine.GET("/gallery", handler.Gallery)
	engine.GET("/healthz", handler.Health)

	return engine, nil
}

// requestLogMiddleware logs one line per request with latency and status.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Microsecond).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Info("request")
	}
}
