package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/thermalpress/guestbook-gateway/internal/intake"
	"github.com/thermalpress/guestbook-gateway/internal/printer"
	"github.com/thermalpress/guestbook-gateway/internal/quota"
	"github.com/thermalpress/guestbook-gateway/internal/sanitize"
	"github.com/thermalpress/guestbook-gateway/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler serves the public endpoints.
type Handler struct {
	intake *intake.Service
	store  *store.MessageStore
}

// NewHandler constructs a Handler.
func NewHandler(svc *intake.Service, messages *store.MessageStore) *Handler {
	return &Handler{intake: svc, store: messages}
}

// submitRequest is the POST /submit body. Message is a pointer so a missing
// field is distinguishable from an empty string: the former is a shape
// error (422), the latter a content error (400).
type submitRequest struct {
	Message *string `json:"message"`
}

// Submit accepts one guestbook submission and runs it through the intake
// pipeline. The client source identifier is the resolved client IP.
func (h *Handler) Submit(c *gin.Context) {
	var body submitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message field missing or not a string"})
		return
	}
	if body.Message == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message field missing or not a string"})
		return
	}

	result, errSubmit := h.intake.Submit(c.Request.Context(), c.ClientIP(), *body.Message)
	if errSubmit != nil {
		h.writeSubmitError(c, result, errSubmit)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": result.ID})
}

// writeSubmitError maps pipeline errors onto the response contract.
func (h *Handler) writeSubmitError(c *gin.Context, result intake.Result, errSubmit error) {
	var limitErr *quota.LimitError
	var storageErr *intake.StorageError
	var sinkErr *printer.SinkError

	switch {
	case errors.Is(errSubmit, intake.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
	case errors.Is(errSubmit, intake.ErrTooLong):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message exceeds maximum length"})
	case errors.Is(errSubmit, sanitize.ErrNoPrintableContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message contains no printable content"})
	case errors.As(errSubmit, &limitErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "scope": limitErr.Scope})
	case errors.As(errSubmit, &storageErr):
		log.WithError(errSubmit).Error("submit: storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case errors.As(errSubmit, &sinkErr):
		// The message is already persisted; only the printout failed.
		log.WithError(errSubmit).WithField("message_id", result.ID).Warn("submit: sink unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "printer unavailable", "id": result.ID})
	default:
		log.WithError(errSubmit).Error("submit: unexpected failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// galleryEntry is one row of the public gallery listing.
type galleryEntry struct {
	ID          uint64  `json:"id"`
	Message     string  `json:"message"`
	SubmittedAt string  `json:"submitted_at"`
	Commentary  *string `json:"commentary,omitempty"`
}

// Gallery lists gallery-approved messages, newest first. Always 200; an
// empty store yields an empty list.
func (h *Handler) Gallery(c *gin.Context) {
	rows, errList := h.store.ListApprovedForGallery(c.Request.Context())
	if errList != nil {
		log.WithError(errList).Error("gallery: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	entries := make([]galleryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, galleryEntry{
			ID:          row.ID,
			Message:     row.Message,
			SubmittedAt: row.SubmittedAt.UTC().Format(time.RFC3339),
			Commentary:  row.Commentary,
		})
	}
	c.JSON(http.StatusOK, entries)
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
