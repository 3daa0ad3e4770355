// Package intake orchestrates the submission pipeline: length gate, quota
// reservation, sanitization, durable persistence, then forwarding to the
// print sink. The gate order is load-bearing; see the comments on Submit.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/thermalpress/guestbook-gateway/internal/printer"
	"github.com/thermalpress/guestbook-gateway/internal/quota"
	"github.com/thermalpress/guestbook-gateway/internal/sanitize"
	"github.com/thermalpress/guestbook-gateway/internal/store"
	"github.com/thermalpress/guestbook-gateway/internal/util"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MaxMessageLength is the raw submission cap in Unicode code points,
// enforced before sanitization.
const MaxMessageLength = 10000

// opTimeout bounds the persist+forward phase once a quota slot is held.
const opTimeout = 15 * time.Second

// Content validation errors.
var (
	// ErrEmpty rejects a zero-length raw message.
	ErrEmpty = errors.New("intake: empty message")
	// ErrTooLong rejects a raw message over MaxMessageLength code points.
	ErrTooLong = errors.New("intake: message too long")
)

// StorageError wraps a persistence failure. Handlers report it as a generic
// server error without leaking detail to the client.
type StorageError struct {
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string { return fmt.Sprintf("intake: storage: %v", e.Err) }

// Unwrap exposes the underlying persistence error.
func (e *StorageError) Unwrap() error { return e.Err }

// Result describes an accepted submission.
type Result struct {
	ID        uint64
	CleanText string
}

// Service wires the pipeline components.
type Service struct {
	quota   *quota.Tracker
	store   *store.MessageStore
	printer *printer.Client
	now     func() time.Time
}

// NewService constructs a Service. nowFn may be nil for the real clock.
func NewService(tracker *quota.Tracker, messages *store.MessageStore, sink *printer.Client, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{quota: tracker, store: messages, printer: sink, now: nowFn}
}

// Submit runs one submission through the ordered gates.
//
// Ordering invariants:
//   - Length is checked before quota, so an oversized request consumes no
//     quota slot.
//   - Quota is reserved before sanitization. A message rejected as
//     unprintable has already consumed its slot; quota guards attempt
//     volume, not only successful submissions, and no refund is issued.
//   - Persistence precedes forwarding. A sink failure leaves the row in
//     place and is reported to the caller; nothing is rolled back.
//   - Once the quota slot is held, the remaining stages run on a fresh
//     bounded context so a client disconnect cannot un-consume the slot or
//     un-persist the message.
func (s *Service) Submit(ctx context.Context, sourceID, raw string) (Result, error) {
	// LengthChecked.
	if raw == "" {
		return Result{}, ErrEmpty
	}
	if utf8.RuneCountInString(raw) > MaxMessageLength {
		return Result{}, ErrTooLong
	}

	now := s.now()

	// QuotaChecked. The tracker finalizes its state before any network or
	// storage work starts; its lock is never held across those calls.
	if errQuota := s.quota.TryAccept(sourceID, now); errQuota != nil {
		return Result{}, errQuota
	}

	// Sanitized. The slot above stays consumed even if this rejects.
	clean, errClean := sanitize.Clean(raw)
	if errClean != nil {
		return Result{}, errClean
	}

	opCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Persisted. No forwarding for a message that was not durably recorded.
	id, errAppend := s.store.Append(opCtx, clean, util.HashSourceID(sourceID), now)
	if errAppend != nil {
		return Result{}, &StorageError{Err: errAppend}
	}

	// Forwarded. Single attempt; failure is reported but the row stays.
	if errSend := s.printer.Send(opCtx, clean); errSend != nil {
		s.recordForwardError(opCtx, id, errSend)
		return Result{ID: id, CleanText: clean}, errSend
	}

	return Result{ID: id, CleanText: clean}, nil
}

// recordForwardError stores the sink failure detail on the persisted row.
func (s *Service) recordForwardError(ctx context.Context, id uint64, sendErr error) {
	detail := map[string]any{"error": sendErr.Error()}
	var sinkErr *printer.SinkError
	if errors.As(sendErr, &sinkErr) {
		if sinkErr.StatusCode > 0 {
			detail["status"] = sinkErr.StatusCode
		}
		if sinkErr.Body != "" {
			detail["body"] = sinkErr.Body
		}
	}

	payload, errMarshal := json.Marshal(detail)
	if errMarshal != nil {
		return
	}
	if errRecord := s.store.RecordForwardError(ctx, id, datatypes.JSON(payload)); errRecord != nil {
		log.WithError(errRecord).WithField("message_id", id).Warn("record forward error failed")
	}
}
