// Package moderation implements the out-of-band gallery approval workflow.
// It talks to the message store directly; approval never passes through the
// public intake endpoint.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/thermalpress/guestbook-gateway/internal/models"
	"github.com/thermalpress/guestbook-gateway/internal/store"
)

// summaryWidth is how much of a message's first line the pending table shows.
const summaryWidth = 60

// Moderator wraps the store operations used by the moderation CLI.
type Moderator struct {
	store *store.MessageStore
}

// NewModerator constructs a Moderator.
func NewModerator(messages *store.MessageStore) *Moderator {
	return &Moderator{store: messages}
}

// FirstLine returns the first line of a message, truncated to width with an
// ellipsis marker.
func FirstLine(message string, width int) string {
	line, _, _ := strings.Cut(message, "\n")
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width]) + "..."
}

// PendingSummary renders the pending-message table shown by the CLI.
func (m *Moderator) PendingSummary(ctx context.Context) (string, error) {
	rows, errList := m.store.ListPending(ctx)
	if errList != nil {
		return "", errList
	}
	if len(rows) == 0 {
		return "No pending messages.\n", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%4s  %10s  First line\n", "ID", "Date")
	b.WriteString(strings.Repeat("-", 72))
	b.WriteByte('\n')
	for _, row := range rows {
		fmt.Fprintf(&b, "%4d  %10s  %s\n",
			row.ID,
			row.SubmittedAt.UTC().Format("2006-01-02"),
			FirstLine(row.Message, summaryWidth))
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// Show fetches a pending message for review before approval.
func (m *Moderator) Show(ctx context.Context, id uint64) (*models.Message, error) {
	return m.store.GetPending(ctx, id)
}

// Approve marks a pending message gallery-approved with an optional
// commentary. store.ErrNotPending is returned for unknown or already
// approved ids.
func (m *Moderator) Approve(ctx context.Context, id uint64, commentary string) error {
	return m.store.Approve(ctx, id, commentary)
}
