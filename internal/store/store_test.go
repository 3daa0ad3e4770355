package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/thermalpress/guestbook-gateway/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var submittedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *MessageStore {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewMessageStore(conn)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	var lastID uint64
	for i := 0; i < 5; i++ {
		id, errAppend := messages.Append(ctx, "hello", "abcd1234abcd1234", submittedAt.Add(time.Duration(i)*time.Second))
		if errAppend != nil {
			t.Fatalf("append %d: %v", i, errAppend)
		}
		if id <= lastID {
			t.Fatalf("id %d not greater than previous %d", id, lastID)
		}
		lastID = id
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	first, errFirst := messages.Append(ctx, "same text", "abcd1234abcd1234", submittedAt)
	if errFirst != nil {
		t.Fatalf("first append: %v", errFirst)
	}
	second, errSecond := messages.Append(ctx, "same text", "abcd1234abcd1234", submittedAt)
	if errSecond != nil {
		t.Fatalf("second append: %v", errSecond)
	}
	if first == second {
		t.Fatal("identical submissions must produce distinct rows")
	}
}

func TestGalleryEmptyOnFreshStore(t *testing.T) {
	messages := newTestStore(t)

	rows, errList := messages.ListApprovedForGallery(context.Background())
	if errList != nil {
		t.Fatalf("list approved: %v", errList)
	}
	if len(rows) != 0 {
		t.Fatalf("fresh store returned %d approved rows", len(rows))
	}
}

func TestApproveFlipsGalleryVisibility(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	id, errAppend := messages.Append(ctx, "worth showing", "abcd1234abcd1234", submittedAt)
	if errAppend != nil {
		t.Fatalf("append: %v", errAppend)
	}

	rows, _ := messages.ListApprovedForGallery(ctx)
	if len(rows) != 0 {
		t.Fatal("message visible before approval")
	}

	if errApprove := messages.Approve(ctx, id, "a classic"); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}

	rows, errList := messages.ListApprovedForGallery(ctx)
	if errList != nil {
		t.Fatalf("list approved: %v", errList)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("approved listing = %+v, want message %d", rows, id)
	}
	if rows[0].Commentary == nil || *rows[0].Commentary != "a classic" {
		t.Fatalf("commentary not stored: %+v", rows[0].Commentary)
	}
}

func TestApproveUnknownOrRepeatedReturnsNotPending(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	if errApprove := messages.Approve(ctx, 999, ""); !errors.Is(errApprove, ErrNotPending) {
		t.Fatalf("approve unknown id error = %v, want ErrNotPending", errApprove)
	}

	id, _ := messages.Append(ctx, "once", "abcd1234abcd1234", submittedAt)
	if errApprove := messages.Approve(ctx, id, ""); errApprove != nil {
		t.Fatalf("first approve: %v", errApprove)
	}
	if errApprove := messages.Approve(ctx, id, ""); !errors.Is(errApprove, ErrNotPending) {
		t.Fatalf("second approve error = %v, want ErrNotPending", errApprove)
	}
}

func TestGalleryOrderNewestFirst(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	older, _ := messages.Append(ctx, "older", "abcd1234abcd1234", submittedAt)
	newer, _ := messages.Append(ctx, "newer", "abcd1234abcd1234", submittedAt.Add(time.Hour))
	_ = messages.Approve(ctx, older, "")
	_ = messages.Approve(ctx, newer, "")

	rows, errList := messages.ListApprovedForGallery(ctx)
	if errList != nil {
		t.Fatalf("list approved: %v", errList)
	}
	if len(rows) != 2 || rows[0].ID != newer || rows[1].ID != older {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestListPendingOldestFirst(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	first, _ := messages.Append(ctx, "first", "abcd1234abcd1234", submittedAt)
	second, _ := messages.Append(ctx, "second", "abcd1234abcd1234", submittedAt.Add(time.Minute))
	approved, _ := messages.Append(ctx, "third", "abcd1234abcd1234", submittedAt.Add(2*time.Minute))
	_ = messages.Approve(ctx, approved, "")

	rows, errList := messages.ListPending(ctx)
	if errList != nil {
		t.Fatalf("list pending: %v", errList)
	}
	if len(rows) != 2 || rows[0].ID != first || rows[1].ID != second {
		t.Fatalf("pending listing = %+v", rows)
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, errAppend := messages.Append(ctx, "msg", "abcd1234abcd1234", submittedAt.Add(time.Duration(i)*time.Second)); errAppend != nil {
			t.Fatalf("append %d: %v", i, errAppend)
		}
	}

	rows, errList := messages.ListRecent(ctx, 3)
	if errList != nil {
		t.Fatalf("list recent: %v", errList)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].ID < rows[1].ID || rows[1].ID < rows[2].ID {
		t.Fatalf("not newest first: %+v", rows)
	}
}

func TestRecordForwardError(t *testing.T) {
	messages := newTestStore(t)
	ctx := context.Background()

	id, _ := messages.Append(ctx, "unprinted", "abcd1234abcd1234", submittedAt)
	detail := datatypes.JSON([]byte(`{"status":502,"error":"connection refused"}`))
	if errRecord := messages.RecordForwardError(ctx, id, detail); errRecord != nil {
		t.Fatalf("record forward error: %v", errRecord)
	}

	rows, errList := messages.ListRecent(ctx, 1)
	if errList != nil {
		t.Fatalf("list recent: %v", errList)
	}
	if len(rows) != 1 || len(rows[0].ForwardError) == 0 {
		t.Fatalf("forward error not persisted: %+v", rows)
	}
}
