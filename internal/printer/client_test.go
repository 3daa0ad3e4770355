package printer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendPostsSanitizedText(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if errSend := client.Send(context.Background(), "hello\nworld"); errSend != nil {
		t.Fatalf("send: %v", errSend)
	}

	var payload struct {
		Message string `json:"message"`
	}
	if errUnmarshal := json.Unmarshal(gotBody, &payload); errUnmarshal != nil {
		t.Fatalf("decode payload: %v", errUnmarshal)
	}
	if payload.Message != "hello\nworld" {
		t.Fatalf("payload message = %q", payload.Message)
	}
}

func TestSendNonSuccessStatusIsSinkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("paper jam"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	errSend := client.Send(context.Background(), "hello")

	var sinkErr *SinkError
	if !errors.As(errSend, &sinkErr) {
		t.Fatalf("error = %v, want *SinkError", errSend)
	}
	if sinkErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", sinkErr.StatusCode)
	}
	if sinkErr.Body != "paper jam" {
		t.Fatalf("body = %q", sinkErr.Body)
	}
}

func TestSendConnectionFailureIsSinkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client := NewClient(server.URL, time.Second)
	errSend := client.Send(context.Background(), "hello")

	var sinkErr *SinkError
	if !errors.As(errSend, &sinkErr) {
		t.Fatalf("error = %v, want *SinkError", errSend)
	}
	if sinkErr.Err == nil {
		t.Fatal("transport failure should carry the underlying error")
	}
}

func TestSendMakesExactlyOneAttempt(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if errSend := client.Send(context.Background(), "hello"); errSend == nil {
		t.Fatal("expected sink error")
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("sink saw %d attempts, want exactly 1", got)
	}
}

func TestSendErrorBodyTruncated(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'x'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write(long)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	errSend := client.Send(context.Background(), "hello")

	var sinkErr *SinkError
	if !errors.As(errSend, &sinkErr) {
		t.Fatalf("error = %v, want *SinkError", errSend)
	}
	if len(sinkErr.Body) > maxErrorBodyBytes {
		t.Fatalf("body length = %d, want <= %d", len(sinkErr.Body), maxErrorBodyBytes)
	}
}
