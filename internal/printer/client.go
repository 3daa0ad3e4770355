// Package printer is the HTTP client for the downstream rendering sink.
package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single print request.
	DefaultTimeout = 5 * time.Second
	// maxErrorBodyBytes caps how much of a sink error body is retained.
	maxErrorBodyBytes = 512
)

// SinkError reports a failed print attempt: either a transport failure or a
// non-success response from the sink.
type SinkError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("printer: %v", e.Err)
	}
	return fmt.Sprintf("printer: sink returned status %d", e.StatusCode)
}

// Unwrap exposes the transport error, if any.
func (e *SinkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Client posts sanitized messages to the rendering sink. It makes exactly
// one attempt per Send: a retry could duplicate a physical printout.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient constructs a Client for the given sink URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type printRequest struct {
	Message string `json:"message"`
}

// Send relays cleanText to the sink. Callers must pass sanitized text only;
// the intake pipeline guarantees this by ordering, not the client.
func (c *Client) Send(ctx context.Context, cleanText string) error {
	payload, errMarshal := json.Marshal(printRequest{Message: cleanText})
	if errMarshal != nil {
		return &SinkError{Err: fmt.Errorf("encode payload: %w", errMarshal)}
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if errReq != nil {
		return &SinkError{Err: fmt.Errorf("build request: %w", errReq)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return &SinkError{Err: errDo}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &SinkError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil
}
