// Package graphity is a minimal client for the create endpoint of a
// Graphity social graph server.
package graphity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/metalcon/newswidget/internal/domain"
)

// DefaultCreateURL is the create servlet of a local Graphity server.
const DefaultCreateURL = "http://localhost:8080/Graphity-Server-0.1/create"

const (
	statusOK        = "ok"
	maxResponseBody = 1 << 20
)

// Client posts status updates to a Graphity create endpoint.
type Client struct {
	createURL  string
	httpClient *http.Client
}

// NewClient creates a new Graphity client. If createURL is empty, it
// defaults to DefaultCreateURL. A zero timeout means 30 seconds.
func NewClient(createURL string, timeout time.Duration) *Client {
	if createURL == "" {
		createURL = DefaultCreateURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		createURL: createURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateResponse is the body the create endpoint answers with.
type CreateResponse struct {
	StatusMessage string `json:"statusMessage"`
}

// CreateStatusUpdate sends the payload as a multipart form. It returns nil
// only when the server answers 2xx with statusMessage "ok"; otherwise the
// error is a *NetworkError or an *UnexpectedResponseError.
func (c *Client) CreateStatusUpdate(ctx context.Context, payload domain.Payload) error {
	body, contentType, err := encodeForm(payload)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UnexpectedResponseError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result CreateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return &UnexpectedResponseError{StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}
	if result.StatusMessage != statusOK {
		return &UnexpectedResponseError{
			StatusCode:    resp.StatusCode,
			StatusMessage: result.StatusMessage,
			Body:          string(respBody),
		}
	}

	return nil
}

func encodeForm(payload domain.Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range payload.Fields() {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// NetworkError means the request could not be sent or its response could
// not be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("graphity %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError means the server answered, but not with a
// confirmation.
type UnexpectedResponseError struct {
	StatusCode    int
	StatusMessage string
	Body          string

	// Err is set when the body could not be decoded.
	Err error
}

func (e *UnexpectedResponseError) Error() string {
	switch {
	case e.StatusCode < 200 || e.StatusCode >= 300:
		return fmt.Sprintf("graphity API error (status %d): %s", e.StatusCode, truncate(e.Body, 200))
	case e.Err != nil:
		return fmt.Sprintf("graphity decode response: %v", e.Err)
	default:
		return fmt.Sprintf("graphity status message %q", e.StatusMessage)
	}
}

func (e *UnexpectedResponseError) Unwrap() error {
	return e.Err
}

// truncate returns the first n bytes of s, appending "..." if truncated.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
