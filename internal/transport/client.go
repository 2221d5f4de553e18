// ABOUTME: HTTP client for the runs backend
// ABOUTME: Fetches, uploads, and deletes runs and classifies response statuses

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is the coarse outcome of a backend call.
type Status int

const (
	StatusOK Status = iota
	StatusUnauthorized
	StatusForbidden
	StatusNotFound
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusForbidden:
		return "forbidden"
	case StatusNotFound:
		return "not found"
	default:
		return "failure"
	}
}

// Classify maps an HTTP status code onto a Status.
func Classify(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusOK
	case code == http.StatusUnauthorized:
		return StatusUnauthorized
	case code == http.StatusForbidden:
		return StatusForbidden
	case code == http.StatusNotFound:
		return StatusNotFound
	default:
		return StatusFailure
	}
}

const (
	runsPath       = "/api/runs"
	uploadPath     = "/api/runs/upload"
	uploadField    = "file"
	gpxContentType = "application/gpx+xml"
	defaultTimeout = 30 * time.Second
)

// Client talks to the runs backend over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	deviceID string
	logger   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithDeviceID sets the X-Device-ID header sent with every request.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client rooted at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRuns requests the full run collection. The records are returned as
// decoded JSON objects; numbers are kept as json.Number.
func (c *Client) FetchRuns(ctx context.Context, token string) (Status, []map[string]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, runsPath, token, nil)
	if err != nil {
		return StatusFailure, nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return StatusFailure, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	status := Classify(resp.StatusCode)
	if status != StatusOK {
		drain(resp.Body)
		return status, nil, nil
	}

	var records []map[string]any
	if err := decodeJSON(resp.Body, &records); err != nil {
		return StatusFailure, nil, fmt.Errorf("decode runs: %w", err)
	}
	return status, records, nil
}

// Upload posts a track file as multipart form data and returns the created
// record as decoded JSON.
func (c *Client) Upload(ctx context.Context, token, filename string, body []byte) (Status, map[string]any, error) {
	payload, contentType, err := buildUploadForm(filename, body)
	if err != nil {
		return StatusFailure, nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, uploadPath, token, payload)
	if err != nil {
		return StatusFailure, nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.do(req)
	if err != nil {
		return StatusFailure, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	status := Classify(resp.StatusCode)
	if status != StatusOK {
		drain(resp.Body)
		return status, nil, nil
	}

	var record map[string]any
	if err := decodeJSON(resp.Body, &record); err != nil {
		return StatusFailure, nil, fmt.Errorf("decode upload response: %w", err)
	}
	return status, record, nil
}

// Delete removes a run by id.
func (c *Client) Delete(ctx context.Context, token, id string) (Status, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, runsPath+"/"+url.PathEscape(id), token, nil)
	if err != nil {
		return StatusFailure, err
	}

	resp, err := c.do(req)
	if err != nil {
		return StatusFailure, err
	}
	defer func() { _ = resp.Body.Close() }()
	drain(resp.Body)

	return Classify(resp.StatusCode), nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")
	return resp, nil
}

func buildUploadForm(filename string, body []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filename))
	h.Set("Content-Type", gpxContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(body); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}
