package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ferry/internal/config"
	"ferry/internal/logging"
)

const userAgent = "Ferry/0.1.0"

// Result describes a finalized object returned by the store.
type Result struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// RangeStatus is the outcome of a byte-range PUT or an offset query.
type RangeStatus struct {
	// Committed is the number of bytes the store has durably acknowledged.
	Committed int64
	// Done is true once the object is finalized; Result is then populated.
	Done   bool
	Result Result
}

// Client talks to the object store's resumable upload endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Store.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Store.BaseURL, "/"),
		token:   cfg.Store.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "objectstore"),
	}
}

// Initiate negotiates a new upload session and returns its session URI.
func (c *Client) Initiate(ctx context.Context, destPath, mimeType string, totalBytes int64) (string, error) {
	endpoint := c.baseURL + "/v1/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", Wrap(ErrTransient, "initiate session", "build request", err)
	}
	c.decorate(req)
	req.Header.Set("X-Upload-Path", destPath)
	req.Header.Set("X-Upload-Content-Type", mimeType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(totalBytes, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", wrapTransport("initiate session", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", c.statusError("initiate session", resp)
	}

	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return "", Wrap(ErrTransient, "initiate session", "store returned no session URI", nil)
	}
	return c.absolute(location)
}

// SendRange transmits length bytes from r starting at offset. The store
// acknowledges with its committed offset (308) or the finalized object (200).
func (c *Client) SendRange(ctx context.Context, sessionURI string, r io.Reader, offset, length, totalBytes int64) (RangeStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURI, r)
	if err != nil {
		return RangeStatus{}, Wrap(ErrTransient, "send range", "build request", err)
	}
	c.decorate(req)
	req.ContentLength = length
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, totalBytes))

	resp, err := c.http.Do(req)
	if err != nil {
		return RangeStatus{}, wrapTransport("send range", err)
	}
	defer drain(resp)

	return c.rangeStatus("send range", resp, totalBytes)
}

// Offset queries the store for the committed offset of an existing session.
// Used on resume and after retries so acknowledged bytes are never resent.
func (c *Client) Offset(ctx context.Context, sessionURI string, totalBytes int64) (RangeStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURI, nil)
	if err != nil {
		return RangeStatus{}, Wrap(ErrTransient, "query offset", "build request", err)
	}
	c.decorate(req)
	req.ContentLength = 0
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", totalBytes))

	resp, err := c.http.Do(req)
	if err != nil {
		return RangeStatus{}, wrapTransport("query offset", err)
	}
	defer drain(resp)

	return c.rangeStatus("query offset", resp, totalBytes)
}

// Abort releases the server-side session. Idempotent: a session that is
// already gone is a success.
func (c *Client) Abort(ctx context.Context, sessionURI string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, sessionURI, nil)
	if err != nil {
		return Wrap(ErrTransient, "abort session", "build request", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport("abort session", err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode < 300 {
		return nil
	}
	return c.statusError("abort session", resp)
}

// Delete removes a stored object. Deleting an object that is already gone is
// not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	endpoint := c.baseURL + "/v1/files/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return Wrap(ErrTransient, "delete object", "build request", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport("delete object", err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode < 300 {
		return nil
	}
	return c.statusError("delete object", resp)
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) absolute(location string) (string, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return "", Wrap(ErrTransient, "initiate session", "invalid session URI", err)
	}
	if parsed.IsAbs() {
		return location, nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", Wrap(ErrTransient, "initiate session", "invalid base URL", err)
	}
	return base.ResolveReference(parsed).String(), nil
}

func (c *Client) rangeStatus(operation string, resp *http.Response, totalBytes int64) (RangeStatus, error) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var result Result
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
			return RangeStatus{}, Wrap(ErrTransient, operation, "decode finalize response", err)
		}
		if result.URL == "" {
			return RangeStatus{}, Wrap(ErrTransient, operation, "finalize response missing url", nil)
		}
		return RangeStatus{Committed: totalBytes, Done: true, Result: result}, nil
	case http.StatusPermanentRedirect: // 308 Resume Incomplete
		committed, err := parseRangeHeader(resp.Header.Get("Range"))
		if err != nil {
			return RangeStatus{}, Wrap(ErrTransient, operation, "parse Range header", err)
		}
		return RangeStatus{Committed: committed}, nil
	default:
		return RangeStatus{}, c.statusError(operation, resp)
	}
}

func (c *Client) statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	message := fmt.Sprintf("store returned %d", resp.StatusCode)
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		message = fmt.Sprintf("%s: %s", message, trimmed)
	}
	return Wrap(markerForStatus(resp.StatusCode), operation, message, nil)
}

func markerForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrPermissionDenied
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code >= 400 && code < 500:
		return ErrValidation
	default:
		return ErrTransient
	}
}

func wrapTransport(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrNetworkUnavailable, operation, "request aborted", err)
	}
	// Connection-level failures (refused, reset, DNS) surface as *url.Error.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Wrap(ErrNetworkUnavailable, operation, "transport failure", err)
	}
	return Wrap(ErrTransient, operation, "request failed", err)
}

// parseRangeHeader extracts the committed byte count from a "bytes=0-N" header.
// An empty header means nothing has been committed yet.
func parseRangeHeader(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	value = strings.TrimPrefix(value, "bytes=")
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed range %q", value)
	}
	last, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed range end %q", parts[1])
	}
	return last + 1, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
