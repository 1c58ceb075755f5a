// Package objstore writes artifact bytes to a Supabase-style storage HTTP API.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artstash/artstash-api/internal/core"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// Config captures the storage endpoint behaviour we need.
type Config struct {
	// BaseURL is the storage API root, e.g. https://project.supabase.co/storage/v1.
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client uploads objects over the storage HTTP API. It implements
// core.ObjectStorage.
type Client struct {
	baseURL    string
	token      string
	retryLimit int
	client     *http.Client
}

// NewClient builds a storage client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("storage base url is required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("storage token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		retryLimit: retries,
		client:     hc,
	}, nil
}

// Put uploads an object, replacing any existing object at the same path so
// repeated writes of the same artifact converge instead of erroring.
func (c *Client) Put(ctx context.Context, params core.PutObjectParams) error {
	if params.Bucket == "" || params.Path == "" {
		return apperrors.Validation("bucket and path are required")
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err := c.upload(ctx, params)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if attempt < attempts-1 {
			// Simple linear backoff to avoid thundering retries.
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

func (c *Client) upload(ctx context.Context, params core.PutObjectParams) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s",
		c.baseURL, url.PathEscape(params.Bucket), escapeObjectPath(params.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(params.Body))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("x-upsert", "true")
	if params.ContentType != "" {
		req.Header.Set("Content-Type", params.ContentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "storage upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.Wrapf(
			&statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))},
			apperrors.ErrCodeUpstream, "storage upload %s/%s", params.Bucket, params.Path)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// escapeObjectPath escapes each path segment while keeping the separators.
func escapeObjectPath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// statusError is a non-2xx response from the storage API.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	return true
}
