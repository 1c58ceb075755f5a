package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artstash/artstash-api/internal/core"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// DownloaderConfig captures the download behaviour for provider outputs.
type DownloaderConfig struct {
	Timeout    time.Duration
	RetryLimit int
	MaxBytes   int64
	Client     *http.Client
}

// HTTPDownloader fetches output artifacts from provider-hosted URLs. Provider
// URLs are short-lived, so transient failures are retried with a linear
// backoff while 4xx responses fail fast.
type HTTPDownloader struct {
	retryLimit int
	maxBytes   int64
	client     *http.Client
}

// NewHTTPDownloader builds a downloader from config, applying defaults for
// unset fields.
func NewHTTPDownloader(cfg DownloaderConfig) *HTTPDownloader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &HTTPDownloader{
		retryLimit: retries,
		maxBytes:   maxBytes,
		client:     hc,
	}
}

// Download fetches the bytes behind url, retrying transient failures.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (*core.Download, error) {
	attempts := d.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		dl, err := d.fetch(ctx, url)
		if err == nil {
			return dl, nil
		}
		lastErr = err
		if !retryableDownload(err) {
			return nil, err
		}
		if attempt < attempts-1 {
			// Simple linear backoff to avoid hammering the provider CDN.
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil, lastErr
}

func (d *HTTPDownloader) fetch(ctx context.Context, url string) (*core.Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "create download request for %s", url)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "download request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.Wrapf(
			&downloadStatusError{Code: resp.StatusCode},
			apperrors.ErrCodeUpstream, "download %s", url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "read download body")
	}
	if int64(len(body)) > d.maxBytes {
		return nil, apperrors.Validationf("download exceeds %d byte limit", d.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = http.DetectContentType(body)
	}

	return &core.Download{
		Body:        body,
		ContentType: contentType,
	}, nil
}

// downloadStatusError is a non-2xx response from the output host.
type downloadStatusError struct {
	Code int
}

func (e *downloadStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// retryableDownload reports whether the failure is worth another attempt.
// Network errors, 5xx, and 429 responses are; other 4xx responses and
// canceled contexts are not.
func retryableDownload(err error) bool {
	if apperrors.IsValidation(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *downloadStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	return true
}
