// Package replicate implements the generation provider against the Replicate
// HTTP API.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artstash/artstash-api/internal/core"
	apperrors "github.com/artstash/artstash-api/internal/errors"
)

// Config captures the subset of the Replicate API behaviour we need.
type Config struct {
	BaseURL    string
	Token      string
	WebhookURL string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client talks to the Replicate predictions API. It implements core.Provider.
type Client struct {
	baseURL    string
	token      string
	webhookURL string
	retryLimit int
	client     *http.Client
}

// NewClient builds a Replicate client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("replicate token is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
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
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		retryLimit: retries,
		client:     hc,
	}, nil
}

type predictionRequest struct {
	Version             string         `json:"version,omitempty"`
	Input               map[string]any `json:"input"`
	Webhook             string         `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

// CreatePrediction starts an asynchronous prediction whose completion events
// are delivered to the configured webhook.
func (c *Client) CreatePrediction(ctx context.Context, req core.PredictionRequest) (*core.Prediction, error) {
	body := predictionRequest{
		Version: modelVersion(req.Model),
		Input:   req.Input,
	}
	if c.webhookURL != "" {
		body.Webhook = c.webhookURL
		body.WebhookEventsFilter = []string{"start", "completed"}
	}

	resp, err := c.post(ctx, c.predictionsURL(req.Model), body)
	if err != nil {
		return nil, err
	}
	return &core.Prediction{ID: resp.ID, Status: resp.Status}, nil
}

// Run executes a prediction synchronously via the sync-mode header and
// returns its raw output. Replicate holds the request open until the
// prediction settles or the wait window elapses.
func (c *Client) Run(ctx context.Context, req core.PredictionRequest) (json.RawMessage, error) {
	resp, err := c.post(ctx, c.predictionsURL(req.Model),
		predictionRequest{Version: modelVersion(req.Model), Input: req.Input},
		withHeader("Prefer", "wait=60"))
	if err != nil {
		return nil, err
	}
	if resp.Status != "succeeded" && resp.Status != "completed" {
		msg := "prediction did not succeed"
		if resp.Error != nil && *resp.Error != "" {
			msg = *resp.Error
		}
		return nil, apperrors.Upstreamf("replicate run %s: %s", resp.Status, msg)
	}
	return resp.Output, nil
}

// predictionsURL picks the endpoint for a model reference. Model versions
// (owner/name:version) go through the generic predictions endpoint; bare
// owner/name references use the per-model endpoint.
func (c *Client) predictionsURL(model string) string {
	if strings.Contains(model, ":") {
		return c.baseURL + "/predictions"
	}
	return fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)
}

type requestOption func(*http.Request)

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (c *Client) post(ctx context.Context, url string, payload predictionRequest, opts ...requestOption) (*predictionResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		resp, err := c.doPost(ctx, url, body, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
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
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil, lastErr
}

func (c *Client) doPost(ctx context.Context, url string, body []byte, opts []requestOption) (*predictionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create replicate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "replicate request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "read replicate response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrapf(
			&statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))},
			apperrors.ErrCodeUpstream, "replicate %s", resp.Status)
	}

	var decoded predictionResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "decode replicate response")
	}
	if decoded.ID == "" {
		return nil, apperrors.Upstream("replicate response missing prediction id")
	}
	return &decoded, nil
}

// statusError is a non-2xx response from the Replicate API.
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

// modelVersion extracts the version hash from an owner/name:version model
// reference, or "" when the reference has no version.
func modelVersion(model string) string {
	_, version, found := strings.Cut(model, ":")
	if !found {
		return ""
	}
	return version
}
