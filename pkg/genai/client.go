// Package genai calls the Vertex AI REST surface for image, video and text
// generation.
package genai

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	maxErrorBody       = 2048
)

// Client is safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	cfg       config.GenAIConfig
	logg      *logger.Logger
	onRetry   func(operation string)
	newPolicy func() backoffPolicy
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryHook is called once per retried attempt.
func WithRetryHook(fn func(operation string)) Option {
	return func(c *Client) { c.onRetry = fn }
}

// New authenticates with Application Default Credentials, or with the
// configured service account JSON when present.
func New(ctx context.Context, gcp config.GCPConfig, cfg config.GenAIConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errors.New("gcp project id is required")
	}

	ts, err := tokenSource(ctx, gcp)
	if err != nil {
		return nil, err
	}
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.HTTPTimeout

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", gcp.Location)
	}
	base := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models", endpoint, gcp.ProjectID, gcp.Location)

	return NewWithHTTPClient(httpClient, base, cfg, logg, opts...), nil
}

// NewWithHTTPClient builds a client against an explicit models base URL.
func NewWithHTTPClient(httpClient *http.Client, baseURL string, cfg config.GenAIConfig, logg *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		logg:    logg,
	}
	c.newPolicy = func() backoffPolicy { return newBackoffPolicy(cfg) }
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func tokenSource(ctx context.Context, gcp config.GCPConfig) (oauth2.TokenSource, error) {
	if gcp.CredentialsJSON != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(gcp.CredentialsJSON), cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parsing gcp credentials: %w", err)
		}
		return creds.TokenSource, nil
	}
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("resolving default credentials: %w", err)
	}
	return ts, nil
}

// StatusError is a non-2xx answer from the remote service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vertex returned %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func (c *Client) modelURL(model, method string) string {
	return fmt.Sprintf("%s/%s:%s", c.baseURL, model, method)
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if c.logg != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{
			"url":         url,
			"status":      resp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		c.logg.Debug(ctx, "vertex call finished")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
