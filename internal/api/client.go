// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/abdulsamad/polychat/internal/logging"
)

// Configuration defaults.
const (
	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the number of attempts for transient failures.
	DefaultMaxRetries = 3

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second

	// MaxResponseSize caps JSON bodies. Generated images are base64, so the
	// limit is generous.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 32 * 1024 * 1024

	userAgent = "polychat/1.0"
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	sharedTransport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// sharedStreamingClient has no timeout; streams are bounded by context.
	sharedStreamingClient = &http.Client{Transport: sharedTransport}
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is one prior turn sent in context-aware mode.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat. Exactly one of Prompt and
// Messages is sent.
type ChatRequest struct {
	Prompt    string        `json:"prompt,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`
	Model     string        `json:"model"`
	Variation string        `json:"variation"`
	Language  string        `json:"language,omitempty"`
}

// ImageRequest is the body of POST /image.
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
	Size    string `json:"size,omitempty"`
}

// ImageResult is a generated image.
type ImageResult struct {
	B64JSON       string
	RevisedPrompt string
}

// DataURL returns the image as a data: URL.
func (r *ImageResult) DataURL() string {
	return "data:image/png;base64," + r.B64JSON
}

// =============================================================================
// CLIENT
// =============================================================================

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int

	// HTTPClient overrides the shared clients, mainly for tests.
	HTTPClient *http.Client

	Logger logrus.FieldLogger
}

// Client talks to the generation backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	streaming  *http.Client
	maxRetries int
	log        logrus.FieldLogger
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrNotConfigured, opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Logger == nil {
		opts.Logger = logging.For("api")
	}

	c := &Client{
		baseURL:    base,
		token:      strings.TrimSpace(opts.Token),
		http:       &http.Client{Transport: sharedTransport, Timeout: opts.Timeout},
		streaming:  sharedStreamingClient,
		maxRetries: opts.MaxRetries,
		log:        opts.Logger,
	}
	if opts.HTTPClient != nil {
		c.http = opts.HTTPClient
		c.streaming = opts.HTTPClient
	}
	return c, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamChat opens a streamed text response. The returned stream must be
// closed. Transient failures before the stream opens are retried.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (*TextStream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, c.streaming, "/chat", body)
	if err != nil {
		return nil, err
	}
	return newTextStream(resp.Body), nil
}

// GenerateImage requests one image. Transient failures are retried.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, c.http, "/image", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	return parseImage(data)
}

// parseImage reads {b64_json, image: {data: [{revised_prompt}]}}.
func parseImage(data []byte) (*ImageResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, &APIError{Status: http.StatusOK, Message: "Invalid image response.", kind: ErrServer}
	}
	res := gjson.GetManyBytes(data, "b64_json", "image.data.0.b64_json", "image.data.0.revised_prompt", "err")
	b64 := res[0].String()
	if b64 == "" {
		b64 = res[1].String()
	}
	if b64 == "" {
		msg := res[3].String()
		if msg == "" {
			msg = "No image was returned."
		}
		return nil, &APIError{Status: http.StatusOK, Message: msg, kind: ErrServer}
	}
	return &ImageResult{B64JSON: b64, RevisedPrompt: res[2].String()}, nil
}

// =============================================================================
// RETRY LOGIC
// =============================================================================

// doWithRetry POSTs body to path. It returns a 2xx response whose body the
// caller must close, or an error. 5xx responses and transport failures are
// retried with exponential backoff; 4xx responses are returned at once.
func (c *Client) doWithRetry(ctx context.Context, hc *http.Client, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt)
			c.log.WithFields(logrus.Fields{"path": path, "attempt": attempt + 1, "delay": delay}).
				WithError(lastErr).Warn("retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.do(ctx, hc, path, body)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, hc *http.Client, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.log.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return nil, errorFromResponse(resp.StatusCode, data)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return errors.Is(err, ErrTransport)
}

// calculateBackoff returns 500ms, 1s, 2s, ... capped at retryMaxDelay.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// readResponse reads a JSON body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
