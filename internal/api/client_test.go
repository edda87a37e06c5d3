// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := logtest.NewNullLogger()
	c, err := NewClient(Options{
		BaseURL:    srv.URL + "/",
		Token:      "secret",
		MaxRetries: 3,
		HTTPClient: srv.Client(),
		Logger:     logger,
	})
	require.NoError(t, err)
	return c
}

func readAll(t *testing.T, s *TextStream) (string, []string) {
	t.Helper()
	var sb strings.Builder
	var chunks []string
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
		sb.WriteString(chunk)
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{"empty", "", true},
		{"no scheme", "example.com/api", true},
		{"ftp", "ftp://example.com", true},
		{"https", "https://api.example.com/v1/", false},
		{"http", "http://localhost:8787", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Options{BaseURL: tt.base})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotConfigured)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(c.BaseURL(), "/"))
		})
	}
}

// =============================================================================
// CHAT
// =============================================================================

func TestStreamChat_RequestShape(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})

	s, err := c.StreamChat(context.Background(), ChatRequest{
		Prompt: "Hello", Model: "gpt-4o", Variation: "normal", Language: "en-IN",
	})
	require.NoError(t, err)
	defer s.Close()
	text, _ := readAll(t, s)

	assert.Equal(t, "ok", text)
	assert.Equal(t, "Hello", got["prompt"])
	assert.Equal(t, "gpt-4o", got["model"])
	assert.Equal(t, "normal", got["variation"])
	assert.Equal(t, "en-IN", got["language"])
	assert.NotContains(t, got, "messages")
}

func TestStreamChat_ContextAwareSendsMessages(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, "ok")
	})

	s, err := c.StreamChat(context.Background(), ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hey"}, {Role: "user", Content: "again"}},
		Model:    "gpt-4o",
	})
	require.NoError(t, err)
	s.Close()

	assert.Empty(t, got.Prompt)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "again", got.Messages[2].Content)
}

func TestStreamChat_Chunks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hel", "lo, ", "world"} {
			io.WriteString(w, part)
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	})

	s, err := c.StreamChat(context.Background(), ChatRequest{Prompt: "x", Model: "gpt-4o"})
	require.NoError(t, err)
	defer s.Close()

	text, chunks := readAll(t, s)
	assert.Equal(t, "Hello, world", text)
	assert.GreaterOrEqual(t, len(chunks), 1)
}

func TestStreamChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"rate limited", 429, `{"success":false,"err":"slow down"}`, ErrRateLimited, MsgRateLimited},
		{"unauthorized", 401, ``, ErrUnauthorized, MsgUnauthorized},
		{"bad request with message", 400, `{"message":"Prompt too long"}`, ErrBadRequest, "Prompt too long"},
		{"bad request without message", 400, `not json`, ErrBadRequest, MsgBadRequest},
		{"other with err", 403, `{"success":false,"err":"Model disabled"}`, ErrServer, "Model disabled"},
		{"other empty", 404, ``, ErrServer, MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.StreamChat(context.Background(), ChatRequest{Prompt: "x", Model: "gpt-4o"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, UserMessage(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestStreamChat_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "recovered")
	})

	s, err := c.StreamChat(context.Background(), ChatRequest{Prompt: "x", Model: "gpt-4o"})
	require.NoError(t, err)
	defer s.Close()
	text, _ := readAll(t, s)

	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStreamChat_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"success":false,"err":"upstream exploded"}`)
	})

	_, err := c.StreamChat(context.Background(), ChatRequest{Prompt: "x", Model: "gpt-4o"})
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "upstream exploded", UserMessage(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestStreamChat_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "x")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.StreamChat(ctx, ChatRequest{Prompt: "x", Model: "gpt-4o"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", UserMessage(err))
}

func TestStreamChat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logger, _ := logtest.NewNullLogger()
	c, err := NewClient(Options{BaseURL: base, MaxRetries: 1, Logger: logger})
	require.NoError(t, err)

	_, err = c.StreamChat(context.Background(), ChatRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, MsgTransport, UserMessage(err))
}

// =============================================================================
// IMAGE
// =============================================================================

func TestGenerateImage(t *testing.T) {
	var got ImageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"b64_json":"QUJD","image":{"data":[{"revised_prompt":"A fluffy cat"}]}}`)
	})

	res, err := c.GenerateImage(context.Background(), ImageRequest{
		Prompt: "cat", Model: "dall-e-3", Quality: "hd", Style: "vivid", Size: "1024x1024",
	})
	require.NoError(t, err)
	assert.Equal(t, "QUJD", res.B64JSON)
	assert.Equal(t, "A fluffy cat", res.RevisedPrompt)
	assert.Equal(t, "data:image/png;base64,QUJD", res.DataURL())
	assert.Equal(t, ImageRequest{Prompt: "cat", Model: "dall-e-3", Quality: "hd", Style: "vivid", Size: "1024x1024"}, got)
}

func TestGenerateImage_RetryReturnsOneResult(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"b64_json":"QUJD","image":{"data":[{}]}}`)
	})

	res, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "cat", Model: "dall-e-3"})
	require.NoError(t, err)
	assert.Equal(t, "QUJD", res.B64JSON)
	assert.Empty(t, res.RevisedPrompt)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestParseImage(t *testing.T) {
	_, err := parseImage([]byte(`{"success":false,"err":"content policy"}`))
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "content policy", UserMessage(err))

	_, err = parseImage([]byte(`<html>`))
	assert.ErrorIs(t, err, ErrServer)

	res, err := parseImage([]byte(`{"image":{"data":[{"b64_json":"Wg==","revised_prompt":"z"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "Wg==", res.B64JSON)
}

// =============================================================================
// HELPERS
// =============================================================================

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, calculateBackoff(1))
	assert.Equal(t, time.Second, calculateBackoff(2))
	assert.Equal(t, retryMaxDelay, calculateBackoff(20))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Request timed out. Please try again.", UserMessage(context.DeadlineExceeded))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, MsgGeneric, UserMessage(errors.New("  ")))
	assert.Equal(t, MsgRateLimited, UserMessage(&StreamError{Partial: "abc", Err: errorFromResponse(429, nil)}))
}

func TestRetryLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(500)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Logger: logger})
	require.NoError(t, err)
	s, err := c.StreamChat(context.Background(), ChatRequest{Prompt: "x"})
	require.NoError(t, err)
	s.Close()

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "retrying request" {
			warned = true
		}
	}
	assert.True(t, warned)
}
