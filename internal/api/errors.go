// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// User-facing messages.
const (
	MsgRateLimited  = "Rate limit exceeded. Please try again later."
	MsgUnauthorized = "Unauthorized. Please check your authentication."
	MsgBadRequest   = "Invalid request parameters."
	MsgGeneric      = "Something went Wrong!"
	MsgTransport    = "Network error. Please check your connection."
)

// Error kinds. Every error returned by Client unwraps to one of these or to
// a context error.
var (
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrServer        = errors.New("server error")
	ErrTransport     = errors.New("transport error")
	ErrNotConfigured = errors.New("api base URL not configured")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	kind    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap returns the error kind.
func (e *APIError) Unwrap() error {
	return e.kind
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500
}

// StreamError is a failure after some of the stream was received. Partial
// holds the content accumulated before the error.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// errorFromResponse maps a status code and body to an *APIError.
// The body is the backend's {success, err} or {message} JSON, which may be
// missing or malformed.
func errorFromResponse(status int, body []byte) *APIError {
	switch status {
	case http.StatusTooManyRequests:
		return &APIError{Status: status, Message: MsgRateLimited, kind: ErrRateLimited}
	case http.StatusUnauthorized:
		return &APIError{Status: status, Message: MsgUnauthorized, kind: ErrUnauthorized}
	case http.StatusBadRequest:
		msg := jsonString(body, "message")
		if msg == "" {
			msg = MsgBadRequest
		}
		return &APIError{Status: status, Message: msg, kind: ErrBadRequest}
	default:
		msg := jsonString(body, "err")
		if msg == "" {
			msg = jsonString(body, "message")
		}
		if msg == "" {
			msg = MsgGeneric
		}
		return &APIError{Status: status, Message: msg, kind: ErrServer}
	}
}

func jsonString(body []byte, path string) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(body, path).String())
}

// UserMessage converts any error from this package into the text shown in
// a notification. Cancellation yields "" because it is not a failure the
// user needs to hear about.
func UserMessage(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out. Please try again."
	}
	if errors.Is(err, ErrTransport) {
		return MsgTransport
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgGeneric
}
