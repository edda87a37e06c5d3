// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/model"
)

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "invalid URL '%s', must be http(s)://host[/path]", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 3600 {
		add("api.timeout", "must be between 1 and 3600 seconds, got %d", c.API.TimeoutSecs)
	}
	if c.API.MaxRetries < 1 || c.API.MaxRetries > 10 {
		add("api.max_retries", "must be between 1 and 10, got %d", c.API.MaxRetries)
	}

	// Storage
	if c.Storage.DebounceMs < 50 || c.Storage.DebounceMs > 60000 {
		add("storage.debounce_ms", "must be between 50 and 60000, got %d", c.Storage.DebounceMs)
	}

	// Chat
	if c.Chat.ThrottleMs < 0 || c.Chat.ThrottleMs > 10000 {
		add("chat.throttle_ms", "must be between 0 and 10000, got %d", c.Chat.ThrottleMs)
	}
	if _, err := model.Lookup(c.Chat.DefaultModel); err != nil {
		add("chat.default_model", "unknown model '%s'", c.Chat.DefaultModel)
	}
	if _, err := model.LookupVariation(c.Chat.DefaultVariation); err != nil {
		add("chat.default_variation", "unknown variation '%s'", c.Chat.DefaultVariation)
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	// Logging
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "invalid level '%s'", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", "invalid format '%s', must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
