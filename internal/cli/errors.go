// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for CLI commands.
//
// STANDARDIZED PATTERN:
//   - Commands always return errors; main decides how to display them
//   - Errors already shown to the user are wrapped with reported()
//   - Exit codes follow the error category
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abdulsamad/polychat/internal/api"
	"github.com/abdulsamad/polychat/internal/config"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitInterrupted   = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "threads"
	Action  string // e.g. "delete"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// reportedError marks an error the user has already seen, e.g. through the
// responder's notifier. It is not displayed again but still sets the exit
// code.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w in a consistent format. Errors already shown
// are skipped.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	var shown *reportedError
	if errors.As(err, &shown) {
		return
	}

	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), FriendlyMessage(err))
}

// DisplayErrorJSON writes err as a JSON object.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]any{
		"error":   FriendlyMessage(err),
		"success": false,
	}

	var (
		cmdErr      *CommandError
		validErr    *ValidationError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	case errors.As(err, &validErr):
		output["error_type"] = "validation_error"
		output["field"] = validErr.Field
	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["resource"] = notFoundErr.Resource
		output["id"] = notFoundErr.ID
	default:
		output["error_type"] = "generic_error"
	}
	output["exit_code"] = GetExitCode(err)

	_ = writeJSON(w, output)
}

// FriendlyMessage returns the text shown for err. Backend errors use the
// same wording as the chat view.
func FriendlyMessage(err error) string {
	if msg := api.UserMessage(err); msg != "" && isAPIError(err) {
		return msg
	}
	if errors.Is(err, storage.ErrUnavailable) {
		return "The database is unavailable: " + err.Error()
	}
	return err.Error()
}

func isAPIError(err error) bool {
	var apiErr *api.APIError
	var streamErr *api.StreamError
	return errors.As(err, &apiErr) || errors.As(err, &streamErr) || errors.Is(err, api.ErrTransport)
}

// HandleErrorAndExit displays err on stderr and exits with its exit code.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(os.Stderr, err, jsonMode)
	os.Exit(GetExitCode(err))
}

// GetExitCode maps err to an exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validationErr *ValidationError
		ttyErr        *TTYRequiredError
		notFoundErr   *NotFoundError
		cfgErr        config.ValidateErrors
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &validationErr),
		errors.As(err, &ttyErr),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, model.ErrUnknownModel),
		errors.Is(err, model.ErrInvalidPreference),
		errors.Is(err, config.ErrUnknownKey):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.Is(err, api.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, api.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, api.ErrTransport):
		return ExitNetworkError
	case errors.As(err, &notFoundErr), errors.Is(err, storage.ErrNotFound):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}
