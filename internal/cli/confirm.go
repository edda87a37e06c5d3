// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive CLI actions.
//
// The pattern:
//  1. If --yes is present, proceed without prompting
//  2. If --json mode, require --yes (no interactive prompts in JSON mode)
//  3. If stdin is not a TTY, require --yes (can't prompt)
//  4. Otherwise, show the details and ask
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Detail is one labelled line shown before a confirmation prompt.
type Detail struct {
	Label string
	Value string
}

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Yes is set when --yes was passed.
	Yes bool
	// JSONMode forbids interactive prompts.
	JSONMode bool
}

// ErrConfirmationRequired is returned when a prompt is needed but cannot be
// shown.
var ErrConfirmationRequired = errors.New("confirmation required: pass --yes")

// RequireConfirmation asks the user to confirm action on w after showing
// details. It returns false when the user declines.
func RequireConfirmation(w io.Writer, action string, details []Detail, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode {
		return false, ErrConfirmationRequired
	}
	if !stdinIsTTY() {
		return false, &TTYRequiredError{Operation: "confirm", Hint: "pass --yes"}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, WarningStyle.Render("WARNING: Destructive Action"))
	fmt.Fprintln(w, RenderSeparator(50))
	for _, d := range details {
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(d.Label+":"), d.Value)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ErrorStyle.Render("This action cannot be undone."))
	fmt.Fprintf(w, "Are you sure you want to %s? [y/N]: ", action)

	return readYes()
}

// ShowCancellationMessage displays a standard cancellation message.
func ShowCancellationMessage(w io.Writer) {
	fmt.Fprintln(w, DimStyle.Render("Cancelled."))
}

func readYes() (bool, error) {
	input, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
