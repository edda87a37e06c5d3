// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The "ask" command: one prompt, one streamed answer.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// maxInputBytes bounds prompt text read from a file or stdin.
const maxInputBytes = 1 << 20

var (
	// stdin and stdinIsTTY are replaced in tests.
	stdin      io.Reader = os.Stdin
	stdinIsTTY           = IsTTY
)

// HandleAsk sends args.Query in a new thread and prints the answer.
//
// Piped stdin and --file contents are appended to the prompt, so
// `git diff | polychat ask "review this"` sends both.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	prompt, err := askPrompt(args)
	if err != nil {
		return err
	}
	if prompt == "" {
		return &ValidationError{
			Field:   "prompt",
			Reason:  "nothing to ask",
			Example: `polychat ask "What is a goroutine?"`,
		}
	}

	app.Threads.NewChat(ctx)
	if err := app.ApplySettings(args.Model, args.Variation); err != nil {
		return err
	}

	render := args.Render && IsStdoutTTY()
	msg, err := respond(ctx, app, app.Out, prompt, render)
	flushErr := app.Flush(context.WithoutCancel(ctx))

	if err != nil {
		// The responder has already shown the error; a cancel shows nothing.
		return reported(err)
	}

	if render {
		if msg.IsImage() {
			fmt.Fprintln(app.Out, imageCaption(msg))
		} else {
			fmt.Fprint(app.Out, renderMarkdown(msg.Content, GetTerminalWidth()))
		}
	}
	if msg.IsImage() {
		thread, _ := app.State.Thread()
		fmt.Fprintln(app.Err, DimStyle.Render(fmt.Sprintf("Save it with: polychat export %s", shortID(thread.ID))))
	}
	return flushErr
}

// askPrompt joins the query, the --file contents and piped stdin.
func askPrompt(args Args) (string, error) {
	parts := []string{strings.TrimSpace(args.Query)}

	if args.File != "" {
		data, err := readLimited(args.File)
		if err != nil {
			return "", err
		}
		parts = append(parts, string(data))
	}

	if !stdinIsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxInputBytes+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if len(data) > maxInputBytes {
			return "", &ValidationError{Field: "stdin", Reason: "input larger than 1 MiB"}
		}
		parts = append(parts, string(data))
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &NotFoundError{Resource: "file", ID: path}
	}
	if info.Size() > maxInputBytes {
		return nil, &ValidationError{Field: "file", Value: path, Reason: "larger than 1 MiB"}
	}
	return os.ReadFile(path)
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for the terminal, returning it unchanged
// if the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
