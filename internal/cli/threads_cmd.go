// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// threads_cmd.go - The "threads" command: list, show, delete, rename.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdulsamad/polychat/internal/export"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/util"
)

const (
	shortIDLen    = 8
	nameColWidth  = 28
	modelColWidth = 22
)

// now is replaced in tests.
var now = time.Now

// HandleThreads dispatches the threads subcommands.
func HandleThreads(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "yes", "y")

	switch args.Subcommand {
	case "list", "ls":
		return listThreads(ctx, app, p.FlagIntOrDefault("limit", 0), args.JSON)
	case "show", "cat":
		return showThread(ctx, app, p.Positional(1), args.JSON)
	case "delete", "rm":
		return deleteThread(ctx, app, p.Positional(1), ConfirmationOptions{
			Yes:      p.BoolFlag("yes", "y"),
			JSONMode: args.JSON,
		})
	case "rename", "mv":
		return renameThread(ctx, app, p.Positional(1), JoinPositionalArgs(p, 2))
	default:
		return &ValidationError{
			Field:   "threads subcommand",
			Value:   args.Subcommand,
			Reason:  "expected list, show, delete or rename",
			Example: "polychat threads delete 3f2a --yes",
		}
	}
}

// =============================================================================
// LIST
// =============================================================================

// threadJSON is one row of `threads list --json`.
type threadJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Variation string    `json:"variation"`
	Messages  int       `json:"messages"`
	Preview   string    `json:"preview,omitempty"`
	Active    bool      `json:"active"`
	Created   time.Time `json:"created"`
}

func listThreads(ctx context.Context, app *App, limit int, jsonMode bool) error {
	entries, err := app.Threads.List(ctx)
	if err != nil {
		return &CommandError{Command: "threads", Action: "list", Reason: "could not read threads", Err: err}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if jsonMode {
		rows := make([]threadJSON, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, threadJSON{
				ID:        e.Thread.ID,
				Name:      e.Thread.Metadata.Name,
				Model:     e.Thread.Settings.Model,
				Variation: e.Thread.Settings.Variation,
				Messages:  e.Messages,
				Preview:   e.Preview,
				Active:    e.Active,
				Created:   e.Thread.Time(),
			})
		}
		return writeJSON(app.Out, rows)
	}

	printThreadList(app.Out, entries, now())
	return nil
}

func printThreadList(w io.Writer, entries []threads.Entry, at time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No saved threads yet. Start one with `polychat ask` or `polychat chat`."))
		return
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Threads (%d)", len(entries))))
	for _, e := range entries {
		marker := "  "
		if e.Active {
			marker = activeColor.Sprint("* ")
		}
		name := util.PadRight(util.TruncateWidth(threadTitle(e.Thread), nameColWidth), nameColWidth)
		modelName := util.PadRight(util.TruncateWidth(e.Thread.Settings.Model, modelColWidth), modelColWidth)

		fmt.Fprintf(w, "%s%s  %s  %s  %s  %s\n",
			marker,
			idColor.Sprint(shortID(e.Thread.ID)),
			name,
			mutedColor.Sprint(modelName),
			fmt.Sprintf("%3d msgs", e.Messages),
			mutedColor.Sprint(util.RelativeTime(e.Thread.Time(), at)),
		)
		if e.Preview != "" {
			fmt.Fprintf(w, "  %s  %s\n", strings.Repeat(" ", shortIDLen), mutedColor.Sprint(e.Preview))
		}
	}
}

// =============================================================================
// SHOW
// =============================================================================

func showThread(ctx context.Context, app *App, ref string, jsonMode bool) error {
	entry, err := resolveThread(ctx, app, ref)
	if err != nil {
		return err
	}
	thread, msgs, err := app.Threads.Get(ctx, entry.Thread.ID)
	if err != nil {
		return &CommandError{Command: "threads", Action: "show", Reason: "could not read thread", Err: err}
	}

	if jsonMode {
		return writeJSON(app.Out, export.Transcript{Thread: thread, Messages: msgs})
	}

	fmt.Fprintln(app.Out, TitleStyle.Render(threadTitle(thread)))
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("ID:"), thread.ID)
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("Model:"), thread.Settings.Model)
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("Variation:"), thread.Settings.Variation)
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("Created:"), thread.Time().Format("2006-01-02 15:04"))
	fmt.Fprintf(app.Out, "%s%d\n", RenderLabel("Messages:"), len(msgs))
	fmt.Fprintln(app.Out, RenderSeparator())
	printTranscript(app.Out, msgs)
	return nil
}

// printTranscript writes msgs as labelled blocks.
func printTranscript(w io.Writer, msgs []model.Message) {
	for i, m := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		label := userColor
		if m.Role == model.RoleAssistant {
			label = assistantColor
		}
		stamp := mutedColor.Sprint(m.Time().Format("15:04"))
		fmt.Fprintf(w, "%s %s\n", label.Sprint(m.Role.DisplayName()), stamp)
		if m.IsImage() {
			fmt.Fprintln(w, imageCaption(m))
			continue
		}
		fmt.Fprintln(w, strings.TrimRight(m.Content, "\n"))
	}
}

// =============================================================================
// DELETE / RENAME
// =============================================================================

func deleteThread(ctx context.Context, app *App, ref string, opts ConfirmationOptions) error {
	entry, err := resolveThread(ctx, app, ref)
	if err != nil {
		return err
	}

	var confirmErr error
	deleted, err := app.Threads.Delete(ctx, entry.Thread.ID, func(t model.Thread) bool {
		ok, err := RequireConfirmation(app.Err, "delete this thread", []Detail{
			{Label: "Thread", Value: threadTitle(t)},
			{Label: "ID", Value: t.ID},
			{Label: "Messages", Value: fmt.Sprint(entry.Messages)},
		}, opts)
		confirmErr = err
		return ok
	})
	if confirmErr != nil {
		return confirmErr
	}
	if err != nil {
		return &CommandError{Command: "threads", Action: "delete", Reason: "could not delete thread", Err: err}
	}
	if !deleted {
		ShowCancellationMessage(app.Err)
		return nil
	}

	if err := app.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%s Deleted %s\n", RenderStatus("ok"), threadTitle(entry.Thread))
	return nil
}

func renameThread(ctx context.Context, app *App, ref, name string) error {
	entry, err := resolveThread(ctx, app, ref)
	if err != nil {
		return err
	}
	if err := app.Threads.Rename(ctx, entry.Thread.ID, name); err != nil {
		if errors.Is(err, threads.ErrEmptyName) {
			return &ValidationError{Field: "name", Reason: "cannot be empty", Example: "polychat threads rename 3f2a Trip planning"}
		}
		return &CommandError{Command: "threads", Action: "rename", Reason: "could not rename thread", Err: err}
	}
	if err := app.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%s Renamed to %s\n", RenderStatus("ok"), strings.TrimSpace(name))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveThread finds the saved thread whose id is ref or starts with it.
func resolveThread(ctx context.Context, app *App, ref string) (threads.Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return threads.Entry{}, &ValidationError{Field: "thread id", Reason: "missing", Example: "polychat threads list"}
	}
	entries, err := app.Threads.List(ctx)
	if err != nil {
		return threads.Entry{}, err
	}
	return matchThread(entries, ref)
}

func matchThread(entries []threads.Entry, ref string) (threads.Entry, error) {
	var matches []threads.Entry
	for _, e := range entries {
		if e.Thread.ID == ref {
			return e, nil
		}
		if strings.HasPrefix(e.Thread.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return threads.Entry{}, &NotFoundError{Resource: "thread", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return threads.Entry{}, &ValidationError{
			Field:  "thread id",
			Value:  ref,
			Reason: fmt.Sprintf("matches %d threads, use more characters", len(matches)),
		}
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func threadTitle(t model.Thread) string {
	if name := strings.TrimSpace(t.Metadata.Name); name != "" {
		return name
	}
	return model.ThreadName(t.Time())
}
