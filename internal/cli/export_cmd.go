// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - The "export" command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/abdulsamad/polychat/internal/export"
)

// HandleExport writes one thread as Markdown, HTML or JSON.
//
//	polychat export <id> [--format md|html|json] [--output DIR] [--theme light|dark] [--no-images] [--stdout]
func HandleExport(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "no-images", "no-metadata", "stdout")

	entry, err := resolveThread(ctx, app, p.Positional(0))
	if err != nil {
		return err
	}
	thread, msgs, err := app.Threads.Get(ctx, entry.Thread.ID)
	if err != nil {
		return &CommandError{Command: "export", Action: "read", Reason: "could not read thread", Err: err}
	}

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("output", ".")
	if o := p.Flag("o"); o != "" {
		opts.OutputDir = o
	}
	opts.Theme = p.FlagOrDefault("theme", opts.Theme)
	opts.IncludeImages = !p.BoolFlag("no-images")
	opts.IncludeMetadata = !p.BoolFlag("no-metadata")
	opts.Now = now

	exporter, err := export.ForFormat(p.Flag("format", "f"), opts)
	if err != nil {
		return &ValidationError{Field: "format", Value: p.Flag("format", "f"), Reason: "expected md, html or json"}
	}

	transcript := &export.Transcript{Thread: thread, Messages: msgs}

	if p.BoolFlag("stdout") {
		content, err := exporter.Export(transcript)
		if err != nil {
			return exportError(err)
		}
		_, err = app.Out.Write(content)
		return err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return &CommandError{Command: "export", Action: "write", Reason: "could not create output directory", Err: err}
	}
	path, err := export.ToFile(transcript, exporter, opts)
	if err != nil {
		return exportError(err)
	}
	fmt.Fprintf(app.Out, "%s Exported %d messages to %s\n", RenderStatus("ok"), len(msgs), path)
	return nil
}

func exportError(err error) error {
	if errors.Is(err, export.ErrEmptyTranscript) {
		return &ValidationError{Field: "thread", Reason: "has no messages to export"}
	}
	return &CommandError{Command: "export", Action: "write", Reason: "export failed", Err: err}
}
