// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// polychat.
//
// Every command runs against an App, which wires the store, state,
// persistence effects, backend client, responder and thread service the
// same way the full-screen interface does. Output goes to the writers on
// App so commands can be tested without a terminal.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global flags and command arguments
//   - ArgParser: Flag and positional parsing shared by subcommands
//   - App: Runtime wiring for one invocation
//   - ChatCLI: Line editing and history for the chat REPL
//
// # Usage
//
//	cmd, args := cli.Parse()
//	app, err := cli.NewApp(ctx, cfg, cli.AppOptions{Notifier: notify.NewConsole(os.Stderr, args.Quiet)})
//	if err != nil {
//	    cli.HandleErrorAndExit(err, args.JSON)
//	}
//	defer app.Close()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, app, args)
//	case cli.CmdThreads:
//	    err = cli.HandleThreads(ctx, app, args)
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default)
//   - ask: One prompt, streamed answer, in a new thread
//   - chat: Line-based chat with slash commands
//   - threads: list, show, delete, rename
//   - config: show, get, set for app settings and preferences
//   - export: Write a thread as Markdown, HTML or JSON
//   - models: Model catalog and variations
package cli
