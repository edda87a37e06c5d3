// polychat - chat with many AI models from the terminal.
//
// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdulsamad/polychat/internal/cli"
	"github.com/abdulsamad/polychat/internal/config"
	"github.com/abdulsamad/polychat/internal/logging"
	"github.com/abdulsamad/polychat/internal/notify"
	"github.com/abdulsamad/polychat/internal/ui/chat"
	"github.com/abdulsamad/polychat/internal/ui/components"
	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	if args.NoColor {
		cli.DisableColors()
	}

	if !cmd.NeedsApp() {
		cli.HandleErrorAndExit(runStandalone(cmd, args), args.JSON)
		return
	}

	cfg, err := loadConfig(args.ConfigPath)
	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
	}

	logCloser, err := setupLogging(cfg)
	if err != nil {
		// Logging is best effort; the commands still work.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		logCloser = io.NopCloser(nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, args, cfg)
	stop()
	logCloser.Close()

	cli.HandleErrorAndExit(err, args.JSON)
}

// runStandalone handles the commands that need neither the store nor the
// backend.
func runStandalone(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdVersion:
		return cli.HandleVersion(os.Stdout, args)
	case cli.CmdModels:
		return cli.HandleModels(os.Stdout, args)
	default:
		if args.Unknown != "" {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Unknown)
			cli.PrintUsage(os.Stderr)
			return &cli.ValidationError{Field: "command", Value: args.Unknown, Reason: "not recognized", Example: "polychat help"}
		}
		cli.PrintUsage(os.Stdout)
		return nil
	}
}

func run(ctx context.Context, cmd cli.Command, args cli.Args, cfg *config.Config) (err error) {
	if cmd == cli.CmdTUI {
		return runTUI(ctx, args, cfg)
	}

	app, err := cli.NewApp(ctx, cfg, cli.AppOptions{
		Notifier: notify.NewConsole(os.Stderr, args.Quiet),
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, app, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, app, args)
	case cli.CmdThreads:
		return cli.HandleThreads(ctx, app, args)
	case cli.CmdConfig:
		return cli.HandleConfig(ctx, app, args)
	case cli.CmdExport:
		return cli.HandleExport(ctx, app, args)
	default:
		return fmt.Errorf("unhandled command: %s", cmd)
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(ctx context.Context, args cli.Args, cfg *config.Config) error {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		return &cli.TTYRequiredError{Operation: "the chat interface", Hint: "use `polychat ask` or `polychat chat`"}
	}

	toasts := components.NewToastManager()
	app, err := cli.NewApp(ctx, cfg, cli.AppOptions{Notifier: toasts})
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.ApplySettings(args.Model, args.Variation); err != nil {
		return err
	}

	if path, ok := watchedConfigPath(args.ConfigPath); ok {
		if err := config.Watch(ctx, path, app.Reload); err != nil {
			logging.For("main").WithError(err).Warn("config hot reload disabled")
		}
	}

	m := chat.New(ctx, chat.Deps{
		State:     app.State,
		Responder: app.Responder,
		Threads:   app.Threads,
		Toasts:    toasts,
		Theme:     styles.NewTheme(cfg.UI.Theme),
		Logger:    logging.For("ui"),

		VoiceInput: app.VoiceInput,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat interface: %w", err)
	}
	return app.Flush(context.WithoutCancel(ctx))
}

// =============================================================================
// CONFIG AND LOGGING
// =============================================================================

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// watchedConfigPath returns the config file to hot reload: the explicit
// path, else the first existing default.
func watchedConfigPath(explicit string) (string, bool) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		return abs, err == nil
	}
	paths, err := config.ConfigPaths()
	if err != nil {
		return "", false
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func setupLogging(cfg *config.Config) (io.Closer, error) {
	path, err := cfg.Logging.LogPath()
	if err != nil {
		return nil, err
	}
	return logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   path,
	})
}
