// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Runtime wiring shared by every command and the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/api"
	"github.com/abdulsamad/polychat/internal/chat"
	"github.com/abdulsamad/polychat/internal/config"
	"github.com/abdulsamad/polychat/internal/logging"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/notify"
	"github.com/abdulsamad/polychat/internal/persist"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/storage"
	"github.com/abdulsamad/polychat/internal/threads"
)

// AppOptions overrides parts of the wiring. Zero values use the
// configured defaults.
type AppOptions struct {
	// Store replaces the SQLite database at cfg.Storage.DBPath().
	Store storage.Store

	// Notifier receives response errors. Nil prints to Err.
	Notifier chat.Notifier

	// Feedback signals completed responses. Nil uses the terminal bell
	// and screen flash per cfg.UI.
	Feedback chat.Feedback

	// Speaker reads responses aloud. Nil runs cfg.UI.SpeechCommand when
	// one is configured.
	Speaker chat.Speaker

	// Recognizer provides voice input. Nil runs cfg.UI.ListenCommand when
	// one is configured.
	Recognizer chat.Recognizer

	// HTTPClient replaces the backend HTTP clients, mainly for tests.
	HTTPClient *http.Client

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer

	Logger logrus.FieldLogger
}

// App is one wired polychat runtime.
type App struct {
	Config      *config.Config
	State       *state.State
	Collections *storage.Collections
	Effects     *persist.Effects
	Client      *api.Client
	Responder   *chat.Responder
	Threads     *threads.Service

	// VoiceInput reports whether a Recognizer is wired.
	VoiceInput bool

	Out io.Writer
	Err io.Writer

	store storage.Store
	log   logrus.FieldLogger
}

// NewApp opens the store, restores the most recent thread and starts the
// persistence watchers. Close must be called to flush pending writes.
func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = logging.For("cli")
	}

	store := opts.Store
	if store == nil {
		path, err := cfg.Storage.DBPath()
		if err != nil {
			return nil, err
		}
		sqlite, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		store = sqlite
	}

	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Token:      cfg.API.Token,
		Timeout:    cfg.API.Timeout(),
		MaxRetries: cfg.API.MaxRetries,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewConsole(opts.Err, false)
	}
	feedback := opts.Feedback
	if feedback == nil {
		feedback = notify.NewTerminal(opts.Err, cfg.UI.Sound, cfg.UI.Haptic)
	}
	speaker := opts.Speaker
	if speaker == nil && cfg.UI.SpeechCommand != "" {
		speaker = notify.NewCommandSpeaker(cfg.UI.SpeechCommand)
	}
	recognizer := opts.Recognizer
	if recognizer == nil && cfg.UI.ListenCommand != "" {
		recognizer = notify.NewCommandRecognizer(cfg.UI.ListenCommand)
	}

	cols := storage.NewCollections(store)
	app := &App{
		Config:      cfg,
		VoiceInput:  recognizer != nil,
		Collections: cols,
		Client:      client,
		Out:         opts.Out,
		Err:         opts.Err,
		store:       store,
		log:         opts.Logger,
	}

	prefs, err := cols.LoadConfig(ctx)
	if err != nil {
		app.log.WithError(err).Warn("could not load preferences, using defaults")
		prefs = model.DefaultConfig()
	}
	app.State = state.New(prefs)
	app.Effects = persist.New(app.State, cols, persist.Options{Debounce: cfg.Storage.Debounce()})
	app.Responder = chat.NewResponder(app.State, client, chat.Options{
		Throttle:   cfg.Chat.Throttle(),
		Notifier:   notifier,
		Feedback:   feedback,
		Speaker:    speaker,
		Recognizer: recognizer,
	})
	app.Threads = threads.New(app.State, cols, app.Effects, app.Responder, threads.Options{
		Defaults: cfg.Chat.DefaultSettings(),
	})

	if err := app.restore(ctx); err != nil {
		store.Close()
		return nil, err
	}

	// Started after restore so loading the last thread is not written back.
	app.Effects.Start(ctx)
	return app, nil
}

// restore makes the most recent thread active, or a new thread with the
// configured defaults when none is saved.
func (a *App) restore(ctx context.Context) error {
	saved, err := a.Collections.LoadThreads(ctx)
	if err != nil {
		return fmt.Errorf("load threads: %w", err)
	}
	if len(saved) == 0 {
		a.State.Switch(model.NewThread(a.Config.Chat.DefaultSettings()), nil)
		return nil
	}

	latest := saved[0]
	msgs, err := a.Collections.ThreadMessages(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	// A crash mid-response leaves a stale status behind.
	latest.Metadata.Status = model.StatusIdle
	a.State.Switch(latest, msgs)
	a.log.WithField("thread", latest.ID).Debug("restored thread")
	return nil
}

// ApplySettings overrides the active thread's model and variation. Empty
// values are left unchanged.
func (a *App) ApplySettings(modelName, variation string) error {
	if modelName == "" && variation == "" {
		return nil
	}
	if modelName != "" {
		if _, err := model.Lookup(modelName); err != nil {
			return &ValidationError{Field: "model", Value: modelName, Reason: "not in the catalog", Example: "polychat models"}
		}
	}
	var v model.Variation
	if variation != "" {
		var err error
		if v, err = model.LookupVariation(variation); err != nil {
			return &ValidationError{Field: "variation", Value: variation, Reason: "unknown variation", Example: "polychat models"}
		}
	}
	return a.State.UpdateThread(func(t *model.Thread) {
		if modelName != "" {
			t.Settings.Model = modelName
		}
		if variation != "" {
			t.Settings.Variation = v.Code
			t.Settings.ModelConfig = v.ModelConfig()
		}
	})
}

// Reload applies a config file edited while the app runs. The log level
// and new-thread defaults take effect at once; backend and storage changes
// need a restart.
func (a *App) Reload(next *config.Config) {
	if next == nil {
		return
	}
	if lvl, err := logging.ParseLevel(next.Logging.Level); err == nil {
		logging.Log.SetLevel(lvl)
	}
	if next.API != a.Config.API || next.Storage != a.Config.Storage {
		a.log.Warn("backend or storage settings changed, restart to apply")
	}
	a.Threads.SetDefaults(next.Chat.DefaultSettings())
	a.Config.Chat = next.Chat
	a.Config.UI = next.UI
	a.Config.Logging = next.Logging
	a.log.Info("config reloaded")
}

// Close stops in-flight work, flushes pending writes and closes the store.
func (a *App) Close() error {
	a.Responder.Cancel()
	a.Effects.Stop()
	return a.store.Close()
}

// Flush writes pending state now and reports write failures.
func (a *App) Flush(ctx context.Context) error {
	if err := a.Effects.Flush(ctx); err != nil {
		return errors.Join(errors.New("could not save conversation"), err)
	}
	return nil
}
