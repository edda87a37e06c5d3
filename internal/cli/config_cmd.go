// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
//
// Two kinds of keys share the command: dotted app settings from the config
// file (api.base_url, chat.default_model, ...) and the preferences stored
// with the threads (language, imageSize, quality, style).
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/abdulsamad/polychat/internal/config"
	"github.com/abdulsamad/polychat/internal/model"
)

var preferenceKeys = []string{"language", "imageSize", "quality", "style"}

func isPreferenceKey(key string) bool {
	switch key {
	case "language", "imageSize", "image_size", "quality", "style":
		return true
	}
	return false
}

// HandleConfig dispatches the config subcommands.
func HandleConfig(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw)

	switch args.Subcommand {
	case "show", "list":
		return showConfig(app, args.JSON)
	case "get":
		return getConfig(app, p.Positional(1))
	case "set":
		return setConfig(ctx, app, args.ConfigPath, p.Positional(1), JoinPositionalArgs(p, 2))
	case "keys":
		for _, k := range append(config.AllKeys(), preferenceKeys...) {
			fmt.Fprintln(app.Out, k)
		}
		return nil
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "expected show, get, set or keys",
			Example: "polychat config set language hi-IN",
		}
	}
}

func showConfig(app *App, jsonMode bool) error {
	prefs := app.State.Config()

	if jsonMode {
		masked := app.Config.Clone()
		if masked.API.Token != "" {
			masked.API.Token = "********"
		}
		return writeJSON(app.Out, struct {
			Settings    *config.Config `json:"settings"`
			Preferences model.Config   `json:"preferences"`
		}{masked, prefs})
	}

	fmt.Fprintln(app.Out, SectionStyle.Render("Settings"))
	fmt.Fprint(app.Out, app.Config.String())
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, SectionStyle.Render("Preferences"))
	for _, key := range preferenceKeys {
		val, _ := prefs.Get(key)
		fmt.Fprintf(app.Out, "%s%s\n", RenderLabel(key), val)
	}
	return nil
}

func getConfig(app *App, key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "missing", Example: "polychat config get chat.default_model"}
	}

	if isPreferenceKey(key) {
		val, err := app.State.Config().Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.Out, val)
		return nil
	}

	val, err := app.Config.Get(key)
	if err != nil {
		return fmt.Errorf("%w (see `polychat config keys`)", err)
	}
	if key == "api.token" && val != "" {
		val = "********"
	}
	fmt.Fprintln(app.Out, val)
	return nil
}

func setConfig(ctx context.Context, app *App, configPath, key, value string) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "missing", Example: "polychat config set language hi-IN"}
	}
	value = strings.TrimSpace(value)

	if isPreferenceKey(key) {
		prefs := app.State.Config()
		if err := prefs.Set(key, value); err != nil {
			return err
		}
		if err := app.Collections.SaveConfig(ctx, prefs); err != nil {
			return &CommandError{Command: "config", Action: "set", Reason: "could not save preferences", Err: err}
		}
		app.State.SetConfig(prefs)
		fmt.Fprintf(app.Out, "%s %s = %s\n", RenderStatus("ok"), key, value)
		return nil
	}

	next := app.Config.Clone()
	if err := next.Set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	var err error
	if configPath != "" && filepath.Ext(configPath) == ".toml" {
		err = config.SaveTOML(next, configPath)
	} else {
		err = config.Save(next)
	}
	if err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: "could not write config file", Err: err}
	}
	*app.Config = *next

	shown := value
	if key == "api.token" {
		shown = "********"
	}
	fmt.Fprintf(app.Out, "%s %s = %s\n", RenderStatus("ok"), key, shown)
	return nil
}
