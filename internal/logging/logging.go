// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide logrus logger.
//
// The TUI owns stdout, so log output goes to a file under the data
// directory unless a caller points it elsewhere. Components receive a
// logrus.FieldLogger tagged with a "component" field:
//
//	log := logging.For("persist")
//	log.WithError(err).Warn("flush failed")
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It discards output until Setup is called.
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetOutput(io.Discard)
	Log.SetLevel(levelFromEnv(logrus.InfoLevel))
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// Options controls Setup.
type Options struct {
	// Level is one of debug, info, warn, error. Empty keeps the current level.
	Level string

	// Format is "json" (default) or "text".
	Format string

	// File is the log file path. Empty means Output is used instead.
	File string

	// Output is used when File is empty. Nil discards output.
	Output io.Writer
}

// Setup applies opts to Log. The returned closer releases the log file.
func Setup(opts Options) (io.Closer, error) {
	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		Log.SetLevel(lvl)
	}
	// Env wins over config so a one-off run can turn on debug logging.
	Log.SetLevel(levelFromEnv(Log.GetLevel()))

	switch strings.ToLower(opts.Format) {
	case "text":
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	default:
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if opts.File == "" {
		if opts.Output == nil {
			Log.SetOutput(io.Discard)
		} else {
			Log.SetOutput(opts.Output)
		}
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Log.SetOutput(f)
	return f, nil
}

// For returns an entry tagged with component.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
}

func levelFromEnv(fallback logrus.Level) logrus.Level {
	v := os.Getenv("POLYCHAT_LOG_LEVEL")
	if v == "" {
		return fallback
	}
	lvl, err := ParseLevel(v)
	if err != nil {
		return fallback
	}
	return lvl
}
