// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/logging"
)

// DefaultReloadDebounce collapses the burst of events an editor save emits.
const DefaultReloadDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config)
	log      logrus.FieldLogger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches path. onChange receives each successfully loaded and
// validated config; invalid edits are logged and ignored.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file by rename.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		debounce: DefaultReloadDebounce,
		onChange: onChange,
		log:      logging.For("config"),
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("config watch error")

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.log.WithError(err).WithField("path", w.path).Warn("config reload rejected")
		return
	}
	w.log.WithField("path", w.path).Info("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Watch starts a Watcher on path in the background.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	w, err := NewWatcher(path, onChange)
	if err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}
