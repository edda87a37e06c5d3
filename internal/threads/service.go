// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package threads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/logging"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/persist"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/storage"
)

// previewLen is the rune budget of Entry.Preview.
const previewLen = 60

// ErrEmptyName is returned by Rename for a blank name.
var ErrEmptyName = errors.New("thread name cannot be empty")

// Canceler stops an in-flight response and waits for it. *chat.Responder
// implements it.
type Canceler interface {
	Cancel()
}

// ConfirmFunc decides whether a destructive action on t goes ahead.
type ConfirmFunc func(t model.Thread) bool

// Options configures a Service.
type Options struct {
	// Defaults are the settings of the thread installed after the active
	// thread is deleted. Zero uses model.DefaultThread's settings.
	Defaults model.Settings

	Logger logrus.FieldLogger
}

// Entry is one row of the thread list.
type Entry struct {
	Thread   model.Thread
	Messages int
	Preview  string
	Active   bool
}

// Service manages the persisted thread list.
type Service struct {
	state    *state.State
	cols     *storage.Collections
	effects  *persist.Effects
	canceler Canceler
	log      logrus.FieldLogger

	mu       sync.Mutex
	defaults model.Settings
}

// New creates a Service. canceler may be nil.
func New(st *state.State, cols *storage.Collections, effects *persist.Effects, canceler Canceler, opts Options) *Service {
	if opts.Defaults.Model == "" {
		opts.Defaults = model.DefaultThread().Settings
	}
	if opts.Logger == nil {
		opts.Logger = logging.For("threads")
	}
	return &Service{
		state:    st,
		cols:     cols,
		effects:  effects,
		canceler: canceler,
		defaults: opts.Defaults,
		log:      opts.Logger,
	}
}

// SetDefaults replaces the settings used for the thread installed after
// the active one is deleted.
func (s *Service) SetDefaults(settings model.Settings) {
	if settings.Model == "" {
		return
	}
	s.mu.Lock()
	s.defaults = settings
	s.mu.Unlock()
}

func (s *Service) newThread() model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NewThread(s.defaults)
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns the persisted threads in store order, most recent first.
// Pending writes of the active thread are flushed first so it appears with
// its latest state.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	s.flush(ctx)

	threads, err := s.cols.LoadThreads(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.cols.LoadMessages(ctx)
	if err != nil {
		return nil, err
	}

	active := s.state.ThreadID()
	entries := make([]Entry, 0, len(threads))
	for _, t := range threads {
		entries = append(entries, Entry{
			Thread:   t,
			Messages: len(msgs[t.ID]),
			Preview:  preview(msgs[t.ID]),
			Active:   t.ID == active,
		})
	}
	return entries, nil
}

// Get returns one persisted thread and its messages.
func (s *Service) Get(ctx context.Context, id string) (model.Thread, []model.Message, error) {
	s.flush(ctx)
	return s.load(ctx, id)
}

// preview is the first user message, shortened for a list row.
func preview(msgs []model.Message) string {
	for _, m := range msgs {
		if m.Role == model.RoleUser {
			return m.Preview(previewLen)
		}
	}
	return ""
}

// =============================================================================
// ACTIVE THREAD
// =============================================================================

// Select makes the persisted thread id active, loading its messages.
// Selecting the active thread is a no-op.
func (s *Service) Select(ctx context.Context, id string) error {
	if s.state.ThreadID() == id {
		return nil
	}

	s.cancel()
	s.flush(ctx)

	thread, msgs, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	s.state.Switch(thread, msgs)
	s.log.WithField("thread", id).Debug("thread selected")
	return nil
}

// NewChat installs a fresh thread that keeps the current settings.
func (s *Service) NewChat(ctx context.Context) model.Thread {
	s.cancel()
	s.flush(ctx)
	return s.state.NewChat()
}

func (s *Service) load(ctx context.Context, id string) (model.Thread, []model.Message, error) {
	thread, err := s.cols.FindThread(ctx, id)
	if err != nil {
		return model.Thread{}, nil, err
	}
	msgs, err := s.cols.ThreadMessages(ctx, id)
	if err != nil {
		return model.Thread{}, nil, err
	}
	return thread, msgs, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Delete removes thread id and all of its messages after confirm approves.
// It reports whether anything was deleted. When the active thread is
// deleted, a fresh default thread with no messages replaces it.
func (s *Service) Delete(ctx context.Context, id string, confirm ConfirmFunc) (bool, error) {
	active := s.state.ThreadID() == id

	thread, err := s.cols.FindThread(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound) && active:
		// Active but never persisted.
		thread, _ = s.state.Thread()
	default:
		return false, err
	}

	if confirm != nil && !confirm(thread) {
		return false, nil
	}

	if active {
		s.cancel()
		s.state.Switch(s.newThread(), nil)
	}
	s.flush(ctx)

	// Both writes are attempted; a failure in one leaves the other in place
	// and is reported.
	err = s.effects.Exclusive(ctx, func(ctx context.Context) error {
		return errors.Join(s.removeThread(ctx, id), s.removeMessages(ctx, id))
	})
	if err != nil {
		return false, fmt.Errorf("delete thread %s: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{"thread": id, "active": active}).Info("thread deleted")
	return true, nil
}

func (s *Service) removeThread(ctx context.Context, id string) error {
	threads, err := s.cols.LoadThreads(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.Thread, 0, len(threads))
	for _, t := range threads {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return s.cols.SaveThreads(ctx, kept)
}

func (s *Service) removeMessages(ctx context.Context, id string) error {
	msgs, err := s.cols.LoadMessages(ctx)
	if err != nil {
		return err
	}
	if _, ok := msgs[id]; !ok {
		return nil
	}
	delete(msgs, id)
	return s.cols.SaveMessages(ctx, msgs)
}

// Rename sets the display name of thread id.
func (s *Service) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	if s.state.ThreadID() == id {
		// The thread watcher persists the change.
		return s.state.UpdateThread(func(t *model.Thread) {
			t.Metadata.Name = name
		})
	}

	return s.effects.Exclusive(ctx, func(ctx context.Context) error {
		threads, err := s.cols.LoadThreads(ctx)
		if err != nil {
			return err
		}
		for i := range threads {
			if threads[i].ID == id {
				threads[i].Metadata.Name = name
				return s.cols.SaveThreads(ctx, threads)
			}
		}
		return fmt.Errorf("%w: thread %s", storage.ErrNotFound, id)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) cancel() {
	if s.canceler != nil {
		s.canceler.Cancel()
	}
}

// flush writes pending state. A failure is logged; the caller proceeds
// with what the store holds.
func (s *Service) flush(ctx context.Context) {
	if err := s.effects.Flush(ctx); err != nil {
		s.log.WithError(err).Warn("flush before thread operation failed")
	}
}
