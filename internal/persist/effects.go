// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/logging"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/storage"
)

// DefaultDebounce is the quiet period before a watcher writes.
const DefaultDebounce = 750 * time.Millisecond

// stopFlushTimeout bounds the final flush when Effects stops.
const stopFlushTimeout = 5 * time.Second

// Options configures Effects.
type Options struct {
	// Debounce is the quiet period before writing. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger receives write failures. Nil uses the package logger.
	Logger logrus.FieldLogger
}

// Effects owns the thread and message watchers.
type Effects struct {
	state *state.State
	cols  *storage.Collections
	log   logrus.FieldLogger

	threads  *watcher
	messages *watcher

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped chan struct{}
	running bool
}

// New creates Effects. Call Start to begin watching.
func New(st *state.State, cols *storage.Collections, opts Options) *Effects {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.For("persist")
	}

	e := &Effects{state: st, cols: cols, log: opts.Logger}
	e.threads = newWatcher("threads", opts.Debounce, e.log, e.flushThread,
		state.ThreadChanged)
	e.messages = newWatcher("messages", opts.Debounce, e.log, e.flushMessages,
		state.ThreadChanged, state.MessagesChanged)
	return e
}

// Start subscribes both watchers and returns immediately. Starting twice is
// a no-op.
func (e *Effects) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	var wg sync.WaitGroup
	for _, w := range []*watcher{e.threads, e.messages} {
		events := e.state.Subscribe(ctx, w.kinds...)
		wg.Add(1)
		go func(w *watcher) {
			defer wg.Done()
			w.run(ctx, events)
		}(w)
	}

	stopped := make(chan struct{})
	e.stopped = stopped
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		wg.Wait()
		close(stopped)
	}()
}

// Run starts the watchers and blocks until ctx is done and the final
// flush has completed.
func (e *Effects) Run(ctx context.Context) {
	e.Start(ctx)
	<-ctx.Done()
	e.Stop()
}

// Stop cancels the watchers and waits for their final flush.
func (e *Effects) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
}

// Flush writes both collections now instead of waiting for the debounce
// window. Unlike the background path it returns the write errors.
func (e *Effects) Flush(ctx context.Context) error {
	e.mu.Lock()
	running, stopped := e.running, e.stopped
	e.mu.Unlock()

	if !running {
		return errors.Join(e.threads.flushNow(ctx), e.messages.flushNow(ctx))
	}
	return errors.Join(e.threads.request(ctx, stopped), e.messages.request(ctx, stopped))
}

// Invalidate forgets what was last persisted so the next flush always
// performs a full read-modify-write. Call it after writing the collections
// from outside Effects.
func (e *Effects) Invalidate() {
	e.threads.invalidate()
	e.messages.invalidate()
}

// Exclusive runs fn with both watchers' write locks held, so no background
// flush interleaves with fn's own read-modify-write of the collections.
// Both watchers are invalidated afterwards.
func (e *Effects) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	e.threads.mu.Lock()
	defer e.threads.mu.Unlock()
	e.messages.mu.Lock()
	defer e.messages.mu.Unlock()

	err := fn(ctx)
	e.threads.haveLast = false
	e.messages.haveLast = false
	return err
}
