// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/abdulsamad/polychat/internal/state"
)

// digest identifies what a watcher last persisted.
type digest = [blake2b.Size256]byte

// flushFunc performs one write. It returns the digest of the source data
// and whether a write was needed; last is the previous digest.
type flushFunc func(ctx context.Context, last digest, haveLast bool) (digest, bool, error)

// watcher debounces one collection's writes.
type watcher struct {
	name     string
	debounce time.Duration
	log      logrus.FieldLogger
	flush    flushFunc
	kinds    []state.EventKind
	requests chan flushRequest

	mu       sync.Mutex // serializes flushes and guards the digest
	last     digest
	haveLast bool
}

type flushRequest struct {
	ctx  context.Context
	done chan error
}

func newWatcher(name string, debounce time.Duration, log logrus.FieldLogger, flush flushFunc, kinds ...state.EventKind) *watcher {
	return &watcher{
		name:     name,
		debounce: debounce,
		log:      log.WithField("watcher", name),
		flush:    flush,
		kinds:    kinds,
		requests: make(chan flushRequest),
	}
}

// run drains events until ctx is cancelled, then performs a final flush
// if anything is still pending.
func (w *watcher) run(ctx context.Context, events <-chan state.Event) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	stopTimer := func() {
		if pending && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		pending = false
	}

	for {
		select {
		case <-ctx.Done():
			if pending {
				stopTimer()
				fctx, cancel := context.WithTimeout(context.Background(), stopFlushTimeout)
				w.flushAndLog(fctx)
				cancel()
			}
			return

		case _, ok := <-events:
			if !ok {
				return
			}
			// Debounce: every change restarts the quiet period.
			stopTimer()
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.flushAndLog(ctx)

		case req := <-w.requests:
			stopTimer()
			req.done <- w.flushNow(req.ctx)
		}
	}
}

// request asks the running loop to flush and waits for the result. If the
// loop has already exited the flush runs on the caller's goroutine.
func (w *watcher) request(ctx context.Context, stopped <-chan struct{}) error {
	req := flushRequest{ctx: ctx, done: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-stopped:
		return w.flushNow(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *watcher) flushNow(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sum, wrote, err := w.flush(ctx, w.last, w.haveLast)
	if err != nil {
		return err
	}
	w.last, w.haveLast = sum, true
	if wrote {
		w.log.Debug("flushed")
	}
	return nil
}

// flushAndLog is the background path: failures are logged and dropped.
func (w *watcher) flushAndLog(ctx context.Context) {
	if err := w.flushNow(ctx); err != nil {
		w.log.WithError(err).Error("failed to persist")
	}
}

func (w *watcher) invalidate() {
	w.mu.Lock()
	w.haveLast = false
	w.mu.Unlock()
}
