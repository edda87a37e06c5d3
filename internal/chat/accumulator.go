// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdulsamad/polychat/internal/model"
)

// DefaultThrottle is the minimum spacing between streaming upserts.
const DefaultThrottle = 750 * time.Millisecond

// Accumulator builds one streaming assistant message. Every upsert it makes
// carries the same ID and timestamp, and the content only ever grows.
type Accumulator struct {
	mu        sync.Mutex
	id        string
	meta      model.MessageMetadata
	content   strings.Builder
	limiter   *rate.Limiter
	sink      func(model.Message)
	dirty     bool
	trailing  *time.Timer
	finalized bool
}

// NewAccumulator creates an accumulator that pushes snapshots to sink at
// most once per window. A window of zero pushes every chunk.
func NewAccumulator(meta model.MessageMetadata, window time.Duration, sink func(model.Message)) *Accumulator {
	limit := rate.Inf
	if window > 0 {
		limit = rate.Every(window)
	}
	return &Accumulator{
		id:      model.NewID(),
		meta:    meta,
		limiter: rate.NewLimiter(limit, 1),
		sink:    sink,
	}
}

// ID returns the message ID shared by every upsert.
func (a *Accumulator) ID() string {
	return a.id
}

// Write appends chunk. The first chunk is pushed immediately; later ones
// are pushed when the window allows, with a trailing push scheduled so the
// latest content appears even if the stream pauses.
func (a *Accumulator) Write(chunk string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}

	a.content.WriteString(chunk)
	a.dirty = true

	if a.trailing != nil {
		return
	}
	if a.limiter.Allow() {
		a.pushLocked()
		return
	}
	r := a.limiter.Reserve()
	a.trailing = time.AfterFunc(r.Delay(), a.flushTrailing)
}

func (a *Accumulator) flushTrailing() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trailing = nil
	if a.finalized || !a.dirty {
		return
	}
	a.pushLocked()
}

// Content returns everything written so far.
func (a *Accumulator) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content.String()
}

// Message returns the current snapshot without pushing it.
func (a *Accumulator) Message() model.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.messageLocked()
}

// Finalize cancels any pending throttled push and performs the final push
// with the complete content. Later calls return the same message without
// pushing again.
func (a *Accumulator) Finalize() model.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.trailing != nil {
		a.trailing.Stop()
		a.trailing = nil
	}
	if a.finalized {
		return a.messageLocked()
	}
	a.finalized = true
	a.pushLocked()
	return a.messageLocked()
}

// pushLocked is called with mu held so pushes reach sink in order.
func (a *Accumulator) pushLocked() {
	a.dirty = false
	if a.sink != nil {
		a.sink(a.messageLocked())
	}
}

func (a *Accumulator) messageLocked() model.Message {
	return model.Message{
		ID:       a.id,
		Role:     model.RoleAssistant,
		Content:  a.content.String(),
		Type:     model.TypeText,
		Metadata: a.meta,
	}
}
