// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"context"
	"errors"
	"sync"

	"github.com/abdulsamad/polychat/internal/model"
)

// ErrNoThread is returned when an operation needs an active thread before
// one has been set.
var ErrNoThread = errors.New("thread not created")

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed.
type EventKind int

const (
	ThreadChanged EventKind = iota
	MessagesChanged
	LoadingChanged
	ConfigChanged
)

// String returns a short name for logs.
func (k EventKind) String() string {
	switch k {
	case ThreadChanged:
		return "thread"
	case MessagesChanged:
		return "messages"
	case LoadingChanged:
		return "loading"
	case ConfigChanged:
		return "config"
	default:
		return "unknown"
	}
}

// Event is published after a mutation has been applied.
type Event struct {
	Kind     EventKind
	ThreadID string
}

const subscriberBufferSize = 64

// =============================================================================
// STATE
// =============================================================================

// State is the single owner of the active thread and its messages.
type State struct {
	mu       sync.RWMutex
	thread   *model.Thread
	messages []model.Message
	loading  bool
	config   model.Config

	subMu  sync.Mutex
	subs   map[int]subscriber
	nextID int
}

// subscriber receives the event kinds set in mask.
type subscriber struct {
	ch   chan Event
	mask uint
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Thread   *model.Thread
	Messages []model.Message
	Loading  bool
	Config   model.Config
}

// New creates a State with no active thread.
func New(cfg model.Config) *State {
	return &State{
		messages: []model.Message{},
		config:   cfg,
		subs:     make(map[int]subscriber),
	}
}

// =============================================================================
// READERS
// =============================================================================

// Thread returns a copy of the active thread.
func (s *State) Thread() (model.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.thread == nil {
		return model.Thread{}, false
	}
	return s.thread.Clone(), true
}

// ThreadID returns the active thread ID, or "" before initialization.
func (s *State) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.thread == nil {
		return ""
	}
	return s.thread.ID
}

// Messages returns a copy of the message list.
func (s *State) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneMessages(s.messages)
}

// Message returns the message with id.
func (s *State) Message(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return model.CloneMessages(s.messages[i : i+1])[0], true
	}
	return model.Message{}, false
}

// Loading reports whether a response is being prepared.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Config returns the user preferences.
func (s *State) Config() model.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Snapshot returns a consistent copy of everything.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Messages: model.CloneMessages(s.messages),
		Loading:  s.loading,
		Config:   s.config,
	}
	if s.thread != nil {
		t := s.thread.Clone()
		snap.Thread = &t
	}
	return snap
}

// =============================================================================
// THREAD MUTATIONS
// =============================================================================

// SetThread installs t as the active thread without touching messages.
func (s *State) SetThread(t model.Thread) {
	s.mu.Lock()
	clone := t.Clone()
	s.thread = &clone
	s.mu.Unlock()

	s.publish(Event{Kind: ThreadChanged, ThreadID: t.ID})
}

// UpdateThread applies fn to the active thread.
func (s *State) UpdateThread(fn func(*model.Thread)) error {
	s.mu.Lock()
	if s.thread == nil {
		s.mu.Unlock()
		return ErrNoThread
	}
	fn(s.thread)
	id := s.thread.ID
	s.mu.Unlock()

	s.publish(Event{Kind: ThreadChanged, ThreadID: id})
	return nil
}

// Switch installs t and its messages in one step so no observer ever sees
// t paired with another thread's messages.
func (s *State) Switch(t model.Thread, msgs []model.Message) {
	s.mu.Lock()
	clone := t.Clone()
	s.thread = &clone
	s.messages = model.CloneMessages(msgs)
	if s.messages == nil {
		s.messages = []model.Message{}
	}
	s.mu.Unlock()

	s.publish(Event{Kind: ThreadChanged, ThreadID: t.ID})
	s.publish(Event{Kind: MessagesChanged, ThreadID: t.ID})
}

// NewChat clears messages and installs a fresh thread. Settings carry over
// from the previous thread when there was one.
func (s *State) NewChat() model.Thread {
	s.mu.RLock()
	var t model.Thread
	if s.thread != nil {
		t = model.NewThread(s.thread.Settings)
	} else {
		t = model.DefaultThread()
	}
	s.mu.RUnlock()

	s.Switch(t, nil)
	return t
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// Upsert replaces the message with msg.ID in place, or appends msg.
func (s *State) Upsert(msg model.Message) {
	s.mu.Lock()
	msg = model.CloneMessages([]model.Message{msg})[0]
	if i := s.indexOf(msg.ID); i >= 0 {
		s.messages[i] = msg
	} else {
		s.messages = append(s.messages, msg)
	}
	id := s.threadIDLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: MessagesChanged, ThreadID: id})
}

// Reset replaces the whole message list.
func (s *State) Reset(msgs []model.Message) {
	s.mu.Lock()
	s.messages = model.CloneMessages(msgs)
	if s.messages == nil {
		s.messages = []model.Message{}
	}
	id := s.threadIDLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: MessagesChanged, ThreadID: id})
}

// =============================================================================
// FLAGS AND CONFIG
// =============================================================================

// SetLoading sets the loading flag. No event is published when the value
// does not change.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	if s.loading == loading {
		s.mu.Unlock()
		return
	}
	s.loading = loading
	id := s.threadIDLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: LoadingChanged, ThreadID: id})
}

// SetConfig replaces the user preferences.
func (s *State) SetConfig(cfg model.Config) {
	s.mu.Lock()
	s.config = cfg
	id := s.threadIDLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: ConfigChanged, ThreadID: id})
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers for events until ctx is cancelled, after which the
// channel is closed. With kinds given only those kinds are delivered;
// otherwise every kind is.
//
// Delivery never blocks the publisher. When a subscriber's buffer is full
// the event is dropped, which is safe because the buffer then already holds
// an event of a kind the subscriber asked for and State always serves the
// latest values.
func (s *State) Subscribe(ctx context.Context, kinds ...EventKind) <-chan Event {
	sub := subscriber{ch: make(chan Event, subscriberBufferSize), mask: kindMask(kinds)}

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(sub.ch)
		s.subMu.Unlock()
	}()

	return sub.ch
}

func (s *State) publish(ev Event) {
	bit := uint(1) << uint(ev.Kind)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		if sub.mask&bit == 0 {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// kindMask turns kinds into a bit set; no kinds means all of them.
func kindMask(kinds []EventKind) uint {
	if len(kinds) == 0 {
		return ^uint(0)
	}
	var mask uint
	for _, k := range kinds {
		mask |= 1 << uint(k)
	}
	return mask
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *State) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) threadIDLocked() string {
	if s.thread == nil {
		return ""
	}
	return s.thread.ID
}
