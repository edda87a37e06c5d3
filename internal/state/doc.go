// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state owns polychat's in-memory application state.
//
// One State value holds the active thread, its ordered messages, the
// loading flag and the user preferences. It is created once and passed to
// every component that needs it; there is no package-level state.
//
// # Key Types
//
//   - State: mutex-guarded owner of thread, messages, loading and config
//   - Event: change notification published after every mutation
//   - Snapshot: consistent copy of the whole state
//
// # Message semantics
//
// Upsert replaces a message with the same ID in place (preserving order) or
// appends it. A streaming reply is pushed repeatedly under one ID, so the
// list never grows per chunk. Reset replaces the whole list.
//
// # Subscriptions
//
// Subscribe returns a buffered channel of Events. Publishing never blocks:
// a full subscriber misses events, which is safe because consumers re-read
// the State when they act and only need to know that something changed.
package state
