// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persist writes polychat's in-memory state back to storage.
//
// Effects runs two independent watchers, each a single goroutine draining
// its own state subscription behind a debounce timer:
//
//   - the thread watcher upserts the active thread into the "threads"
//     collection (singleton list when empty, replace by id, else prepend)
//   - the message watcher merges {threadID: messages} into the "messages"
//     collection, skipping when there is no thread or no messages
//
// Writes are read-modify-write with no concurrency check, so the in-memory
// State stays authoritative: a failed write is logged and dropped and the
// next change retries. Each watcher keeps a BLAKE2b digest of what it last
// persisted and skips the round trip when nothing it owns has changed.
//
// # Usage
//
//	fx := persist.New(st, storage.NewCollections(db), persist.Options{})
//	fx.Start(ctx)
//	defer fx.Stop()
package persist
