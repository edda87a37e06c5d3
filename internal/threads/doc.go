// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package threads lists, selects, renames and deletes persisted chat
// threads.
//
// Service coordinates three parties: the in-memory state holding the active
// thread, the persistence effects that write it back, and the responder
// that may be streaming into it. Before any operation that changes which
// thread is active, the in-flight response is cancelled and pending writes
// are flushed, so no late update lands on the wrong thread.
//
// # Usage
//
//	svc := threads.New(st, cols, effects, responder, threads.Options{})
//	entries, _ := svc.List(ctx)
//	_ = svc.Select(ctx, entries[0].Thread.ID)
//	deleted, err := svc.Delete(ctx, id, func(t model.Thread) bool {
//	    return confirmPrompt(t.Metadata.Name)
//	})
package threads
