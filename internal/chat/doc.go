// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat turns a prompt into assistant messages.
//
// A Responder reads the active thread from state, resolves its model's
// capability once and takes one of two paths:
//
//   - text models stream through an Accumulator, which owns one message ID
//     and timestamp, appends chunks, upserts at most once per throttle
//     window and performs a final upsert in Finalize
//   - image models make a single request and upsert exactly one image_url
//     message under an ID allocated before the request
//
// Every failure becomes a Notifier.Error call with a user-facing message;
// nothing panics and partial streamed content stays in place.
//
// # Cancellation
//
// A Responder runs one response at a time. Starting a new one cancels the
// previous response and waits for its final upsert (cancel-and-replace).
// Cancel does the same without starting anything, which callers use before
// switching threads.
package chat
