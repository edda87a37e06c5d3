// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"context"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/storage"
)

// flushThread upserts the active thread into the threads collection.
func (e *Effects) flushThread(ctx context.Context, last digest, haveLast bool) (digest, bool, error) {
	thread, ok := e.state.Thread()
	if !ok {
		return last, false, nil
	}

	encoded, err := storage.Encode(thread)
	if err != nil {
		return last, false, fmt.Errorf("encode thread: %w", err)
	}
	sum := blake2b.Sum256(encoded)
	if haveLast && sum == last {
		return sum, false, nil
	}

	threads, err := e.cols.LoadThreads(ctx)
	if err != nil {
		return last, false, err
	}
	if err := e.cols.SaveThreads(ctx, upsertThread(threads, thread)); err != nil {
		return last, false, err
	}
	return sum, true, nil
}

// flushMessages merges the active thread's messages into the messages
// collection.
func (e *Effects) flushMessages(ctx context.Context, last digest, haveLast bool) (digest, bool, error) {
	snap := e.state.Snapshot()
	if snap.Thread == nil || len(snap.Messages) == 0 {
		return last, false, nil
	}

	encoded, err := storage.Encode(snap.Messages)
	if err != nil {
		return last, false, fmt.Errorf("encode messages: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte(snap.Thread.ID))
	h.Write([]byte{0})
	h.Write(encoded)
	var sum digest
	copy(sum[:], h.Sum(nil))
	if haveLast && sum == last {
		return sum, false, nil
	}

	all, err := e.cols.LoadMessages(ctx)
	if err != nil {
		return last, false, err
	}
	all[snap.Thread.ID] = snap.Messages
	if err := e.cols.SaveMessages(ctx, all); err != nil {
		return last, false, err
	}
	return sum, true, nil
}

// upsertThread returns threads with t written as a singleton list when
// empty, replaced by id when present, or prepended otherwise.
func upsertThread(threads []model.Thread, t model.Thread) []model.Thread {
	if len(threads) == 0 {
		return []model.Thread{t}
	}
	for i := range threads {
		if threads[i].ID == t.ID {
			out := make([]model.Thread, len(threads))
			copy(out, threads)
			out[i] = t
			return out
		}
	}
	return append([]model.Thread{t}, threads...)
}
