// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Race detection tests for polychat.
//
// Run with: go test -race -v ./internal/...
//
// These tests are designed to detect data races under concurrent access
// patterns that match real-world usage: the TUI reading state while a
// reply streams in and the persistence watchers write it back.
package internal

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/storage"
)

// =============================================================================
// TEST CONFIGURATION
// =============================================================================

const (
	// Number of concurrent goroutines for race tests
	raceConcurrency = 20
	// Number of iterations per goroutine
	raceIterations = 50
	// Timeout for race tests
	raceTimeout = 30 * time.Second
)

// =============================================================================
// STATE CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_StateReadersAndWriters mixes upserts, snapshots and
// subscribers on one State.
func TestConcurrency_StateReadersAndWriters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), raceTimeout)
	defer cancel()

	st := state.New(model.DefaultConfig())
	st.Switch(model.DefaultThread(), nil)

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events := st.Subscribe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-events:
					if !ok {
						return
					}
					_ = st.Snapshot()
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		writers.Add(1)
		go func(idx int) {
			defer writers.Done()
			id := fmt.Sprintf("msg-%d", idx)
			for j := 0; j < raceIterations; j++ {
				st.Upsert(model.Message{
					ID:      id,
					Role:    model.RoleAssistant,
					Content: fmt.Sprintf("chunk %d", j),
					Type:    model.TypeText,
				})
				_ = st.Messages()
				_ = st.Loading()
			}
		}(i)
	}
	writers.Wait()
	cancel()
	wg.Wait()

	// Upserts by id never duplicate.
	msgs := st.Messages()
	assert.Len(t, msgs, raceConcurrency)
	for _, m := range msgs {
		assert.Equal(t, fmt.Sprintf("chunk %d", raceIterations-1), m.Content)
	}
}

// =============================================================================
// APP CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_SubmitListRename runs responses while the thread list is
// read and the thread renamed, as the TUI does.
func TestConcurrency_SubmitListRename(t *testing.T) {
	b := &backend{chunks: []string{"one ", "two ", "three"}}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	app, _ := openApp(t, newConfig(srv, t.TempDir()), srv, storage.NewMemoryStore())
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), raceTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			// A later submit may cancel an earlier one; both outcomes are fine.
			_, _ = app.Responder.Submit(ctx, fmt.Sprintf("question %d", idx))
		}(i)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := app.Threads.List(ctx)
				assert.NoError(t, err)
				_ = app.Threads.Rename(ctx, app.State.ThreadID(), fmt.Sprintf("name %d-%d", idx, j))
			}
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return !app.Responder.Busy() }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, app.State.Loading())
	require.NoError(t, app.Flush(context.Background()))

	// Every saved message belongs to a saved thread.
	entries, err := app.Threads.List(context.Background())
	require.NoError(t, err)
	all, err := app.Collections.LoadMessages(context.Background())
	require.NoError(t, err)
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.Thread.ID] = true
	}
	for id := range all {
		assert.True(t, ids[id], "messages for unknown thread %s", id)
	}
}
