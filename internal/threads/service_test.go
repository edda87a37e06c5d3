// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package threads

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/persist"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/storage"
)

type countingCanceler struct{ calls int }

func (c *countingCanceler) Cancel() { c.calls++ }

type fixture struct {
	st       *state.State
	store    *storage.MemoryStore
	cols     *storage.Collections
	effects  *persist.Effects
	canceler *countingCanceler
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := logtest.NewNullLogger()

	st := state.New(model.DefaultConfig())
	store := storage.NewMemoryStore()
	cols := storage.NewCollections(store)
	effects := persist.New(st, cols, persist.Options{Debounce: 10 * time.Millisecond, Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	effects.Start(ctx)
	t.Cleanup(func() {
		cancel()
		effects.Stop()
	})

	canceler := &countingCanceler{}
	return &fixture{
		st:       st,
		store:    store,
		cols:     cols,
		effects:  effects,
		canceler: canceler,
		svc:      New(st, cols, effects, canceler, Options{Logger: logger}),
	}
}

func userMsg(content string) model.Message {
	return model.NewUserMessage(content, model.DefaultModel)
}

// seed persists a thread with messages and returns it; the active thread is
// left untouched.
func (f *fixture) seed(t *testing.T, name string, msgs ...model.Message) model.Thread {
	t.Helper()
	ctx := context.Background()
	th := model.DefaultThread()
	th.Metadata.Name = name

	threads, err := f.cols.LoadThreads(ctx)
	require.NoError(t, err)
	require.NoError(t, f.cols.SaveThreads(ctx, append([]model.Thread{th}, threads...)))

	all, err := f.cols.LoadMessages(ctx)
	require.NoError(t, err)
	all[th.ID] = msgs
	require.NoError(t, f.cols.SaveMessages(ctx, all))
	return th
}

// activate makes a new active thread with messages, as a chat would.
func (f *fixture) activate(t *testing.T, msgs ...model.Message) model.Thread {
	t.Helper()
	th := model.DefaultThread()
	f.st.Switch(th, msgs)
	require.NoError(t, f.effects.Flush(context.Background()))
	return th
}

func threadIDs(t *testing.T, cols *storage.Collections) []string {
	t.Helper()
	threads, err := cols.LoadThreads(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(threads))
	for i, th := range threads {
		ids[i] = th.ID
	}
	return ids
}

func always(model.Thread) bool { return true }

// =============================================================================
// LIST / SELECT
// =============================================================================

func TestList_IncludesActiveAndCounts(t *testing.T) {
	f := newFixture(t)
	old := f.seed(t, "Old", userMsg("first question about go"), userMsg("second"))
	active := f.activate(t)
	f.st.Upsert(userMsg("unsaved yet"))

	entries, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, active.ID, entries[0].Thread.ID)
	assert.True(t, entries[0].Active)
	assert.Equal(t, 1, entries[0].Messages)
	assert.Equal(t, "unsaved yet", entries[0].Preview)

	assert.Equal(t, old.ID, entries[1].Thread.ID)
	assert.False(t, entries[1].Active)
	assert.Equal(t, 2, entries[1].Messages)
	assert.Equal(t, "first question about go", entries[1].Preview)
}

func TestSelect_SwitchesThreadAndMessages(t *testing.T) {
	f := newFixture(t)
	old := f.seed(t, "Old", userMsg("from old"))
	current := f.activate(t)
	f.st.Upsert(userMsg("pending in current"))

	require.NoError(t, f.svc.Select(context.Background(), old.ID))

	assert.Equal(t, old.ID, f.st.ThreadID())
	msgs := f.st.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from old", msgs[0].Content)
	assert.Equal(t, 1, f.canceler.calls)

	// The previous thread's pending message was flushed before switching.
	saved, err := f.cols.ThreadMessages(context.Background(), current.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "pending in current", saved[0].Content)
}

func TestSelect_ActiveIsNoop(t *testing.T) {
	f := newFixture(t)
	active := f.activate(t, userMsg("hi"))

	require.NoError(t, f.svc.Select(context.Background(), active.ID))
	assert.Equal(t, 0, f.canceler.calls)
	assert.Len(t, f.st.Messages(), 1)
}

func TestSelect_Unknown(t *testing.T) {
	f := newFixture(t)
	active := f.activate(t)

	err := f.svc.Select(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, active.ID, f.st.ThreadID())
}

func TestNewChat_KeepsSettings(t *testing.T) {
	f := newFixture(t)
	th := model.DefaultThread()
	th.Settings.Model = "gpt-4o"
	th.Settings.IsContextAware = true
	f.st.Switch(th, []model.Message{userMsg("x")})

	fresh := f.svc.NewChat(context.Background())
	assert.NotEqual(t, th.ID, fresh.ID)
	assert.Equal(t, "gpt-4o", fresh.Settings.Model)
	assert.True(t, fresh.Settings.IsContextAware)
	assert.Empty(t, f.st.Messages())
	assert.Equal(t, 1, f.canceler.calls)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_InactiveRemovesThreadAndMessages(t *testing.T) {
	f := newFixture(t)
	doomed := f.seed(t, "Doomed", userMsg("bye"))
	kept := f.seed(t, "Kept", userMsg("stay"))
	active := f.activate(t, userMsg("current"))

	deleted, err := f.svc.Delete(context.Background(), doomed.ID, always)
	require.NoError(t, err)
	assert.True(t, deleted)

	ids := threadIDs(t, f.cols)
	assert.NotContains(t, ids, doomed.ID)
	assert.Contains(t, ids, kept.ID)
	assert.Contains(t, ids, active.ID)

	all, err := f.cols.LoadMessages(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, doomed.ID)
	assert.Contains(t, all, kept.ID)

	assert.Equal(t, active.ID, f.st.ThreadID())
	assert.Len(t, f.st.Messages(), 1)
	assert.Equal(t, 0, f.canceler.calls)
}

func TestDelete_ActiveResetsToDefaultThread(t *testing.T) {
	f := newFixture(t)
	th := model.DefaultThread()
	th.Settings.Model = "gpt-4o"
	f.st.Switch(th, []model.Message{userMsg("hello")})
	require.NoError(t, f.effects.Flush(context.Background()))

	deleted, err := f.svc.Delete(context.Background(), th.ID, always)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, f.canceler.calls)

	fresh, ok := f.st.Thread()
	require.True(t, ok)
	assert.NotEqual(t, th.ID, fresh.ID)
	assert.Equal(t, model.StatusIdle, fresh.Metadata.Status)
	assert.Equal(t, 1, fresh.Metadata.Version)
	assert.Equal(t, model.DefaultModel, fresh.Settings.Model)
	assert.Equal(t, model.DefaultVariation, fresh.Settings.Variation)
	assert.Empty(t, f.st.Messages())

	// Let the watchers settle; the deleted thread must not come back.
	require.NoError(t, f.effects.Flush(context.Background()))
	time.Sleep(30 * time.Millisecond)
	ids := threadIDs(t, f.cols)
	assert.NotContains(t, ids, th.ID)
	assert.Contains(t, ids, fresh.ID)

	all, err := f.cols.LoadMessages(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, th.ID)
}

func TestDelete_ActiveNeverPersisted(t *testing.T) {
	f := newFixture(t)
	th := model.DefaultThread()
	f.st.SetThread(th)

	deleted, err := f.svc.Delete(context.Background(), th.ID, always)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotEqual(t, th.ID, f.st.ThreadID())
}

func TestDelete_Declined(t *testing.T) {
	f := newFixture(t)
	doomed := f.seed(t, "Doomed", userMsg("bye"))
	f.activate(t)

	var asked string
	deleted, err := f.svc.Delete(context.Background(), doomed.ID, func(th model.Thread) bool {
		asked = th.Metadata.Name
		return false
	})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "Doomed", asked)
	assert.Contains(t, threadIDs(t, f.cols), doomed.ID)
}

func TestDelete_Unknown(t *testing.T) {
	f := newFixture(t)
	f.activate(t)

	deleted, err := f.svc.Delete(context.Background(), "missing", always)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, deleted)
}

func TestDelete_StorageFailure(t *testing.T) {
	f := newFixture(t)
	doomed := f.seed(t, "Doomed")
	f.activate(t)

	f.store.SetFailFunc(func(op, collection string) error {
		if op == "set" && collection == storage.CollectionThreads {
			return storage.ErrQuotaExceeded
		}
		return nil
	})

	deleted, err := f.svc.Delete(context.Background(), doomed.ID, always)
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.False(t, deleted)

	f.store.SetFailFunc(nil)
	assert.Contains(t, threadIDs(t, f.cols), doomed.ID)
}

// =============================================================================
// RENAME
// =============================================================================

func TestRename(t *testing.T) {
	f := newFixture(t)
	other := f.seed(t, "Other")
	active := f.activate(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Rename(ctx, other.ID, "  Renamed  "))
	got, err := f.cols.FindThread(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Metadata.Name)

	require.NoError(t, f.svc.Rename(ctx, active.ID, "Current"))
	th, _ := f.st.Thread()
	assert.Equal(t, "Current", th.Metadata.Name)
	require.NoError(t, f.effects.Flush(ctx))
	got, err = f.cols.FindThread(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Current", got.Metadata.Name)

	assert.ErrorIs(t, f.svc.Rename(ctx, active.ID, " "), ErrEmptyName)
	assert.True(t, errors.Is(f.svc.Rename(ctx, "missing", "x"), storage.ErrNotFound))
}

func TestDelete_MessagesRemovedWhenThreadWriteFails(t *testing.T) {
	f := newFixture(t)
	doomed := f.seed(t, "Doomed", userMsg("bye"))
	f.activate(t)

	f.store.SetFailFunc(func(op, collection string) error {
		if op == "set" && collection == storage.CollectionThreads {
			return storage.ErrUnavailable
		}
		return nil
	})
	_, err := f.svc.Delete(context.Background(), doomed.ID, always)
	require.Error(t, err)
	f.store.SetFailFunc(nil)

	all, err := f.cols.LoadMessages(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, doomed.ID)
}

func TestSetDefaults_UsedAfterActiveDelete(t *testing.T) {
	f := newFixture(t)
	th := f.activate(t, userMsg("hello"))

	f.svc.SetDefaults(model.Settings{Model: "gpt-4o", Variation: "chef"})
	f.svc.SetDefaults(model.Settings{}) // ignored

	_, err := f.svc.Delete(context.Background(), th.ID, always)
	require.NoError(t, err)

	fresh, _ := f.st.Thread()
	assert.Equal(t, "gpt-4o", fresh.Settings.Model)
	assert.Equal(t, "chef", fresh.Settings.Variation)
}
