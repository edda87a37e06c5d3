// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager_NewestFirstAndCapped(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < defaultMaxToasts+2; i++ {
		m.Info("status")
	}
	m.Error("boom")

	toasts := m.Toasts()
	require.Len(t, toasts, defaultMaxToasts)
	assert.Equal(t, "boom", toasts[0].Message)
	assert.Equal(t, ToastKindError, toasts[0].Kind)
	assert.Equal(t, ErrorToastDuration, toasts[0].Duration)
}

func TestToastManager_TickExpires(t *testing.T) {
	now := time.Now()
	m := NewToastManager()
	m.now = func() time.Time { return now }

	m.Info("short")
	m.Error("long")

	now = now.Add(DefaultToastDuration)
	remaining := m.Tick()
	require.Len(t, remaining, 1)
	assert.Equal(t, "long", remaining[0].Message)

	now = now.Add(ErrorToastDuration)
	assert.Empty(t, m.Tick())
	assert.False(t, m.HasToasts())
}

func TestToastManager_Dismiss(t *testing.T) {
	m := NewToastManager()
	id := m.Add("one", ToastKindSuccess)
	m.Info("two")

	m.Dismiss(id)
	toasts := m.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "two", toasts[0].Message)

	m.DismissAll()
	assert.False(t, m.HasToasts())
}

func TestRenderToastStack(t *testing.T) {
	m := NewToastManager()
	m.Error("Rate limit exceeded")
	out := RenderToastStack(m.Toasts(), 80, time.Now())
	assert.Contains(t, out, "Rate limit exceeded")
	assert.Contains(t, out, styles.StatusIndicators.Error)

	assert.Empty(t, RenderToastStack(nil, 80, time.Now()))
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four five", 9)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 9)
	}
	assert.Equal(t, "short", wrapText("short", 20))
}

// =============================================================================
// CONFIRM DIALOG
// =============================================================================

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmDialog(t *testing.T) {
	d := NewConfirmDialog("Delete thread?", "This cannot be undone.")

	_, res := d.Update(keyRunes("y"))
	assert.Equal(t, ConfirmYes, res)

	_, res = d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ConfirmNo, res)

	// Enter on the default focus declines.
	_, res = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ConfirmNo, res)

	d, res = d.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ConfirmPending, res)
	_, res = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ConfirmYes, res)

	view := d.View(styles.NewTheme(styles.ModeDark), 60, 20)
	assert.Contains(t, view, "Delete thread?")
	assert.Contains(t, view, "This cannot be undone.")
}

// =============================================================================
// THREAD LIST
// =============================================================================

func entries(names ...string) []threads.Entry {
	out := make([]threads.Entry, 0, len(names))
	for i, name := range names {
		th := model.DefaultThread()
		th.Metadata.Name = name
		out = append(out, threads.Entry{Thread: th, Messages: i, Preview: "preview " + name, Active: i == 1})
	}
	return out
}

func TestThreadList_CursorStartsOnActive(t *testing.T) {
	l := NewThreadList()
	l.SetSize(80, 20)
	l.SetEntries(entries("a", "b", "c"))

	sel, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", sel.Thread.Metadata.Name)
}

func TestThreadList_Movement(t *testing.T) {
	l := NewThreadList()
	l.SetSize(80, 20)
	l.SetEntries(entries("a", "b", "c"))

	l.MoveDown(10)
	assert.Equal(t, 2, l.Cursor())
	l.MoveUp(10)
	assert.Equal(t, 0, l.Cursor())
	l.Bottom()
	assert.Equal(t, 2, l.Cursor())
	l.Top()
	assert.Equal(t, 0, l.Cursor())
}

func TestThreadList_KeepsSelectionAcrossRefresh(t *testing.T) {
	l := NewThreadList()
	l.SetSize(80, 20)
	es := entries("a", "b", "c")
	l.SetEntries(es)
	l.Bottom()

	// "a" deleted; "c" should stay selected.
	l.SetEntries(es[1:])
	sel, _ := l.Selected()
	assert.Equal(t, "c", sel.Thread.Metadata.Name)
}

func TestThreadList_View(t *testing.T) {
	theme := styles.NewTheme(styles.ModeDark)
	l := NewThreadList()
	l.SetSize(100, 20)

	assert.Contains(t, l.View(theme), "No saved threads")

	l.SetEntries(entries("Work notes", "Poems"))
	view := l.View(theme)
	assert.Contains(t, view, "Threads (2)")
	assert.Contains(t, view, "Work notes")
	assert.Contains(t, view, "preview Poems")
	assert.Contains(t, view, styles.StatusIndicators.Active)
}

func TestThreadList_ScrollsToCursor(t *testing.T) {
	l := NewThreadList()
	l.SetSize(80, 6) // two rows visible
	l.SetEntries(entries("a", "b", "c", "d", "e"))
	l.Bottom()

	view := l.View(styles.NewTheme(styles.ModeDark))
	assert.Contains(t, view, "preview e")
	assert.NotContains(t, view, "preview a")
}

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

func TestMessageRenderer(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme(styles.ModeDark), 80)
	meta := model.MessageMetadata{Model: "gpt-4o-mini", Variation: "normal", Timestamp: time.Now().UnixMilli()}

	user := model.NewUserMessage("Hello there", "gpt-4o-mini")
	reply := model.Message{ID: "r1", Role: model.RoleAssistant, Type: model.TypeText, Content: "Hi **friend**", Metadata: meta}
	image := model.NewImageMessage("i1", "data:image/png;base64,AAAA", "a red fox", "1024x1024", meta)

	out := r.RenderAll([]model.Message{user, reply, image})
	assert.Contains(t, out, "Hello there")
	assert.Contains(t, out, "friend")
	assert.Contains(t, out, "Assistant (gpt-4o-mini, normal)")
	assert.Contains(t, out, "[image 1024x1024] a red fox")
	assert.NotContains(t, out, "base64")
}

func TestMessageRenderer_CacheFollowsContent(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme(styles.ModeDark), 80)
	msg := model.Message{ID: "r1", Role: model.RoleAssistant, Type: model.TypeText, Content: "partial"}

	first := r.Render(msg)
	assert.Contains(t, first, "partial")

	msg.Content = "partial and complete"
	second := r.Render(msg)
	assert.Contains(t, second, "complete")
}
