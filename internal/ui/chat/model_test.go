// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/chat"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/ui/components"
	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeResponder struct {
	mu         sync.Mutex
	st         *state.State
	prompts    []string
	cancels    int
	transcript string
	stops      int
}

func (f *fakeResponder) Submit(_ context.Context, prompt string) (model.Message, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	msg := model.NewUserMessage(prompt, model.DefaultModel)
	f.st.Upsert(msg)
	return msg, nil
}

func (f *fakeResponder) Dictate(ctx context.Context) (model.Message, error) {
	f.mu.Lock()
	transcript := f.transcript
	f.mu.Unlock()
	if transcript == "" {
		return model.Message{}, chat.ErrNoSpeech
	}
	return f.Submit(ctx, transcript)
}

func (f *fakeResponder) StopListening() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeResponder) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeResponder) Busy() bool { return false }

type fakeThreads struct {
	mu       sync.Mutex
	st       *state.State
	entries  []threads.Entry
	selected []string
	deleted  []string
	newChats int
}

func (f *fakeThreads) List(context.Context) ([]threads.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]threads.Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeThreads) Select(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, id)
	for _, e := range f.entries {
		if e.Thread.ID == id {
			f.st.Switch(e.Thread, nil)
		}
	}
	return nil
}

func (f *fakeThreads) NewChat(context.Context) model.Thread {
	f.mu.Lock()
	f.newChats++
	f.mu.Unlock()
	return f.st.NewChat()
}

func (f *fakeThreads) Delete(_ context.Context, id string, confirm threads.ConfirmFunc) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.Thread.ID == id {
			if !confirm(e.Thread) {
				return false, nil
			}
			f.deleted = append(f.deleted, id)
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	st        *state.State
	responder *fakeResponder
	threads   *fakeThreads
	toasts    *components.ToastManager
	model     Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := state.New(model.DefaultConfig())
	active := model.DefaultThread()
	st.SetThread(active)

	other := model.DefaultThread()
	other.Metadata.Name = "Older thread"

	f := &fixture{
		st:        st,
		responder: &fakeResponder{st: st},
		threads: &fakeThreads{st: st, entries: []threads.Entry{
			{Thread: active, Active: true},
			{Thread: other, Messages: 2, Preview: "older preview"},
		}},
		toasts: components.NewToastManager(),
	}
	f.model = New(ctx, Deps{
		State:     st,
		Responder: f.responder,
		Threads:   f.threads,
		Toasts:    f.toasts,
		Theme:     styles.NewTheme(styles.ModeDark),
	})
	f.send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *fixture) typeText(s string) {
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// run executes a single, non-batched command and feeds its message back.
func (f *fixture) run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	f.send(msg)
	return msg
}

func (f *fixture) refresh() {
	f.send(stateEventMsg{})
}

// =============================================================================
// CHAT VIEW TESTS
// =============================================================================

func TestSubmitSendsPrompt(t *testing.T) {
	f := newFixture(t)

	f.typeText("Hello")
	assert.Equal(t, "Hello", f.model.InputValue())

	cmd := f.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, f.model.InputValue())

	msg := f.run(cmd)
	assert.IsType(t, submitDoneMsg{}, msg)
	assert.Equal(t, []string{"Hello"}, f.responder.prompts)

	f.refresh()
	assert.Contains(t, f.model.View(), "Hello")
}

func TestBlankPromptIgnored(t *testing.T) {
	f := newFixture(t)

	f.typeText("   ")
	cmd := f.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, f.responder.prompts)
}

func TestStateEventsRenderStreamingReply(t *testing.T) {
	f := newFixture(t)
	meta := model.MessageMetadata{Model: model.DefaultModel, Variation: model.DefaultVariation}

	f.st.Upsert(model.Message{ID: "a1", Role: model.RoleAssistant, Type: model.TypeText, Content: "Hel", Metadata: meta})
	f.refresh()
	assert.Contains(t, f.model.View(), "Hel")

	f.st.Upsert(model.Message{ID: "a1", Role: model.RoleAssistant, Type: model.TypeText, Content: "Hello world", Metadata: meta})
	f.refresh()
	assert.Contains(t, f.model.View(), "Hello world")
}

func TestEscCancelsWhileLoading(t *testing.T) {
	f := newFixture(t)

	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Zero(t, f.responder.cancels, "idle esc does not cancel")

	f.st.SetLoading(true)
	f.refresh()
	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, f.responder.cancels)
}

func TestVoiceDisabledShowsHint(t *testing.T) {
	f := newFixture(t)

	f.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, f.model.listening)
	toasts := f.toasts.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, msgNoVoice, toasts[0].Message)
}

func TestVoiceSubmitsTranscript(t *testing.T) {
	f := newFixture(t)
	f.model.voiceInput = true
	f.responder.transcript = "what is go"

	cmd := f.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.True(t, f.model.listening)
	assert.Contains(t, f.model.View(), "listening")

	// A second press while recording stops it.
	f.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, 1, f.responder.stops)

	msg := f.run(cmd)
	assert.IsType(t, dictateDoneMsg{}, msg)
	assert.False(t, f.model.listening)
	assert.Equal(t, []string{"what is go"}, f.responder.prompts)

	f.refresh()
	assert.Contains(t, f.model.View(), "what is go")
}

func TestVoiceNothingHeard(t *testing.T) {
	f := newFixture(t)
	f.model.voiceInput = true

	f.run(f.send(tea.KeyMsg{Type: tea.KeyCtrlR}))
	assert.False(t, f.model.listening)
	assert.Empty(t, f.responder.prompts)
	toasts := f.toasts.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, msgNothingHeard, toasts[0].Message)
}

func TestEscStopsListening(t *testing.T) {
	f := newFixture(t)
	f.model.voiceInput = true
	f.model.listening = true

	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, f.responder.stops)
	assert.Zero(t, f.responder.cancels)
}

func TestQuitCancelsResponse(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, f.responder.cancels)
}

func TestSettingsShortcuts(t *testing.T) {
	f := newFixture(t)

	before, _ := f.st.Thread()
	f.send(tea.KeyMsg{Type: tea.KeyCtrlO})
	after, _ := f.st.Thread()
	assert.Equal(t, nextModel(before.Settings.Model), after.Settings.Model)
	assert.NotEqual(t, before.Settings.Model, after.Settings.Model)

	f.send(tea.KeyMsg{Type: tea.KeyCtrlG})
	after, _ = f.st.Thread()
	assert.Equal(t, "developer", after.Settings.Variation)

	f.send(tea.KeyMsg{Type: tea.KeyCtrlX})
	after, _ = f.st.Thread()
	assert.True(t, after.Settings.IsContextAware)

	f.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	after, _ = f.st.Thread()
	assert.True(t, after.Settings.IsTextToSpeechEnabled)

	toasts := f.toasts.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Speech: on", toasts[0].Message)
}

func TestSettingsWithoutThread(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := state.New(model.DefaultConfig())
	toasts := components.NewToastManager()
	m := New(ctx, Deps{State: st, Responder: &fakeResponder{st: st}, Threads: &fakeThreads{st: st}, Toasts: toasts})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	got := toasts.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, "Thread not created", got[0].Message)
}

func TestNewChatShortcut(t *testing.T) {
	f := newFixture(t)
	before, _ := f.st.Thread()

	f.run(f.send(tea.KeyMsg{Type: tea.KeyCtrlN}))
	after, _ := f.st.Thread()
	assert.Equal(t, 1, f.threads.newChats)
	assert.NotEqual(t, before.ID, after.ID)
	assert.False(t, f.model.InThreadList())
}

// =============================================================================
// THREAD LIST TESTS
// =============================================================================

func openList(t *testing.T, f *fixture) {
	t.Helper()
	cmd := f.send(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.True(t, f.model.InThreadList())
	f.run(cmd)
}

func TestThreadListShowsThreads(t *testing.T) {
	f := newFixture(t)
	openList(t, f)

	view := f.model.View()
	assert.Contains(t, view, "Threads (2)")
	assert.Contains(t, view, "Older thread")
	assert.Contains(t, view, "older preview")

	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.model.InThreadList())
}

func TestThreadListSelect(t *testing.T) {
	f := newFixture(t)
	openList(t, f)

	f.typeText("j")
	f.run(f.send(tea.KeyMsg{Type: tea.KeyEnter}))

	other := f.threads.entries[1].Thread
	assert.Equal(t, []string{other.ID}, f.threads.selected)
	assert.False(t, f.model.InThreadList())
	assert.Equal(t, other.ID, f.st.ThreadID())
}

func TestThreadListDeleteConfirmed(t *testing.T) {
	f := newFixture(t)
	openList(t, f)
	target := f.threads.entries[1].Thread.ID

	f.typeText("j")
	f.typeText("d")
	require.True(t, f.model.Confirming())
	assert.Contains(t, f.model.View(), "Delete thread?")

	cmd := f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.False(t, f.model.Confirming())
	msg := f.run(cmd)

	deleted, ok := msg.(threadDeletedMsg)
	require.True(t, ok)
	assert.True(t, deleted.deleted)
	assert.Equal(t, []string{target}, f.threads.deleted)

	toasts := f.toasts.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Thread deleted", toasts[0].Message)
}

func TestThreadListDeleteDeclined(t *testing.T) {
	f := newFixture(t)
	openList(t, f)

	f.typeText("d")
	require.True(t, f.model.Confirming())

	cmd := f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.Nil(t, cmd)
	assert.False(t, f.model.Confirming())
	assert.Empty(t, f.threads.deleted)
	assert.True(t, f.model.InThreadList())
}

func TestNextHelpersWrap(t *testing.T) {
	models := model.Models()
	assert.Equal(t, models[0].Name, nextModel(models[len(models)-1].Name))
	assert.Equal(t, models[0].Name, nextModel("unknown"))

	vars := model.Variations()
	assert.Equal(t, vars[0].Code, nextVariation(vars[len(vars)-1].Code).Code)
}
