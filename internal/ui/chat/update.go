// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdulsamad/polychat/internal/chat"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/ui/components"
)

// Voice notices.
const (
	msgNoVoice      = "Voice input needs ui.listen_command in the config"
	msgNothingHeard = "Nothing heard"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.mode == modeChat {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case stateEventMsg:
		return m.handleStateEvent(msg)

	case submitDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, chat.ErrEmptyPrompt) {
			// The responder has already notified the user.
			m.log.WithError(msg.err).Debug("submit finished with error")
		}
		return m, m.ensureToastTick()

	case dictateDoneMsg:
		m.listening = false
		switch {
		case errors.Is(msg.err, chat.ErrNoSpeech):
			m.toasts.Info(msgNothingHeard)
		case msg.err != nil && !errors.Is(msg.err, chat.ErrListenStopped):
			// Listen and response failures have already been shown.
			m.log.WithError(msg.err).Debug("voice prompt finished with error")
		}
		return m, m.ensureToastTick()

	case threadsLoadedMsg:
		if msg.err != nil {
			m.toasts.Error("Could not load threads")
			m.log.WithError(msg.err).Error("list threads failed")
			return m, m.ensureToastTick()
		}
		m.list.SetEntries(msg.entries)
		return m, nil

	case threadSelectedMsg:
		if msg.err != nil {
			m.toasts.Error("Could not open thread")
			m.log.WithError(msg.err).Error("select thread failed")
			return m, m.ensureToastTick()
		}
		return m.enterChat()

	case threadDeletedMsg:
		return m.handleThreadDeleted(msg)

	case newChatMsg:
		m.log.WithField("thread", msg.thread.ID).Debug("new chat")
		return m.enterChat()

	case spinner.TickMsg:
		if !m.snap.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case components.ToastTickMsg:
		if len(m.toasts.Tick()) == 0 {
			m.ticking = false
			return m, nil
		}
		return m, components.ToastTickCmd()
	}

	// Cursor blink and other textarea internals.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleStateEvent(msg stateEventMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		return m, nil
	}

	m.snap = m.state.Snapshot()
	m.refreshViewport()

	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.snap.Loading && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	cmds = append(cmds, m.ensureToastTick())
	return m, tea.Batch(cmds...)
}

func (m Model) handleThreadDeleted(msg threadDeletedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.toasts.Error("Could not delete thread")
		m.log.WithError(msg.err).WithField("thread", msg.id).Error("delete thread failed")
	case msg.deleted:
		m.toasts.Success("Thread deleted")
	}
	return m, tea.Batch(listThreadsCmd(m.ctx, m.threads), m.ensureToastTick())
}

// ensureToastTick starts the toast ticker when toasts are waiting.
func (m *Model) ensureToastTick() tea.Cmd {
	if m.ticking || !m.toasts.HasToasts() {
		return nil
	}
	m.ticking = true
	return components.ToastTickCmd()
}

func (m Model) enterChat() (tea.Model, tea.Cmd) {
	m.mode = modeChat
	m.snap = m.state.Snapshot()
	m.viewport.GotoBottom()
	m.refreshViewport()
	return m, m.input.Focus()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.responder.Cancel()
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.mode == modeThreads {
		return m.handleListKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		m.input.Reset()
		m.viewport.GotoBottom()
		return m, submitCmd(m.ctx, m.responder, prompt)

	case key.Matches(msg, m.keys.Voice):
		return m.toggleVoice()

	case key.Matches(msg, m.keys.Cancel):
		if m.listening {
			m.responder.StopListening()
			return m, nil
		}
		if m.snap.Loading || m.responder.Busy() {
			m.responder.Cancel()
			return m, nil
		}
		if m.showHelp {
			m.showHelp = false
			m.layout()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Threads):
		m.mode = modeThreads
		m.input.Blur()
		return m, listThreadsCmd(m.ctx, m.threads)

	case key.Matches(msg, m.keys.NewChat):
		return m, newChatCmd(m.ctx, m.threads)

	case key.Matches(msg, m.keys.CycleModel):
		return m.updateSettings(func(s *model.Settings) string {
			s.Model = nextModel(s.Model)
			return "Model: " + s.Model
		})

	case key.Matches(msg, m.keys.CycleVariation):
		return m.updateSettings(func(s *model.Settings) string {
			v := nextVariation(s.Variation)
			s.Variation = v.Code
			s.ModelConfig = v.ModelConfig()
			return "Variation: " + v.DisplayName
		})

	case key.Matches(msg, m.keys.ToggleContext):
		return m.updateSettings(func(s *model.Settings) string {
			s.IsContextAware = !s.IsContextAware
			return "Context aware: " + onOff(s.IsContextAware)
		})

	case key.Matches(msg, m.keys.ToggleSpeech):
		return m.updateSettings(func(s *model.Settings) string {
			s.IsTextToSpeechEnabled = !s.IsTextToSpeechEnabled
			return "Speech: " + onOff(s.IsTextToSpeechEnabled)
		})

	case key.Matches(msg, m.keys.DismissToasts):
		m.toasts.DismissAll()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleVoice starts a voice prompt, or stops the one being recorded.
func (m Model) toggleVoice() (tea.Model, tea.Cmd) {
	if !m.voiceInput {
		m.toasts.Info(msgNoVoice)
		return m, m.ensureToastTick()
	}
	if m.listening {
		m.responder.StopListening()
		return m, nil
	}
	m.listening = true
	return m, dictateCmd(m.ctx, m.responder)
}

// updateSettings edits the active thread's settings and shows the
// returned notice.
func (m Model) updateSettings(fn func(*model.Settings) string) (tea.Model, tea.Cmd) {
	var notice string
	err := m.state.UpdateThread(func(t *model.Thread) {
		notice = fn(&t.Settings)
	})
	if errors.Is(err, state.ErrNoThread) {
		m.toasts.Error(chat.MsgNoThread)
	} else if notice != "" {
		m.toasts.Info(notice)
	}
	return m, m.ensureToastTick()
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.height / 2
	if page < 1 {
		page = 1
	}

	switch {
	case key.Matches(msg, m.listKeys.Back):
		return m.enterChat()
	case key.Matches(msg, m.listKeys.Up):
		m.list.MoveUp(1)
	case key.Matches(msg, m.listKeys.Down):
		m.list.MoveDown(1)
	case key.Matches(msg, m.listKeys.PageUp):
		m.list.MoveUp(page)
	case key.Matches(msg, m.listKeys.PageDown):
		m.list.MoveDown(page)
	case key.Matches(msg, m.listKeys.Home):
		m.list.Top()
	case key.Matches(msg, m.listKeys.End):
		m.list.Bottom()
	case key.Matches(msg, m.listKeys.Refresh):
		return m, listThreadsCmd(m.ctx, m.threads)
	case key.Matches(msg, m.listKeys.NewChat):
		return m, newChatCmd(m.ctx, m.threads)
	case key.Matches(msg, m.listKeys.Select):
		if e, ok := m.list.Selected(); ok {
			if e.Active {
				return m.enterChat()
			}
			return m, selectThreadCmd(m.ctx, m.threads, e.Thread.ID)
		}
	case key.Matches(msg, m.listKeys.Delete):
		if e, ok := m.list.Selected(); ok {
			d := components.NewConfirmDialog(
				"Delete thread?",
				fmt.Sprintf("%q and its %d messages will be removed.", e.Thread.Metadata.Name, e.Messages),
			)
			m.confirm = &d
			m.pendingDelete = e.Thread.ID
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d, result := m.confirm.Update(msg)
	switch result {
	case components.ConfirmYes:
		id := m.pendingDelete
		m.confirm = nil
		m.pendingDelete = ""
		return m, deleteThreadCmd(m.ctx, m.threads, id)
	case components.ConfirmNo:
		m.confirm = nil
		m.pendingDelete = ""
	default:
		m.confirm = &d
	}
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nextModel(current string) string {
	models := model.Models()
	for i, info := range models {
		if info.Name == current {
			return models[(i+1)%len(models)].Name
		}
	}
	return models[0].Name
}

func nextVariation(current string) model.Variation {
	vars := model.Variations()
	for i, v := range vars {
		if v.Code == current {
			return vars[(i+1)%len(vars)]
		}
	}
	return vars[0]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
