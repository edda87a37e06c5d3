// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen Bubble Tea interface: the chat view
for the active thread and the thread list.

The model never mutates messages itself. Prompts go to the Responder,
which streams into state.State; the model subscribes to state events and
re-renders from a fresh snapshot on each one.

# Views

  - Chat: header with thread settings, scrollable transcript, prompt
    textarea, status bar
  - Threads: saved threads with select, new, and delete (with a
    confirmation dialog)

# Key Bindings

	Enter       send prompt         Alt+Enter  new line
	Esc         stop response       Ctrl+T     thread list
	Ctrl+N      new chat            Ctrl+O     next model
	Ctrl+G      next variation      Ctrl+X     toggle context
	Ctrl+S      toggle speech       Ctrl+R     voice input
	F1          help                Ctrl+C     quit

# Usage

	m := chat.New(ctx, chat.Deps{State: st, Responder: r, Threads: svc, Toasts: toasts, Theme: theme})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
