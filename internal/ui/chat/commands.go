// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/threads"
)

// =============================================================================
// MESSAGES
// =============================================================================

// stateEventMsg carries one state event. closed is set once the
// subscription ends.
type stateEventMsg struct {
	event  state.Event
	closed bool
}

// submitDoneMsg reports the end of a Submit.
type submitDoneMsg struct {
	err error
}

// dictateDoneMsg reports the end of a voice prompt.
type dictateDoneMsg struct {
	err error
}

// threadsLoadedMsg carries the thread list.
type threadsLoadedMsg struct {
	entries []threads.Entry
	err     error
}

// threadSelectedMsg reports the result of opening a thread.
type threadSelectedMsg struct {
	err error
}

// threadDeletedMsg reports the result of a delete.
type threadDeletedMsg struct {
	id      string
	deleted bool
	err     error
}

// newChatMsg reports a fresh thread.
type newChatMsg struct {
	thread model.Thread
}

// =============================================================================
// COMMANDS
// =============================================================================

func waitForEvent(events <-chan state.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return stateEventMsg{event: ev, closed: !ok}
	}
}

func submitCmd(ctx context.Context, r Responder, prompt string) tea.Cmd {
	return func() tea.Msg {
		_, err := r.Submit(ctx, prompt)
		return submitDoneMsg{err: err}
	}
}

func dictateCmd(ctx context.Context, r Responder) tea.Cmd {
	return func() tea.Msg {
		_, err := r.Dictate(ctx)
		return dictateDoneMsg{err: err}
	}
}

func listThreadsCmd(ctx context.Context, svc ThreadService) tea.Cmd {
	return func() tea.Msg {
		entries, err := svc.List(ctx)
		return threadsLoadedMsg{entries: entries, err: err}
	}
}

func selectThreadCmd(ctx context.Context, svc ThreadService, id string) tea.Cmd {
	return func() tea.Msg {
		return threadSelectedMsg{err: svc.Select(ctx, id)}
	}
}

// deleteThreadCmd deletes id. The dialog has already asked, so the
// service's confirmation always agrees.
func deleteThreadCmd(ctx context.Context, svc ThreadService, id string) tea.Cmd {
	return func() tea.Msg {
		deleted, err := svc.Delete(ctx, id, func(model.Thread) bool { return true })
		return threadDeletedMsg{id: id, deleted: deleted, err: err}
	}
}

func newChatCmd(ctx context.Context, svc ThreadService) tea.Cmd {
	return func() tea.Msg {
		return newChatMsg{thread: svc.NewChat(ctx)}
	}
}
