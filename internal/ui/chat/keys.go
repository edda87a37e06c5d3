// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// CHAT KEY MAP
// =============================================================================

// KeyMap defines the bindings of the chat view.
type KeyMap struct {
	Submit         key.Binding
	NewLine        key.Binding
	Cancel         key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Threads        key.Binding
	NewChat        key.Binding
	CycleModel     key.Binding
	CycleVariation key.Binding
	ToggleContext  key.Binding
	ToggleSpeech   key.Binding
	Voice          key.Binding
	DismissToasts  key.Binding
	Help           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default chat bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NewLine: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("Alt+Enter", "new line"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop response"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Threads: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "threads"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "next model"),
		),
		CycleVariation: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "next variation"),
		),
		ToggleContext: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "toggle context"),
		),
		ToggleSpeech: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "toggle speech"),
		),
		Voice: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "voice input"),
		),
		DismissToasts: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "dismiss notices"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.Threads, k.NewChat, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NewLine, k.Cancel, k.PageUp, k.PageDown},
		{k.Threads, k.NewChat, k.Voice, k.DismissToasts},
		{k.CycleModel, k.CycleVariation, k.ToggleContext, k.ToggleSpeech},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// THREAD LIST KEY MAP
// =============================================================================

// ListKeyMap defines the bindings of the thread list.
type ListKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Select   key.Binding
	Delete   key.Binding
	NewChat  key.Binding
	Refresh  key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// DefaultListKeyMap returns the default thread list bindings.
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("n", "ctrl+n"),
			key.WithHelp("n", "new chat"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+t"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown under the list.
func (k ListKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Delete, k.NewChat, k.Back}
}

// FullHelp returns all list bindings.
func (k ListKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Select, k.Delete, k.NewChat, k.Refresh, k.Back, k.Quit},
	}
}
