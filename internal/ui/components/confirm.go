// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// ConfirmResult is the outcome of a ConfirmDialog.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmYes
	ConfirmNo
)

type confirmKeys struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Accept key.Binding
}

var defaultConfirmKeys = confirmKeys{
	Yes:    key.NewBinding(key.WithKeys("y", "Y")),
	No:     key.NewBinding(key.WithKeys("n", "N", "esc", "q")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab")),
	Accept: key.NewBinding(key.WithKeys("enter")),
}

// ConfirmDialog asks a yes/no question. The default answer is No.
type ConfirmDialog struct {
	Title   string
	Message string
	yes     bool
}

// NewConfirmDialog creates a dialog focused on No.
func NewConfirmDialog(title, message string) ConfirmDialog {
	return ConfirmDialog{Title: title, Message: message}
}

// Update handles a key and reports whether the user answered.
func (d ConfirmDialog) Update(msg tea.KeyMsg) (ConfirmDialog, ConfirmResult) {
	switch {
	case key.Matches(msg, defaultConfirmKeys.Yes):
		return d, ConfirmYes
	case key.Matches(msg, defaultConfirmKeys.No):
		return d, ConfirmNo
	case key.Matches(msg, defaultConfirmKeys.Toggle):
		d.yes = !d.yes
	case key.Matches(msg, defaultConfirmKeys.Accept):
		if d.yes {
			return d, ConfirmYes
		}
		return d, ConfirmNo
	}
	return d, ConfirmPending
}

// View renders the dialog centered in width x height.
func (d ConfirmDialog) View(theme *styles.Theme, width, height int) string {
	yes, no := theme.DialogButton, theme.DialogButtonActive
	if d.yes {
		yes, no = theme.DialogButtonActive, theme.DialogButton
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Yes"), "  ", no.Render("No"))

	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.DialogTitle.Render(d.Title),
		"",
		d.Message,
		"",
		buttons,
	)
	box := theme.DialogBox.Render(body)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
