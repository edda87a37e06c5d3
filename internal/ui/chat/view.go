// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/ui/components"
	"github.com/abdulsamad/polychat/internal/util"
)

// View renders the model.
func (m Model) View() string {
	if m.confirm != nil {
		return m.confirm.View(m.theme, m.width, m.height)
	}

	var screen string
	if m.mode == modeThreads {
		screen = m.renderThreads()
	} else {
		screen = m.renderChat()
	}

	toasts := components.RenderToastStack(m.toasts.Toasts(), m.width, time.Now())
	if toasts == "" {
		return screen
	}
	return overlayBottom(screen, toasts, m.height)
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) renderChat() string {
	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.theme.InputContainer.Width(max(m.width, 1)).Render(m.input.View()),
	}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	}
	parts = append(parts, m.renderStatusBar(m.help.ShortHelpView(m.keys.ShortHelp())))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	t := m.snap.Thread
	if t == nil {
		return m.theme.Header.Width(max(m.width, 1)).Render(m.theme.HeaderTitle.Render("polychat"))
	}

	var flags []string
	if info, err := model.Lookup(t.Settings.Model); err == nil && info.IsImage() {
		flags = append(flags, "image")
	} else {
		flags = append(flags, t.Settings.Variation)
	}
	if t.Settings.IsContextAware {
		flags = append(flags, "context")
	}
	if t.Settings.IsTextToSpeechEnabled {
		flags = append(flags, "speech")
	}

	meta := m.theme.Badge.Render(t.Settings.Model) + " " + m.theme.HeaderMeta.Render(strings.Join(flags, " | "))
	nameWidth := m.width - lipgloss.Width(meta) - 4
	if nameWidth < 8 {
		nameWidth = 8
	}
	title := m.theme.HeaderTitle.Render(util.TruncateWidth(t.Metadata.Name, nameWidth))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(meta) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(title + strings.Repeat(" ", gap) + meta)
}

func (m Model) renderStatusBar(hints string) string {
	left := ""
	switch {
	case m.listening:
		left = m.theme.Loading.Render("● listening") + "  "
	case m.snap.Loading:
		left = m.theme.Loading.Render(m.spinner.View()+" waiting for reply") + "  "
	}
	return m.theme.StatusBar.Width(max(m.width, 1)).Render(left + hints)
}

// =============================================================================
// THREAD LIST VIEW
// =============================================================================

func (m Model) renderThreads() string {
	body := m.list.View(m.theme)
	status := m.renderStatusBar(m.help.ShortHelpView(m.listKeys.ShortHelp()))

	bodyHeight := m.height - statusBarHeight
	if bodyHeight > 0 {
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// overlayBottom replaces the last lines of screen, above the status bar,
// with overlay.
func overlayBottom(screen, overlay string, height int) string {
	lines := strings.Split(screen, "\n")
	over := strings.Split(overlay, "\n")

	start := len(lines) - statusBarHeight - len(over)
	if height > 0 && len(lines) > height {
		start = height - statusBarHeight - len(over)
	}
	if start < 0 {
		start = 0
	}
	for i, l := range over {
		if start+i >= len(lines) {
			lines = append(lines, l)
			continue
		}
		lines[start+i] = l
	}
	return strings.Join(lines, "\n")
}
