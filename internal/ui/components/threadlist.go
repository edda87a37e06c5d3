// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/ui/styles"
	"github.com/abdulsamad/polychat/internal/util"
)

// ThreadList is a cursor-driven list of saved threads. Each entry takes
// two lines: name with metadata, then a preview.
type ThreadList struct {
	entries []threads.Entry
	cursor  int
	offset  int
	width   int
	height  int
	now     func() time.Time
}

// NewThreadList creates an empty list.
func NewThreadList() ThreadList {
	return ThreadList{now: time.Now}
}

// SetEntries replaces the entries, keeping the cursor on the same thread
// when it is still present.
func (l *ThreadList) SetEntries(entries []threads.Entry) {
	var current string
	if e, ok := l.Selected(); ok {
		current = e.Thread.ID
	}
	l.entries = entries
	l.cursor = 0
	for i, e := range entries {
		if e.Thread.ID == current || (current == "" && e.Active) {
			l.cursor = i
			break
		}
	}
	l.clampOffset()
}

// Entries returns the listed entries.
func (l *ThreadList) Entries() []threads.Entry {
	return l.entries
}

// SetSize sets the available area.
func (l *ThreadList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampOffset()
}

// Len returns the number of entries.
func (l *ThreadList) Len() int {
	return len(l.entries)
}

// Cursor returns the cursor index.
func (l *ThreadList) Cursor() int {
	return l.cursor
}

// Selected returns the entry under the cursor.
func (l *ThreadList) Selected() (threads.Entry, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return threads.Entry{}, false
	}
	return l.entries[l.cursor], true
}

// MoveUp moves the cursor up by n, stopping at the top.
func (l *ThreadList) MoveUp(n int) {
	l.cursor -= n
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.clampOffset()
}

// MoveDown moves the cursor down by n, stopping at the bottom.
func (l *ThreadList) MoveDown(n int) {
	l.cursor += n
	if l.cursor >= len(l.entries) {
		l.cursor = len(l.entries) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.clampOffset()
}

// Top moves the cursor to the first entry.
func (l *ThreadList) Top() {
	l.cursor = 0
	l.clampOffset()
}

// Bottom moves the cursor to the last entry.
func (l *ThreadList) Bottom() {
	l.MoveDown(len(l.entries))
}

// visibleRows is how many entries fit.
func (l *ThreadList) visibleRows() int {
	// Title takes two lines.
	rows := (l.height - 2) / 2
	if rows < 1 {
		return 1
	}
	return rows
}

func (l *ThreadList) clampOffset() {
	rows := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the list.
func (l *ThreadList) View(theme *styles.Theme) string {
	var sb strings.Builder
	sb.WriteString(theme.ListTitle.Render(fmt.Sprintf("Threads (%d)", len(l.entries))))
	sb.WriteString("\n")

	if len(l.entries) == 0 {
		sb.WriteString(theme.Muted.Render("  No saved threads yet. Press esc to start chatting."))
		return sb.String()
	}

	width := l.width
	if width <= 0 {
		width = 80
	}
	now := l.now()

	end := l.offset + l.visibleRows()
	if end > len(l.entries) {
		end = len(l.entries)
	}
	for i := l.offset; i < end; i++ {
		e := l.entries[i]

		marker := "   "
		if e.Active {
			marker = theme.ActiveMarker.Render(styles.StatusIndicators.Active)
		}
		meta := fmt.Sprintf("%s  %s / %s  %d msgs",
			util.RelativeTime(util.FromUnixMilli(e.Thread.Metadata.Timestamp), now),
			e.Thread.Settings.Model,
			e.Thread.Settings.Variation,
			e.Messages,
		)
		nameWidth := width - util.StringWidth(meta) - 10
		if nameWidth < 10 {
			nameWidth = 10
		}
		name := util.TruncateWidth(e.Thread.Metadata.Name, nameWidth)
		line := marker + " " + name + "  " + theme.ListMeta.Render(meta)

		preview := e.Preview
		if preview == "" {
			preview = "(empty)"
		}
		preview = "    " + theme.ListPreview.Render(util.TruncateWidth(preview, width-8))

		style := theme.ListItem
		if i == l.cursor {
			style = theme.ListItemSelected
		}
		sb.WriteString(style.Render(line + "\n" + preview))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
