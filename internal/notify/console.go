// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console prints notifications as single coloured lines.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	err   *color.Color
	info  *color.Color
	quiet bool
}

// NewConsole writes notifications to w. Quiet suppresses Info.
func NewConsole(w io.Writer, quiet bool) *Console {
	return &Console{
		w:     w,
		err:   color.New(color.FgRed, color.Bold),
		info:  color.New(color.FgCyan),
		quiet: quiet,
	}
}

// Error prints msg as an error line.
func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err.Fprint(c.w, "[X] ")
	c.err.Fprintln(c.w, msg)
}

// Info prints msg as an info line.
func (c *Console) Info(msg string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprint(c.w, "[i] ")
	c.info.Fprintln(c.w, msg)
}
