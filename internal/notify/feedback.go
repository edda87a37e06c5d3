// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"io"
	"sync"
	"time"
)

const (
	bell = "\a"

	// DECSCNM reverse video, the usual visual bell.
	reverseOn  = "\x1b[?5h"
	reverseOff = "\x1b[?5l"

	// maxFlash caps how long the screen stays inverted.
	maxFlash = 250 * time.Millisecond
)

// Terminal is completion feedback for a terminal: Play rings the bell and
// Vibrate briefly inverts the screen, a terminal's nearest thing to a
// vibration. Either can be disabled.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	sound  bool
	haptic bool
}

// NewTerminal writes control sequences to w.
func NewTerminal(w io.Writer, sound, haptic bool) *Terminal {
	return &Terminal{w: w, sound: sound, haptic: haptic}
}

// Play rings the terminal bell.
func (t *Terminal) Play() {
	if !t.sound {
		return
	}
	t.write(bell)
}

// Vibrate flashes the screen for d, capped at a quarter second. It does
// not block.
func (t *Terminal) Vibrate(d time.Duration) {
	if !t.haptic || d <= 0 {
		return
	}
	if d > maxFlash {
		d = maxFlash
	}
	t.write(reverseOn)
	time.AfterFunc(d, func() { t.write(reverseOff) })
}

func (t *Terminal) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, s)
}
