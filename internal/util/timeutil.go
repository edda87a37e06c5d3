// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"time"
)

// UnixMilli returns t as milliseconds since the epoch, the unit every
// persisted timestamp uses.
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMilli converts persisted milliseconds back to local time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).Local()
}

// RelativeTime formats t relative to now for compact list display.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 0:
		return t.Format("02/01/06 15:04")
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("02/01/06")
	}
}
