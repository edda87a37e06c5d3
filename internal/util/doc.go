// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across polychat.
//
// # Key Functions
//
// Display:
//   - TruncateWidth: cell-width aware truncation with ellipsis (go-runewidth)
//   - PadRight: pad a string to a display width
//   - FirstLine: collapse multi-line text to its first non-empty line
//
// Time:
//   - UnixMilli / FromUnixMilli: persisted timestamp conversions
//   - RelativeTime: "just now", "5m ago", "yesterday"
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - SanitizeFilename: filesystem-safe names for exports
//
// # Usage
//
//	name := util.TruncateWidth(thread.Metadata.Name, 32)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
