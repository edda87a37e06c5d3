// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat thread to a shareable file.
//
// # Key Types
//
//   - Transcript: a thread with its messages
//   - Exporter: converts a Transcript to bytes in one format
//   - MarkdownExporter: YAML front matter plus a readable conversation
//   - HTMLExporter: standalone page, markdown rendered with goldmark and
//     fenced code highlighted with chroma
//   - JSONExporter: the thread and messages in their persisted shape
//
// # Usage
//
//	t := &export.Transcript{Thread: thread, Messages: msgs}
//	path, err := export.ToFile(t, export.NewHTMLExporter(nil), nil)
package export
