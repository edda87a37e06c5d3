// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI pieces for the polychat TUI.
//
// # Key Types
//
//   - ToastManager: non-blocking notifications; safe to call from any
//     goroutine, so it doubles as the responder's Notifier
//   - ConfirmDialog: yes/no modal used before destructive actions
//   - ThreadList: cursor-driven list of saved threads
//   - MessageRenderer: renders thread messages, markdown via glamour
package components
