// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify implements the terminal side of response feedback:
// coloured error and info lines for line-oriented commands, the bell and
// visual bell on completion, and speech in both directions through
// external commands: CommandSpeaker reads replies aloud and
// CommandRecognizer turns a spoken prompt into text. The full-screen UI uses its own toast stack instead of Console.
package notify
