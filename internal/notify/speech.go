// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/abdulsamad/polychat/internal/model"
)

// ErrNoSpeechCommand is returned when no speech command is configured.
var ErrNoSpeechCommand = errors.New("no speech command configured")

// CommandSpeaker reads text aloud by running an external program such as
// espeak or say. The text is written to the program's stdin. A "{lang}"
// argument is replaced with the base language, e.g. "espeak -v {lang}".
type CommandSpeaker struct {
	argv []string
}

// NewCommandSpeaker parses command. An empty command yields a speaker whose
// Speak returns ErrNoSpeechCommand.
func NewCommandSpeaker(command string) *CommandSpeaker {
	return &CommandSpeaker{argv: strings.Fields(command)}
}

// Speak runs the command and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text, language string) error {
	if len(s.argv) == 0 {
		return ErrNoSpeechCommand
	}

	args := make([]string, 0, len(s.argv)-1)
	for _, a := range s.argv[1:] {
		args = append(args, strings.ReplaceAll(a, "{lang}", model.BaseLanguage(language)))
	}

	// SECURITY: No shell; the text only ever reaches stdin.
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
