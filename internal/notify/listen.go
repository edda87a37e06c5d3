// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/abdulsamad/polychat/internal/chat"
	"github.com/abdulsamad/polychat/internal/model"
)

var (
	// ErrNoListenCommand is returned when no listen command is configured.
	ErrNoListenCommand = errors.New("no listen command configured")

	// ErrAlreadyListening is returned when Listen is called during a session.
	ErrAlreadyListening = errors.New("already listening")
)

// CommandRecognizer implements chat.Recognizer by running an external
// program that records one utterance and prints the transcript on stdout. A
// "{lang}" argument is replaced with the base language, as for
// CommandSpeaker.
type CommandRecognizer struct {
	argv []string

	mu     sync.Mutex
	cancel context.CancelFunc
	stop   bool
}

// NewCommandRecognizer parses command. An empty command yields a recognizer
// whose Listen returns ErrNoListenCommand.
func NewCommandRecognizer(command string) *CommandRecognizer {
	return &CommandRecognizer{argv: strings.Fields(command)}
}

// Listen runs one session and returns the trimmed transcript.
func (r *CommandRecognizer) Listen(ctx context.Context, language string) (string, error) {
	if len(r.argv) == 0 {
		return "", ErrNoListenCommand
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return "", ErrAlreadyListening
	}
	r.cancel, r.stop = cancel, false
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
	}()

	args := make([]string, 0, len(r.argv)-1)
	for _, a := range r.argv[1:] {
		args = append(args, strings.ReplaceAll(a, "{lang}", model.BaseLanguage(language)))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.argv[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	r.mu.Lock()
	stopped := r.stop
	r.mu.Unlock()

	switch {
	case stopped:
		return "", chat.ErrListenStopped
	case err != nil && ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		return "", fmt.Errorf("%s: %w: %s", r.argv[0], err, strings.TrimSpace(stderr.String()))
	}

	transcript := strings.TrimSpace(stdout.String())
	if transcript == "" {
		return "", chat.ErrNoSpeech
	}
	return transcript, nil
}

// Listening reports whether a session is running.
func (r *CommandRecognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Stop ends the running session, discarding its transcript. It is a no-op
// when nothing is listening.
func (r *CommandRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.stop = true
		r.cancel()
	}
}
