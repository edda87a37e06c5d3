// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/abdulsamad/polychat/internal/api"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Generator is the backend. *api.Client implements it.
type Generator interface {
	StreamChat(ctx context.Context, req api.ChatRequest) (*api.TextStream, error)
	GenerateImage(ctx context.Context, req api.ImageRequest) (*api.ImageResult, error)
}

// Notifier shows transient, non-fatal notifications.
type Notifier interface {
	Error(msg string)
	Info(msg string)
}

// Feedback signals completion to the user, e.g. a bell or a vibration.
type Feedback interface {
	Vibrate(d time.Duration)
	Play()
}

// Speaker reads text aloud in the given language.
type Speaker interface {
	Speak(ctx context.Context, text, language string) error
}

var (
	// ErrListenStopped is returned by Listen when Stop ended the session.
	ErrListenStopped = errors.New("listening stopped")

	// ErrNoSpeech is returned by Listen when nothing was recognized.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Recognizer turns one spoken utterance into text. A running session is
// stopped before every response cycle begins.
type Recognizer interface {
	Listen(ctx context.Context, language string) (string, error)
	Stop()
}

// =============================================================================
// NO-OP IMPLEMENTATIONS
// =============================================================================

type nopNotifier struct{}

func (nopNotifier) Error(string) {}
func (nopNotifier) Info(string)  {}

type nopFeedback struct{}

func (nopFeedback) Vibrate(time.Duration) {}
func (nopFeedback) Play()                 {}
