// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// =============================================================================
// THREAD STATUS
// =============================================================================

// Status is the lifecycle state of a thread.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStreaming Status = "streaming"
	StatusSaving    Status = "saving"
)

// =============================================================================
// THREAD TYPES
// =============================================================================

// ModelConfig carries generation parameters sent with text requests.
type ModelConfig struct {
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Settings are the per-thread model choices and toggles.
type Settings struct {
	Model                 string      `json:"model"`
	Variation             string      `json:"variation"`
	IsContextAware        bool        `json:"isContextAware"`
	IsTextToSpeechEnabled bool        `json:"isTextToSpeechEnabled"`
	ModelConfig           ModelConfig `json:"modelConfig"`
}

// Metadata describes a thread for listing.
type Metadata struct {
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
	Status    Status `json:"status"`
	Version   int    `json:"version"`
}

// FailedMessage is a prompt whose response could not be produced.
type FailedMessage struct {
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

// Queue tracks prompts that are waiting or that failed.
type Queue struct {
	Pending []Message       `json:"pending"`
	Failed  []FailedMessage `json:"failed"`
}

// Thread is one conversation. Exactly one thread is active at a time; its
// ID is the key its messages are persisted under.
type Thread struct {
	ID       string   `json:"id"`
	Settings Settings `json:"settings"`
	Metadata Metadata `json:"metadata"`
	Queue    *Queue   `json:"queue,omitempty"`
}

// Defaults applied to every new thread.
const (
	DefaultModel     = "gemini-2.0-flash"
	DefaultVariation = "normal"
	DefaultMaxTokens = 3000
)

// DefaultThread returns a fresh idle thread with a new ID and the default
// model and variation.
func DefaultThread() Thread {
	return NewThread(Settings{
		Model:       DefaultModel,
		Variation:   DefaultVariation,
		ModelConfig: ModelConfig{MaxTokens: DefaultMaxTokens, Temperature: defaultTemperature},
	})
}

// NewThread returns a fresh idle thread with a new ID carrying settings.
func NewThread(settings Settings) Thread {
	now := time.Now()
	return Thread{
		ID:       NewID(),
		Settings: settings,
		Metadata: Metadata{
			Name:      ThreadName(now),
			Timestamp: now.UnixMilli(),
			Status:    StatusIdle,
			Version:   1,
		},
		Queue: &Queue{Pending: []Message{}, Failed: []FailedMessage{}},
	}
}

// ThreadName formats the default display name, e.g. "Chat (14:05 - 03/11/25)".
func ThreadName(t time.Time) string {
	return fmt.Sprintf("Chat (%s)", t.Format("15:04 - 02/01/06"))
}

// Time returns the thread timestamp as a time.Time.
func (t Thread) Time() time.Time {
	return time.UnixMilli(t.Metadata.Timestamp)
}

// Clone returns a deep copy of the thread.
func (t Thread) Clone() Thread {
	if t.Queue != nil {
		q := Queue{
			Pending: CloneMessages(t.Queue.Pending),
			Failed:  make([]FailedMessage, len(t.Queue.Failed)),
		}
		copy(q.Failed, t.Queue.Failed)
		t.Queue = &q
	}
	return t
}

// RecordFailure appends a failed prompt to the thread queue.
func (t *Thread) RecordFailure(msg Message, err error) {
	if t.Queue == nil {
		t.Queue = &Queue{Pending: []Message{}, Failed: []FailedMessage{}}
	}
	text := ""
	if err != nil {
		text = err.Error()
	}
	t.Queue.Failed = append(t.Queue.Failed, FailedMessage{Message: msg, Error: text})
}
