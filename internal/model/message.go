// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType distinguishes plain text from generated images.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImageURL MessageType = "image_url"
)

// ImageURL describes a generated image. URL is usually a data: URL.
type ImageURL struct {
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
	Size string `json:"size,omitempty"`
}

// MessageMetadata records which model and persona produced a message.
// Variation is empty for user messages.
type MessageMetadata struct {
	Model     string `json:"model"`
	Variation string `json:"variation,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Message is a single entry in a thread. IDs are unique within a thread;
// a streaming assistant reply keeps one ID from its first chunk to the end.
type Message struct {
	ID       string          `json:"id"`
	Role     Role            `json:"role"`
	Content  string          `json:"content"`
	Type     MessageType     `json:"type"`
	ImageURL *ImageURL       `json:"image_url,omitempty"`
	Metadata MessageMetadata `json:"metadata"`
}

// NewID returns a fresh random UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewUserMessage creates a text message from the user.
func NewUserMessage(content, modelName string) Message {
	return Message{
		ID:      NewID(),
		Role:    RoleUser,
		Content: content,
		Type:    TypeText,
		Metadata: MessageMetadata{
			Model:     modelName,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// NewImageMessage creates an assistant image message. The data URL is used
// for both Content and ImageURL.URL so text-only consumers still see it.
func NewImageMessage(id, dataURL, alt, size string, meta MessageMetadata) Message {
	return Message{
		ID:       id,
		Role:     RoleAssistant,
		Content:  dataURL,
		Type:     TypeImageURL,
		ImageURL: &ImageURL{URL: dataURL, Alt: alt, Size: size},
		Metadata: meta,
	}
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Metadata.Timestamp)
}

// IsImage reports whether the message carries a generated image.
func (m Message) IsImage() bool {
	return m.Type == TypeImageURL
}

// Preview returns a single-line preview of the content, at most maxLen runes.
func (m Message) Preview(maxLen int) string {
	if m.IsImage() {
		if m.ImageURL != nil && m.ImageURL.Alt != "" {
			return previewText("[image] "+m.ImageURL.Alt, maxLen)
		}
		return "[image]"
	}
	return previewText(m.Content, maxLen)
}

func previewText(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// CloneMessages returns a copy of msgs that shares no ImageURL pointers.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.ImageURL != nil {
			img := *m.ImageURL
			m.ImageURL = &img
		}
		out[i] = m
	}
	return out
}
