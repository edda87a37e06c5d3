// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// MessageRenderer renders thread messages for the chat viewport.
// Assistant text goes through glamour; rendered output is cached per
// message and content so a streaming reply only re-renders the message
// that changed.
type MessageRenderer struct {
	theme    *styles.Theme
	width    int
	markdown *glamour.TermRenderer
	cache    map[string]cachedRender
}

type cachedRender struct {
	content string
	out     string
}

// NewMessageRenderer creates a renderer wrapping at width.
func NewMessageRenderer(theme *styles.Theme, width int) *MessageRenderer {
	r := &MessageRenderer{theme: theme, cache: make(map[string]cachedRender)}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the markdown renderer when the width changes.
func (r *MessageRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.markdown != nil {
		return
	}
	r.width = width
	r.cache = make(map[string]cachedRender)

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.theme.GlamourStyle()),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		// Plain text fallback.
		md = nil
	}
	r.markdown = md
}

// RenderAll renders msgs separated by blank lines.
func (r *MessageRenderer) RenderAll(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, r.Render(m))
	}
	return strings.Join(parts, "\n\n")
}

// Render renders one message with its label.
func (r *MessageRenderer) Render(msg model.Message) string {
	ts := r.theme.Timestamp.Render(msg.Time().Format("15:04"))

	switch {
	case msg.Role == model.RoleUser:
		label := r.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + ts
		body := r.theme.UserBubble.Width(r.width - 2).Render(msg.Content)
		return label + "\n" + body

	case msg.IsImage():
		label := r.theme.AssistantLabel.Render(assistantLabel(msg)) + " " + ts
		return label + "\n" + r.theme.AssistantBubble.Render(r.renderImage(msg))

	default:
		label := r.theme.AssistantLabel.Render(assistantLabel(msg)) + " " + ts
		return label + "\n" + r.theme.AssistantBubble.Render(r.renderMarkdown(msg))
	}
}

func (r *MessageRenderer) renderMarkdown(msg model.Message) string {
	if c, ok := r.cache[msg.ID]; ok && c.content == msg.Content {
		return c.out
	}

	out := msg.Content
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(msg.Content); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	r.cache[msg.ID] = cachedRender{content: msg.Content, out: out}
	return out
}

// renderImage describes an image; terminals cannot show data URLs inline.
func (r *MessageRenderer) renderImage(msg model.Message) string {
	alt, size := "generated image", ""
	if msg.ImageURL != nil {
		if msg.ImageURL.Alt != "" {
			alt = msg.ImageURL.Alt
		}
		size = msg.ImageURL.Size
	}
	caption := "[image"
	if size != "" {
		caption += " " + size
	}
	caption += "] " + alt
	return " " + r.theme.ImageCaption.Render(caption) + "\n " +
		r.theme.Muted.Render("use `polychat export` to save it")
}

func assistantLabel(msg model.Message) string {
	name := model.RoleAssistant.DisplayName()
	if msg.Metadata.Model == "" {
		return name
	}
	if msg.Metadata.Variation == "" {
		return fmt.Sprintf("%s (%s)", name, msg.Metadata.Model)
	}
	return fmt.Sprintf("%s (%s, %s)", name, msg.Metadata.Model, msg.Metadata.Variation)
}
