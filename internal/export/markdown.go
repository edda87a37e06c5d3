// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdulsamad/polychat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := t.Title()
	settings := t.Thread.Settings

	// YAML front matter
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		fmt.Fprintf(&sb, "thread: %s\n", t.Thread.ID)
		fmt.Fprintf(&sb, "model: %s\n", settings.Model)
		fmt.Fprintf(&sb, "variation: %s\n", settings.Variation)
		fmt.Fprintf(&sb, "date: %s\n", t.Thread.Time().Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", e.options.now().Format(time.RFC3339))
		sb.WriteString("generator: polychat\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	if e.options.IncludeMetadata {
		sb.WriteString("## Thread Information\n\n")
		fmt.Fprintf(&sb, "- **Model**: %s\n", settings.Model)
		fmt.Fprintf(&sb, "- **Variation**: %s\n", settings.Variation)
		fmt.Fprintf(&sb, "- **Context aware**: %t\n", settings.IsContextAware)
		fmt.Fprintf(&sb, "- **Created**: %s\n", formatTimestamp(t.Thread.Time()))
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(t.Messages))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range t.Messages {
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", roleLabel(msg.Role), formatShortTimestamp(msg.Time()))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", roleLabel(msg.Role))
		}

		sb.WriteString(e.formatMessage(msg))
		sb.WriteString("\n\n")

		if msg.Role == model.RoleAssistant && e.options.IncludeMetadata && msg.Metadata.Model != "" {
			fmt.Fprintf(&sb, "<sub>%s</sub>\n\n", messageSource(msg))
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from polychat on %s*\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) formatMessage(msg model.Message) string {
	if !msg.IsImage() {
		// Content is already markdown.
		return strings.TrimSpace(msg.Content)
	}
	alt := strings.NewReplacer("[", "(", "]", ")").Replace(imageAlt(msg))
	if !e.options.IncludeImages {
		return fmt.Sprintf("*[image: %s]*", alt)
	}
	return fmt.Sprintf("![%s](%s)", alt, imageURL(msg))
}

// messageSource is the model and variation that produced msg.
func messageSource(msg model.Message) string {
	if msg.Metadata.Variation == "" {
		return msg.Metadata.Model
	}
	return msg.Metadata.Model + " / " + msg.Metadata.Variation
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only characters that would break formatting in headings.
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a YAML scalar when needed.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
