// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("thread has no messages")

// ErrUnsupportedFormat is returned by ForFormat.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Transcript is a thread with its messages in display order.
type Transcript struct {
	Thread   model.Thread    `json:"thread"`
	Messages []model.Message `json:"messages"`
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// Title is the thread name, falling back to its creation time.
func (t *Transcript) Title() string {
	if name := strings.TrimSpace(t.Thread.Metadata.Name); name != "" {
		return name
	}
	return model.ThreadName(t.Thread.Time())
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata adds thread settings and counts.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// IncludeImages embeds generated images as data URLs. When false an
	// image is replaced by its description.
	IncludeImages bool

	// Theme for HTML export ("light" or "dark"). Default: "dark".
	Theme string

	// Now stamps the export. Nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeImages:     true,
		Theme:             "dark",
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ForFormat returns the exporter for a format name: md, markdown, html,
// htm or json.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports t with exporter and writes the result into
// opts.OutputDir. It returns the path of the written file.
func ToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("thread_%s_%s%s",
		util.SanitizeFilename(t.Title()),
		opts.now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// roleLabel returns the heading for a message role.
func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser, model.RoleAssistant:
		return "[" + role.DisplayName() + "]"
	case "":
		return "Unknown"
	default:
		runes := []rune(string(role))
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
}

// imageAlt is the description of an image message.
func imageAlt(msg model.Message) string {
	if msg.ImageURL != nil && msg.ImageURL.Alt != "" {
		return msg.ImageURL.Alt
	}
	return "generated image"
}

// imageURL is the source of an image message.
func imageURL(msg model.Message) string {
	if msg.ImageURL != nil && msg.ImageURL.URL != "" {
		return msg.ImageURL.URL
	}
	return msg.Content
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
