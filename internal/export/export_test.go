// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
)

var fixedNow = time.Date(2025, 3, 11, 14, 5, 0, 0, time.UTC)

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func sampleTranscript() *Transcript {
	thread := model.DefaultThread()
	thread.Metadata.Name = "Go: questions"
	meta := model.MessageMetadata{Model: thread.Settings.Model, Variation: "normal", Timestamp: fixedNow.UnixMilli()}

	user := model.NewUserMessage("How do I print?", thread.Settings.Model)
	reply := model.Message{
		ID:       model.NewID(),
		Role:     model.RoleAssistant,
		Type:     model.TypeText,
		Content:  "Use fmt:\n\n```go\nfmt.Println(\"hi\")\n```\n\n<script>alert(1)</script>",
		Metadata: meta,
	}
	image := model.NewImageMessage(model.NewID(), "data:image/png;base64,AAAA", "a red fox", "1024x1024", meta)
	return &Transcript{Thread: thread, Messages: []model.Message{user, reply, image}}
}

func TestForFormat(t *testing.T) {
	for format, ext := range map[string]string{"md": ".md", "Markdown": ".md", "html": ".html", "htm": ".html", "json": ".json"} {
		e, err := ForFormat(format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, ext, e.FileExtension(), format)
	}

	_, err := ForFormat("pdf", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEmptyTranscriptRejected(t *testing.T) {
	for _, e := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil), NewJSONExporter(nil)} {
		_, err := e.Export(&Transcript{Thread: model.DefaultThread()})
		assert.ErrorIs(t, err, ErrEmptyTranscript)
		_, err = e.Export(nil)
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions(t.TempDir())).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "title: \"Go: questions\"")
	assert.Contains(t, md, "model: gemini-2.0-flash")
	assert.Contains(t, md, "### [You]")
	assert.Contains(t, md, "### [Assistant]")
	assert.Contains(t, md, "```go\nfmt.Println(\"hi\")\n```")
	assert.Contains(t, md, "![a red fox](data:image/png;base64,AAAA)")
	assert.Contains(t, md, "gemini-2.0-flash / normal")
}

func TestMarkdownExport_WithoutImagesOrMetadata(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.IncludeImages = false
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "*[image: a red fox]*")
	assert.NotContains(t, md, "base64")
	assert.Contains(t, md, "### [You]\n")
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(testOptions(t.TempDir())).Export(sampleTranscript())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>Go: questions</title>")
	assert.Contains(t, page, "class=\"dark-theme\"")
	assert.Contains(t, page, "user-message")
	assert.Contains(t, page, "assistant-message")
	assert.Contains(t, page, "<div class=\"code-lang\">go</div>")
	assert.Contains(t, page, "Println")
	assert.Contains(t, page, "<img src=\"data:image/png;base64,AAAA\" alt=\"a red fox\">")
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "March 11, 2025")
}

func TestHTMLExport_EscapesTitle(t *testing.T) {
	tr := sampleTranscript()
	tr.Thread.Metadata.Name = "<b>bold</b>"

	out, err := NewHTMLExporter(nil).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>&lt;b&gt;bold&lt;/b&gt;</title>")
}

func TestJSONExport(t *testing.T) {
	tr := sampleTranscript()
	out, err := NewJSONExporter(nil).Export(tr)
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, tr.Thread.ID, decoded.Thread.ID)
	require.Len(t, decoded.Messages, 3)
	assert.Equal(t, model.TypeImageURL, decoded.Messages[2].Type)
	assert.Equal(t, "a red fox", decoded.Messages[2].ImageURL.Alt)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)

	path, err := ToFile(sampleTranscript(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "thread_Go__questions_20250311_140500.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Conversation")
}

func TestTitleFallsBackToTimestamp(t *testing.T) {
	tr := sampleTranscript()
	tr.Thread.Metadata.Name = "  "
	assert.Equal(t, model.ThreadName(tr.Thread.Time()), tr.Title())
}
