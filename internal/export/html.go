// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmutil "github.com/yuin/goldmark/util"

	"github.com/abdulsamad/polychat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded
// CSS. Message content is rendered as markdown; raw HTML in messages is
// dropped.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Theme != "light" {
		opts.Theme = "dark"
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(gmutil.Prioritized(newCodeRenderer(opts.Theme), 200)),
		),
	)
	return &HTMLExporter{options: opts, md: md}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := html.EscapeString(t.Title())

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	sb.WriteString("    <meta name=\"generator\" content=\"polychat\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", t.Thread.Time().Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", e.options.Theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		e.renderHeader(&sb, t)
	} else {
		fmt.Fprintf(&sb, "        <header class=\"header\"><h1>%s</h1></header>\n", title)
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		if err := e.renderMessage(&sb, msg); err != nil {
			return nil, err
		}
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>polychat</strong> on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(script)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(sb *strings.Builder, t *Transcript) {
	s := t.Thread.Settings
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(sb, "            <h1>%s</h1>\n", html.EscapeString(t.Title()))
	sb.WriteString("            <div class=\"metadata\">\n")
	fmt.Fprintf(sb, "                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(s.Model))
	fmt.Fprintf(sb, "                <span class=\"meta-item\"><strong>Variation:</strong> %s</span>\n", html.EscapeString(s.Variation))
	fmt.Fprintf(sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.Thread.Time()))
	fmt.Fprintf(sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg model.Message) error {
	roleClass := strings.ToLower(string(msg.Role))
	if roleClass == "" {
		roleClass = "unknown"
	}
	fmt.Fprintf(sb, "            <div class=\"message %s-message\">\n", html.EscapeString(roleClass))

	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg.Role)))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Time()))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	if msg.IsImage() {
		e.renderImage(sb, msg)
	} else {
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(msg.Content), &buf); err != nil {
			return fmt.Errorf("render message %s: %w", msg.ID, err)
		}
		sb.Write(buf.Bytes())
	}
	sb.WriteString("                </div>\n")

	if msg.Role == model.RoleAssistant && e.options.IncludeMetadata && msg.Metadata.Model != "" {
		fmt.Fprintf(sb, "                <div class=\"message-stats\"><span class=\"stat\">%s</span></div>\n",
			html.EscapeString(messageSource(msg)))
	}

	sb.WriteString("            </div>\n")
	return nil
}

func (e *HTMLExporter) renderImage(sb *strings.Builder, msg model.Message) {
	alt := html.EscapeString(imageAlt(msg))
	if !e.options.IncludeImages {
		fmt.Fprintf(sb, "<p><em>[image: %s]</em></p>\n", alt)
		return
	}
	sb.WriteString("<figure class=\"image\">\n")
	fmt.Fprintf(sb, "<img src=\"%s\" alt=\"%s\">\n", html.EscapeString(imageURL(msg)), alt)
	fmt.Fprintf(sb, "<figcaption>%s</figcaption>\n", alt)
	sb.WriteString("</figure>\n")
}

// =============================================================================
// EMBEDDED ASSETS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --assistant-bg: #24283b;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #f6f8fa;
            --assistant-bg: #ffffff;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 28px; margin-bottom: 16px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); }
        .theme-toggle { margin-left: auto; border: 1px solid var(--border-color); border-radius: 6px; padding: 4px 10px; cursor: pointer; }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 24px; padding: 20px; border-radius: 8px; border-left: 4px solid transparent; }
        .user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
        .assistant-message { background: var(--assistant-bg); border-left-color: var(--accent-green); }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 12px; font-size: 14px; }
        .role-label { font-weight: 600; }
        .timestamp { color: var(--text-muted); font-family: var(--font-mono); }
        .message-content p { margin-bottom: 12px; }
        .message-content code { font-family: var(--font-mono); font-size: 14px; }

        .code-block { margin: 16px 0; border-radius: 8px; overflow: hidden; border: 1px solid var(--border-color); }
        .code-lang { padding: 6px 16px; font-size: 12px; text-transform: uppercase; color: var(--text-secondary); }
        .code-block pre { padding: 16px; overflow-x: auto; }

        .image img { max-width: 100%; border-radius: 8px; }
        .image figcaption { font-size: 13px; color: var(--text-muted); margin-top: 6px; }

        .message-stats { margin-top: 12px; padding-top: 12px; border-top: 1px solid var(--border-color); font-size: 13px; color: var(--text-muted); }
        .footer { padding: 20px 32px; text-align: center; font-size: 14px; color: var(--text-muted); }

        @media print {
            .theme-toggle { display: none; }
            .message { page-break-inside: avoid; }
        }
    </style>
`

const script = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('theme', next);
        }

        document.addEventListener('DOMContentLoaded', function() {
            const saved = localStorage.getItem('theme');
            if (saved) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(saved + '-theme');
            }
        });
    </script>
`
