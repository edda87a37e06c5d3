// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	gmutil "github.com/yuin/goldmark/util"
)

// =============================================================================
// FENCED CODE RENDERER
// =============================================================================

// codeRenderer renders fenced code blocks with chroma. Inline styles are
// used so the exported page needs no extra stylesheet.
type codeRenderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newCodeRenderer(theme string) *codeRenderer {
	name := "monokai"
	if theme == "light" {
		name = "github"
	}
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return &codeRenderer{
		style:     style,
		formatter: chromahtml.New(chromahtml.TabWidth(4)),
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *codeRenderer) renderFencedCode(w gmutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	language := string(n.Language(source))

	_, _ = w.WriteString("<div class=\"code-block\">\n")
	if language != "" {
		_, _ = w.WriteString("<div class=\"code-lang\">" + html.EscapeString(language) + "</div>\n")
	}
	if err := r.highlight(w, language, code.String()); err != nil {
		// Unhighlighted but still escaped.
		_, _ = w.WriteString("<pre><code>" + html.EscapeString(code.String()) + "</code></pre>\n")
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *codeRenderer) highlight(w gmutil.BufWriter, language, code string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	// Render into a buffer so a failure leaves nothing half written.
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}
