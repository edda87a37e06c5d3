// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// stream.go - Printing a reply to the terminal while it streams in.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
)

// streamPrinter writes the new assistant message of the active thread as
// its content grows. Messages present when it was created are ignored.
type streamPrinter struct {
	w     io.Writer
	st    *state.State
	seen  map[string]bool
	quiet bool // print nothing while streaming
	echo  bool // print new user messages, e.g. a voice transcript

	mu      sync.Mutex
	id      string
	printed string
}

func newStreamPrinter(w io.Writer, st *state.State) *streamPrinter {
	seen := make(map[string]bool)
	for _, m := range st.Messages() {
		seen[m.ID] = true
	}
	return &streamPrinter{w: w, st: st, seen: seen}
}

// follow prints updates until ctx is done. The returned channel closes
// once the last update has been written.
func (p *streamPrinter) follow(ctx context.Context) <-chan struct{} {
	events := p.st.Subscribe(ctx, state.MessagesChanged)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
			p.update()
		}
	}()
	return done
}

// update prints whatever the reply gained since the last call.
func (p *streamPrinter) update() {
	for _, m := range p.st.Messages() {
		if p.seen[m.ID] {
			continue
		}
		if m.Role == model.RoleUser && p.echo {
			p.seen[m.ID] = true
			p.mu.Lock()
			fmt.Fprintf(p.w, "> %s\n\n", m.Content)
			p.mu.Unlock()
			continue
		}
		if m.Role != model.RoleAssistant || m.IsImage() {
			continue
		}
		p.write(m)
		return
	}
}

func (p *streamPrinter) write(m model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" && p.id != m.ID {
		return
	}
	p.id = m.ID
	if p.quiet {
		return
	}

	// Content only grows while streaming; anything else is reprinted whole
	// on a fresh line.
	if strings.HasPrefix(m.Content, p.printed) {
		fmt.Fprint(p.w, m.Content[len(p.printed):])
	} else {
		fmt.Fprint(p.w, "\n"+m.Content)
	}
	p.printed = m.Content
}

// finish prints the rest of final, which is the message the response
// cycle returned, and ends the output with a newline.
func (p *streamPrinter) finish(final model.Message) {
	if final.ID == "" {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
			fmt.Fprintln(p.w)
		}
		return
	}

	if final.IsImage() {
		fmt.Fprintln(p.w, imageCaption(final))
		return
	}

	p.write(final)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.quiet && !strings.HasSuffix(p.printed, "\n") {
		fmt.Fprintln(p.w)
	}
}

// imageCaption describes an image message; terminals cannot show it.
func imageCaption(m model.Message) string {
	alt, size := "generated image", ""
	if m.ImageURL != nil {
		if m.ImageURL.Alt != "" {
			alt = m.ImageURL.Alt
		}
		size = m.ImageURL.Size
	}
	if size != "" {
		return fmt.Sprintf("[image %s] %s", size, alt)
	}
	return fmt.Sprintf("[image] %s", alt)
}

// respond submits prompt and streams the reply to w. With render set the
// reply is not streamed; the caller prints the returned message instead.
func respond(ctx context.Context, app *App, w io.Writer, prompt string, render bool) (model.Message, error) {
	printer := newStreamPrinter(w, app.State)
	printer.quiet = render
	return printer.run(ctx, render, func(ctx context.Context) (model.Message, error) {
		return app.Responder.Submit(ctx, prompt)
	})
}

// dictate listens for a spoken prompt, echoes its transcript and streams
// the reply to w.
func dictate(ctx context.Context, app *App, w io.Writer) (model.Message, error) {
	printer := newStreamPrinter(w, app.State)
	printer.echo = true
	return printer.run(ctx, false, app.Responder.Dictate)
}

// run follows state while submit runs one response cycle.
func (p *streamPrinter) run(ctx context.Context, render bool, submit func(context.Context) (model.Message, error)) (model.Message, error) {
	followCtx, stop := context.WithCancel(ctx)
	done := p.follow(followCtx)

	msg, err := submit(ctx)

	stop()
	<-done
	if render && err == nil {
		return msg, nil
	}
	p.finish(msg)
	return msg, err
}
