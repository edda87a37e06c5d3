// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/api"
	"github.com/abdulsamad/polychat/internal/logging"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
)

// vibrateDuration is the completion vibration length.
const vibrateDuration = 100 * time.Millisecond

const (
	// MsgNoThread is shown when a prompt arrives before any thread exists.
	MsgNoThread = "Thread not created"

	// MsgVoiceFailed is shown when the listen command fails.
	MsgVoiceFailed = "Voice input failed"
)

var (
	// ErrEmptyPrompt is returned by Submit for a blank prompt.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrNoRecognizer is returned by Dictate without a Recognizer.
	ErrNoRecognizer = errors.New("voice input is not configured")
)

// Options configures a Responder. Nil collaborators fall back to no-ops.
type Options struct {
	// Throttle spaces streaming upserts. Zero means DefaultThrottle and a
	// negative value upserts every chunk.
	Throttle   time.Duration
	Notifier   Notifier
	Feedback   Feedback
	Speaker    Speaker
	Recognizer Recognizer
	Logger     logrus.FieldLogger
}

// Request is one response cycle.
type Request struct {
	Prompt string

	// OnTextComplete receives the full content after the final upsert.
	OnTextComplete func(content string)

	// OnImageComplete runs after the image message is upserted.
	OnImageComplete func()

	// userMessageID is the message Submit appended for Prompt; it is left
	// out of the context history because Prompt is sent explicitly.
	userMessageID string

	// submit is the Submit call that raised loading, or zero.
	submit uint64
}

// Responder drives one response at a time against the active thread.
type Responder struct {
	state      *state.State
	gen        Generator
	throttle   time.Duration
	notify     Notifier
	feedback   Feedback
	speaker    Speaker
	recognizer Recognizer
	log        logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// submits numbers Submit calls so only the latest lowers loading.
	submits atomic.Uint64
}

// NewResponder creates a Responder writing into st.
func NewResponder(st *state.State, gen Generator, opts Options) *Responder {
	r := &Responder{
		state:      st,
		gen:        gen,
		throttle:   opts.Throttle,
		notify:     opts.Notifier,
		feedback:   opts.Feedback,
		speaker:    opts.Speaker,
		recognizer: opts.Recognizer,
		log:        opts.Logger,
	}
	switch {
	case r.throttle == 0:
		r.throttle = DefaultThrottle
	case r.throttle < 0:
		r.throttle = 0
	}
	if r.notify == nil {
		r.notify = nopNotifier{}
	}
	if r.feedback == nil {
		r.feedback = nopFeedback{}
	}
	if r.log == nil {
		r.log = logging.For("chat")
	}
	return r
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Submit appends prompt as a user message to the active thread and runs a
// response cycle for it. The loading flag is raised until the reply starts:
// the stream opening for text models, the image arriving for image models,
// or the cycle ending on failure. Blank prompts are ignored.
func (r *Responder) Submit(ctx context.Context, prompt string) (model.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.Message{}, ErrEmptyPrompt
	}

	// Cancel first so the previous reply lands before the new prompt.
	r.Cancel()

	thread, ok := r.state.Thread()
	if !ok {
		r.notify.Error(MsgNoThread)
		return model.Message{}, state.ErrNoThread
	}

	user := model.NewUserMessage(prompt, thread.Settings.Model)
	r.state.Upsert(user)

	seq := r.submits.Add(1)
	r.state.SetLoading(true)
	defer r.replyStarted(seq)

	return r.Respond(ctx, Request{Prompt: prompt, userMessageID: user.ID, submit: seq})
}

// Dictate listens for one utterance in the configured language and submits
// the transcript like a typed prompt.
func (r *Responder) Dictate(ctx context.Context) (model.Message, error) {
	if r.recognizer == nil {
		return model.Message{}, ErrNoRecognizer
	}
	if _, ok := r.state.Thread(); !ok {
		r.notify.Error(MsgNoThread)
		return model.Message{}, state.ErrNoThread
	}

	transcript, err := r.recognizer.Listen(ctx, r.state.Config().Language)
	switch {
	case err == nil:
	case ctx.Err() != nil, errors.Is(err, ErrListenStopped), errors.Is(err, ErrNoSpeech):
		return model.Message{}, err
	default:
		r.notify.Error(MsgVoiceFailed)
		r.log.WithError(err).Error("voice input failed")
		return model.Message{}, err
	}
	r.log.WithField("bytes", len(transcript)).Debug("transcript received")
	return r.Submit(ctx, transcript)
}

// StopListening ends a running Dictate session without submitting.
func (r *Responder) StopListening() {
	if r.recognizer != nil {
		r.recognizer.Stop()
	}
}

// Respond runs one response cycle for req against the active thread. Any
// response still in flight is cancelled and awaited first. Errors are
// reported through the Notifier and also returned; a cancelled response
// returns context.Canceled without a notification.
func (r *Responder) Respond(ctx context.Context, req Request) (model.Message, error) {
	r.StopListening()

	ctx, finish := r.begin(ctx)
	defer finish()

	thread, ok := r.state.Thread()
	if !ok {
		r.notify.Error(MsgNoThread)
		return model.Message{}, state.ErrNoThread
	}

	info, err := model.Lookup(thread.Settings.Model)
	if err != nil {
		return model.Message{}, r.fail(ctx, thread, req, err)
	}

	r.setStatus(thread.ID, model.StatusStreaming)
	defer r.setStatus(thread.ID, model.StatusIdle)

	switch info.Capability {
	case model.ImageModel:
		return r.respondImage(ctx, thread, req)
	default:
		return r.respondText(ctx, thread, req)
	}
}

// Cancel stops the in-flight response, if any, and waits until it has made
// its final upsert.
func (r *Responder) Cancel() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Busy reports whether a response is in flight.
func (r *Responder) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// begin cancels any running response and registers a new one.
func (r *Responder) begin(parent context.Context) (context.Context, func()) {
	r.mu.Lock()
	for r.cancel != nil {
		cancel, done := r.cancel, r.done
		r.mu.Unlock()
		cancel()
		<-done
		r.mu.Lock()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	r.mu.Unlock()

	return ctx, func() {
		cancel()
		r.mu.Lock()
		if r.done == done {
			r.cancel, r.done = nil, nil
		}
		r.mu.Unlock()
		close(done)
	}
}

// =============================================================================
// TEXT
// =============================================================================

func (r *Responder) respondText(ctx context.Context, thread model.Thread, req Request) (model.Message, error) {
	cfg := r.state.Config()
	chatReq := api.ChatRequest{
		Model:     thread.Settings.Model,
		Variation: thread.Settings.Variation,
		Language:  cfg.Language,
	}
	if thread.Settings.IsContextAware {
		chatReq.Messages = r.history(req)
	} else {
		chatReq.Prompt = req.Prompt
	}

	stream, err := r.gen.StreamChat(ctx, chatReq)
	if err != nil {
		return model.Message{}, r.fail(ctx, thread, req, err)
	}
	defer stream.Close()
	r.replyStarted(req.submit)

	acc := NewAccumulator(r.metadata(thread), r.throttle, r.sinkFor(thread.ID))

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Partial content stays visible.
			msg := acc.Finalize()
			return msg, r.fail(ctx, thread, req, &api.StreamError{Partial: msg.Content, Err: err})
		}
		acc.Write(chunk)
	}

	msg := acc.Finalize()
	r.log.WithFields(logrus.Fields{
		"thread":  thread.ID,
		"message": msg.ID,
		"bytes":   len(msg.Content),
	}).Debug("stream complete")

	r.complete()
	if req.OnTextComplete != nil {
		req.OnTextComplete(msg.Content)
	}
	if thread.Settings.IsTextToSpeechEnabled && r.speaker != nil {
		go r.speak(msg.Content, cfg.Language)
	}
	return msg, nil
}

// history is the role/content transcript sent in context-aware mode.
// Image messages are skipped since their content is a data URL.
func (r *Responder) history(req Request) []api.ChatMessage {
	msgs := r.state.Messages()
	out := make([]api.ChatMessage, 0, len(msgs)+1)
	for _, m := range msgs {
		if m.ID == req.userMessageID || m.IsImage() {
			continue
		}
		out = append(out, api.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return append(out, api.ChatMessage{Role: string(model.RoleUser), Content: req.Prompt})
}

func (r *Responder) speak(content, lang string) {
	if err := r.speaker.Speak(context.Background(), content, lang); err != nil {
		r.log.WithError(err).Warn("text to speech failed")
	}
}

// =============================================================================
// IMAGE
// =============================================================================

func (r *Responder) respondImage(ctx context.Context, thread model.Thread, req Request) (model.Message, error) {
	cfg := r.state.Config()
	id := model.NewID()

	res, err := r.gen.GenerateImage(ctx, api.ImageRequest{
		Prompt:  req.Prompt,
		Model:   thread.Settings.Model,
		Quality: cfg.Quality,
		Style:   cfg.Style,
		Size:    cfg.ImageSize,
	})
	if err != nil {
		return model.Message{}, r.fail(ctx, thread, req, err)
	}
	r.replyStarted(req.submit)

	msg := model.NewImageMessage(id, res.DataURL(), res.RevisedPrompt, cfg.ImageSize, r.metadata(thread))
	r.sinkFor(thread.ID)(msg)

	r.complete()
	if req.OnImageComplete != nil {
		req.OnImageComplete()
	}
	return msg, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Responder) metadata(thread model.Thread) model.MessageMetadata {
	return model.MessageMetadata{
		Model:     thread.Settings.Model,
		Variation: thread.Settings.Variation,
		Timestamp: time.Now().UnixMilli(),
	}
}

// sinkFor upserts into state only while threadID is still active.
func (r *Responder) sinkFor(threadID string) func(model.Message) {
	return func(msg model.Message) {
		if r.state.ThreadID() != threadID {
			r.log.WithField("thread", threadID).Debug("dropping update for inactive thread")
			return
		}
		r.state.Upsert(msg)
	}
}

// replyStarted lowers the loading flag raised by Submit call seq, unless a
// later Submit has raised it again since.
func (r *Responder) replyStarted(seq uint64) {
	if seq != 0 && r.submits.Load() == seq {
		r.state.SetLoading(false)
	}
}

func (r *Responder) setStatus(threadID string, status model.Status) {
	_ = r.state.UpdateThread(func(t *model.Thread) {
		if t.ID == threadID {
			t.Metadata.Status = status
		}
	})
}

func (r *Responder) complete() {
	r.feedback.Vibrate(vibrateDuration)
	r.feedback.Play()
}

// fail reports err and records the prompt in the thread's failed queue.
// Cancellation is not an error from the user's point of view.
func (r *Responder) fail(ctx context.Context, thread model.Thread, req Request, err error) error {
	if ctx.Err() != nil {
		r.log.WithField("thread", thread.ID).Debug("response cancelled")
		return ctx.Err()
	}

	text := api.UserMessage(err)
	if text == "" {
		text = api.MsgGeneric
	}
	r.notify.Error(text)
	r.log.WithError(err).WithField("thread", thread.ID).Error("response failed")

	prompt, ok := r.state.Message(req.userMessageID)
	if !ok {
		prompt = model.NewUserMessage(req.Prompt, thread.Settings.Model)
	}
	_ = r.state.UpdateThread(func(t *model.Thread) {
		if t.ID == thread.ID {
			t.RecordFailure(prompt, err)
		}
	})
	return err
}
