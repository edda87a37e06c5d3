// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/chat"
)

func plainColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestConsole(t *testing.T) {
	plainColor(t)
	var buf bytes.Buffer

	c := NewConsole(&buf, false)
	c.Error("Rate limit exceeded. Please try again later.")
	c.Info("Thread deleted")

	assert.Equal(t, "[X] Rate limit exceeded. Please try again later.\n[i] Thread deleted\n", buf.String())
}

func TestConsole_QuietSuppressesInfo(t *testing.T) {
	plainColor(t)
	var buf bytes.Buffer

	c := NewConsole(&buf, true)
	c.Info("hidden")
	c.Error("shown")

	assert.Equal(t, "[X] shown\n", buf.String())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTerminal_Feedback(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, true, true)

	term.Play()
	term.Vibrate(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		return out.String() == bell+reverseOn+reverseOff
	}, time.Second, 5*time.Millisecond)
}

func TestTerminal_Disabled(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, false, false)

	term.Play()
	term.Vibrate(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, out.String())
}

func TestCommandSpeaker(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	s := NewCommandSpeaker("cat")
	require.NoError(t, s.Speak(context.Background(), "hello", "en-IN"))
}

func TestCommandSpeaker_Failure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	err := NewCommandSpeaker("false {lang}").Speak(context.Background(), "hello", "hi-IN")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "false:"))
}

func TestCommandSpeaker_Unconfigured(t *testing.T) {
	err := NewCommandSpeaker("  ").Speak(context.Background(), "hello", "en-US")
	assert.ErrorIs(t, err, ErrNoSpeechCommand)
}

// =============================================================================
// VOICE INPUT
// =============================================================================

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommandRecognizer_Transcript(t *testing.T) {
	requireTool(t, "echo")

	got, err := NewCommandRecognizer("echo  what is go ").Listen(context.Background(), "en-IN")
	require.NoError(t, err)
	assert.Equal(t, "what is go", got)

	got, err = NewCommandRecognizer("echo {lang}").Listen(context.Background(), "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestCommandRecognizer_NoSpeech(t *testing.T) {
	requireTool(t, "true")

	_, err := NewCommandRecognizer("true").Listen(context.Background(), "en-US")
	assert.ErrorIs(t, err, chat.ErrNoSpeech)
}

func TestCommandRecognizer_Failure(t *testing.T) {
	requireTool(t, "false")

	_, err := NewCommandRecognizer("false").Listen(context.Background(), "en-US")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "false:"))
}

func TestCommandRecognizer_Unconfigured(t *testing.T) {
	r := NewCommandRecognizer("")
	_, err := r.Listen(context.Background(), "en-US")
	assert.ErrorIs(t, err, ErrNoListenCommand)
	r.Stop() // no session: no-op
}

func TestCommandRecognizer_Stop(t *testing.T) {
	requireTool(t, "sleep")

	r := NewCommandRecognizer("sleep 10")
	done := make(chan error, 1)
	go func() {
		_, err := r.Listen(context.Background(), "en-US")
		done <- err
	}()
	require.Eventually(t, r.Listening, time.Second, 5*time.Millisecond)

	_, err := r.Listen(context.Background(), "en-US")
	assert.ErrorIs(t, err, ErrAlreadyListening)

	r.Stop()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, chat.ErrListenStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not end the session")
	}
	assert.False(t, r.Listening())
}
