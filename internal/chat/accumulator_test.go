// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (s *recordingSink) push(m model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
}

func (s *recordingSink) all() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.msgs...)
}

func TestAccumulator_FirstChunkImmediateThenThrottled(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{Model: "gpt-4o", Timestamp: 42}, time.Hour, sink.push)

	acc.Write("Hi")
	acc.Write(" there")
	acc.Write("!")

	pushed := sink.all()
	require.Len(t, pushed, 1)
	assert.Equal(t, "Hi", pushed[0].Content)

	final := acc.Finalize()
	assert.Equal(t, "Hi there!", final.Content)

	pushed = sink.all()
	require.Len(t, pushed, 2)
	assert.Equal(t, "Hi there!", pushed[1].Content)
	for _, m := range pushed {
		assert.Equal(t, acc.ID(), m.ID)
		assert.Equal(t, int64(42), m.Metadata.Timestamp)
		assert.Equal(t, model.RoleAssistant, m.Role)
		assert.Equal(t, model.TypeText, m.Type)
	}
}

func TestAccumulator_FinalizeIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{}, time.Hour, sink.push)

	acc.Write("done")
	first := acc.Finalize()
	second := acc.Finalize()
	acc.Write(" ignored")

	assert.Equal(t, first, second)
	assert.Equal(t, "done", acc.Content())
	assert.Len(t, sink.all(), 2)
}

func TestAccumulator_TrailingPush(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{}, 20*time.Millisecond, sink.push)

	acc.Write("a")
	acc.Write("b")

	require.Eventually(t, func() bool {
		pushed := sink.all()
		return len(pushed) == 2 && pushed[1].Content == "ab"
	}, time.Second, 5*time.Millisecond)

	acc.Finalize()
	assert.Len(t, sink.all(), 3)
}

func TestAccumulator_FinalizeCancelsTrailingPush(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{}, 30*time.Millisecond, sink.push)

	acc.Write("a")
	acc.Write("b")
	acc.Finalize()

	time.Sleep(60 * time.Millisecond)
	pushed := sink.all()
	require.Len(t, pushed, 2)
	assert.Equal(t, "ab", pushed[1].Content)
}

func TestAccumulator_ZeroWindowPushesEveryChunk(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{}, 0, sink.push)

	for _, c := range []string{"a", "b", "c"} {
		acc.Write(c)
	}

	pushed := sink.all()
	require.Len(t, pushed, 3)
	assert.Equal(t, "abc", pushed[2].Content)
}

func TestAccumulator_ContentIsMonotonic(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(model.MessageMetadata{}, 0, sink.push)

	for _, c := range []string{"The", " quick", " brown", " fox"} {
		acc.Write(c)
	}
	acc.Finalize()

	prev := ""
	for _, m := range sink.all() {
		assert.True(t, len(m.Content) >= len(prev))
		assert.Equal(t, prev, m.Content[:len(prev)])
		prev = m.Content
	}
	assert.Equal(t, "The quick brown fox", prev)
}
