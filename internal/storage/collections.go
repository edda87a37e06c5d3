// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abdulsamad/polychat/internal/model"
)

// MessageMap is the persisted shape of the "messages" collection.
type MessageMap map[string][]model.Message

// Collections reads and writes the typed collections over a Store. A
// missing collection decodes to its empty value.
type Collections struct {
	store Store
}

// NewCollections wraps store.
func NewCollections(store Store) *Collections {
	return &Collections{store: store}
}

// Store returns the underlying Store.
func (c *Collections) Store() Store {
	return c.store
}

// =============================================================================
// THREADS
// =============================================================================

// LoadThreads returns the persisted thread list, most recent first.
func (c *Collections) LoadThreads(ctx context.Context) ([]model.Thread, error) {
	var threads []model.Thread
	if err := c.load(ctx, CollectionThreads, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// SaveThreads replaces the persisted thread list.
func (c *Collections) SaveThreads(ctx context.Context, threads []model.Thread) error {
	if threads == nil {
		threads = []model.Thread{}
	}
	return c.save(ctx, CollectionThreads, threads)
}

// FindThread returns the persisted thread with id.
func (c *Collections) FindThread(ctx context.Context, id string) (model.Thread, error) {
	threads, err := c.LoadThreads(ctx)
	if err != nil {
		return model.Thread{}, err
	}
	for _, t := range threads {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Thread{}, opError("find", CollectionThreads, fmt.Errorf("%w: thread %s", ErrNotFound, id))
}

// =============================================================================
// MESSAGES
// =============================================================================

// LoadMessages returns the full thread-id to messages mapping.
func (c *Collections) LoadMessages(ctx context.Context) (MessageMap, error) {
	msgs := MessageMap{}
	if err := c.load(ctx, CollectionMessages, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = MessageMap{}
	}
	return msgs, nil
}

// SaveMessages replaces the full mapping.
func (c *Collections) SaveMessages(ctx context.Context, msgs MessageMap) error {
	if msgs == nil {
		msgs = MessageMap{}
	}
	return c.save(ctx, CollectionMessages, msgs)
}

// ThreadMessages returns the messages persisted for one thread. A thread
// with no entry has no messages.
func (c *Collections) ThreadMessages(ctx context.Context, threadID string) ([]model.Message, error) {
	all, err := c.LoadMessages(ctx)
	if err != nil {
		return nil, err
	}
	return all[threadID], nil
}

// =============================================================================
// CONFIG
// =============================================================================

// LoadConfig returns the persisted preferences, or model.DefaultConfig when
// none were saved. Fields missing from the stored value keep their defaults.
func (c *Collections) LoadConfig(ctx context.Context) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := c.load(ctx, CollectionConfig, &cfg); err != nil {
		return model.DefaultConfig(), err
	}
	return cfg, nil
}

// SaveConfig persists preferences.
func (c *Collections) SaveConfig(ctx context.Context, cfg model.Config) error {
	return c.save(ctx, CollectionConfig, cfg)
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Collections) load(ctx context.Context, collection string, v any) error {
	data, err := c.store.Get(ctx, collection)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return opError("decode", collection, err)
	}
	return nil
}

func (c *Collections) save(ctx context.Context, collection string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return opError("encode", collection, err)
	}
	return c.store.Set(ctx, collection, data)
}

// Encode serializes v the way Collections persists it.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
