// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
)

// FailFunc decides whether an operation should fail. Returning a non-nil
// error makes the operation fail with it.
type FailFunc func(op, collection string) error

// MemoryStore is an in-process Store. Values are copied on the way in and
// out so callers cannot alias stored bytes.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	fail   FailFunc
	writes map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// SetFailFunc installs a failure hook. Pass nil to clear it.
func (m *MemoryStore) SetFailFunc(fn FailFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// Writes returns how many successful Set calls collection has seen.
func (m *MemoryStore) Writes(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[collection]
}

func (m *MemoryStore) check(op, collection string) error {
	if m.fail == nil {
		return nil
	}
	return opError(op, collection, m.fail(op, collection))
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, collection string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("get", collection, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check("get", collection); err != nil {
		return nil, err
	}
	v, ok := m.data[collection]
	if !ok {
		return nil, opError("get", collection, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Set implements Store.
func (m *MemoryStore) Set(ctx context.Context, collection string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return opError("set", collection, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("set", collection); err != nil {
		return err
	}
	m.data[collection] = append([]byte(nil), value...)
	m.writes[collection]++
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return opError("delete", collection, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("delete", collection); err != nil {
		return err
	}
	delete(m.data, collection)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}
