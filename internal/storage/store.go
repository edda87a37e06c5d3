// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collection names.
const (
	CollectionThreads  = "threads"
	CollectionMessages = "messages"
	CollectionConfig   = "config"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a key/value store keyed by collection name. Every method may
// block on I/O and may fail.
type Store interface {
	// Get returns the value stored under collection, or ErrNotFound.
	Get(ctx context.Context, collection string) ([]byte, error)

	// Set replaces the value stored under collection.
	Set(ctx context.Context, collection string, value []byte) error

	// Delete removes collection. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection string) error

	// Close releases the store.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound means the collection has never been written.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the backing store cannot be reached or is closed.
	ErrUnavailable = errors.New("store unavailable")

	// ErrQuotaExceeded means the store refused a write because it is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// StoreError records a failed operation on a collection.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Collection, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func opError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}
