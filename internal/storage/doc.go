// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the persistent key/value adapter for polychat.
//
// A Store maps a collection name to one opaque serialized value. There are
// three collections: "threads" (ordered thread list), "messages" (thread id
// to ordered message list) and "config" (user preferences). Stores offer no
// transactions across collections; callers that issue related writes must
// sequence them and handle partial failure themselves.
//
// # Key Types
//
//   - Store: Get/Set/Delete by collection name
//   - SQLiteStore: pure-Go SQLite implementation (modernc.org/sqlite)
//   - MemoryStore: in-process implementation with failure injection
//   - Collections: typed JSON helpers over a Store
//   - StoreError: operation error carrying the collection name
//
// # Usage
//
//	db, err := storage.OpenSQLite(ctx, "~/.polychat/polychat.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	cols := storage.NewCollections(db)
//	threads, err := cols.LoadThreads(ctx)
//
// # Storage Location
//
// The database lives in ~/.polychat/polychat.db unless configured otherwise.
package storage
