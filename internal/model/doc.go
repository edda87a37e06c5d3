// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads, messages, user
// preferences and the model catalog.
//
// The JSON shape of every type here is the persisted shape: field names
// match what is stored under the "threads", "messages" and "config"
// collections, and timestamps are Unix milliseconds.
//
// # Key Types
//
//   - Thread: one conversation with its settings, metadata and retry queue
//   - Message: a single text or image_url message, identified by a UUID
//   - Config: user preferences (language, image size, quality, style)
//   - ModelInfo: catalog entry with an explicit Capability (TextModel | ImageModel)
//   - Variation: a persona preset applied by the backend to text generation
//
// # Usage
//
// Create the default thread and a user message:
//
//	thread := model.DefaultThread()
//	msg := model.NewUserMessage("Hello", thread.Settings.Model)
//
// Resolve a model's capability once, then branch on it:
//
//	info, err := model.Lookup(thread.Settings.Model)
//	if err != nil {
//	    return err
//	}
//	if info.Capability == model.ImageModel {
//	    // single request/response
//	}
package model
