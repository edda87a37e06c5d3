// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides application configuration loading for polychat.
//
// Supports TOML, YAML and JSON configuration files, with sensible defaults,
// environment variable overrides, validation and hot reload.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - APIConfig: Backend endpoint and credentials
//   - StorageConfig: Database location and persistence debounce
//   - ChatConfig: Streaming throttle and new-thread defaults
//   - Watcher: fsnotify-based reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (POLYCHAT_*)
//   - ~/.polychat/config.toml
//   - ~/.polychat/config.yaml
//   - ~/.polychat/config.json
//   - Built-in defaults
//
// User preferences such as language and image size are not part of this
// file; they live in the store's config collection (see model.Config).
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := api.NewClient(api.Options{
//	    BaseURL: cfg.API.BaseURL,
//	    Timeout: cfg.API.Timeout(),
//	})
package config
