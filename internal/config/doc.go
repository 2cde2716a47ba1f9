// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for gemchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Gemini API endpoint, key, and model
//   - GenerationConfig: Sampling parameters sent with each request
//   - StorageConfig: Persistence backend selection
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GEMINI_API_KEY, GEMCHAT_*)
//   - ~/.gemchat/config.toml
//   - ~/.gemchat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.API.Model
//	key := cfg.API.Key
//
// A Watcher can reload the config when the file changes on disk:
//
//	w, _ := config.NewWatcher(func(cfg *config.Config) {
//	    // react to updated settings
//	})
//	defer w.Close()
package config
