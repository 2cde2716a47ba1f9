// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the gemchat application.
//
// It contains the atomic file writer used by configuration and conversation
// persistence, plus rune-aware string helpers used by the front ends.
package util
