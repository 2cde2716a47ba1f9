// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: a single chat message with role, content, and turn state
//   - Conversation: an ordered message history with title metadata
//   - Role: the sender of a message (user, assistant, system, error)
//
// # Invariants
//
// A Conversation's message list is never empty: a cleared conversation is
// reset to a single synthetic welcome message from the assistant. The title
// starts as the sentinel ("New chat") and is auto-derived exactly once when
// the conversation reaches its third message.
//
// The package is a leaf: it performs no I/O and has no knowledge of the
// reducer, the network client, or the front ends.
package model
