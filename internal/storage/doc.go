// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat state persistence for gemchat.
//
// Persistence is split into two layers. Backend is a small key/value
// interface with two implementations: FileBackend (one JSON file per key,
// written atomically) and SQLiteBackend (a single database file). ChatStore
// sits on top and persists the conversation set and user settings as JSON
// blobs under fixed keys.
//
// # Key Types
//
//   - Backend: key/value persistence interface
//   - FileBackend, SQLiteBackend: the two backend implementations
//   - ChatStore: conversation and settings persistence over a Backend
//   - StoredConversation, StoredMessage: serialized forms
//
// # Usage
//
// Open a backend and build a store:
//
//	backend, err := storage.NewFileBackend(dir)
//	store := storage.NewChatStore(backend)
//
// Save and restore conversations:
//
//	err := store.SaveConversations(conversations, currentID)
//	conversations, currentID, err := store.LoadConversations()
//
// Concurrent writers are detected through a version counter in the stored
// state; a conflicting save fails with ErrStaleState instead of clobbering
// the other writer.
package storage
