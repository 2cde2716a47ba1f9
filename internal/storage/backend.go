// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat state persistence for gemchat.
package storage

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a small key-value store for opaque JSON blobs. Implementations
// must be safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// StorageError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = &StorageError{Message: "key not found"}

// ErrStaleState is returned when a save would overwrite changes written by
// another process since this store last read the state.
var ErrStaleState = &StorageError{Message: "stored state changed since last load"}

// ErrConversationNotFound is returned when a conversation doesn't exist.
var ErrConversationNotFound = &StorageError{Message: "conversation not found"}
