// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat state persistence for gemchat.
package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/gemchat/internal/util"
)

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates a file backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (b *FileBackend) Get(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set stores value under key.
func (b *FileBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// RELIABILITY: Atomic write with fsync prevents data loss on crash.
	// Stored state may carry an API key, so files are owner-only.
	return util.AtomicWriteFile(b.path(key), value, 0600)
}

// Delete removes key. Deleting a missing key is not an error.
func (b *FileBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error {
	return nil
}

// path returns the file path for a key.
func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}
