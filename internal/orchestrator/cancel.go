// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL MANAGER
// =============================================================================

// cancelManager tracks the in-flight request per conversation so a turn can
// be aborted from another goroutine (Ctrl+C, a UI stop button).
type cancelManager struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{
		cancels: make(map[string]context.CancelFunc),
	}
}

// Register derives a cancellable context for a conversation's turn. Any
// previous in-flight turn for the same conversation is cancelled first.
func (m *cancelManager) Register(ctx context.Context, conversationID string) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[conversationID]; ok {
		cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancels[conversationID] = cancel
	return ctx
}

// Cancel aborts the in-flight turn for a conversation, if any.
// Returns whether a turn was actually cancelled.
func (m *cancelManager) Cancel(conversationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.cancels[conversationID]
	if !ok {
		return false
	}
	cancel()
	delete(m.cancels, conversationID)
	return true
}

// Release forgets a completed turn without cancelling it.
func (m *cancelManager) Release(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[conversationID]; ok {
		cancel()
		delete(m.cancels, conversationID)
	}
}

// CancelAll aborts every in-flight turn.
func (m *cancelManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
}
