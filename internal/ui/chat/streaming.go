// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// streaming.go - Streaming optimization for smooth, flicker-free
// rendering while a Gemini reply streams in. Deltas are buffered and
// rendered in batches at a capped frame rate instead of once per chunk.
package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer accumulates streamed deltas and releases them in batches.
// A flush happens when either threshold is crossed:
//  1. The batch size is reached (enough deltas accumulated)
//  2. The flush interval has elapsed since the last flush
//
// Without batching the viewport would re-render once per network chunk,
// which flickers and burns CPU on fast streams. With it, rendering stays
// at or below the configured frame rate.
//
// Thread-safety: deltas arrive on the turn goroutine while flushes happen
// on the Bubble Tea loop, so every operation takes the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buf        strings.Builder
	chunkCount int
	lastFlush  time.Time

	batchSize     int
	flushInterval time.Duration
}

// Default batching: 15 chunks per batch, 30 renders per second.
const (
	defaultBatchSize     = 15
	defaultFlushInterval = 33 * time.Millisecond
)

// NewStreamingBuffer creates a buffer with the default batching settings.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultFlushInterval)
}

// NewStreamingBufferWithConfig creates a buffer with custom batching.
// Non-positive values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize int, flushInterval time.Duration) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return &StreamingBuffer{
		batchSize:     batchSize,
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
	}
}

// Write appends a streamed delta to the buffer.
func (b *StreamingBuffer) Write(delta string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.WriteString(delta)
	b.chunkCount++
}

// Flush returns the accumulated content when a flush threshold has been
// crossed. The second return reports whether anything was released.
func (b *StreamingBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() == 0 || !b.dueLocked() {
		return "", false
	}
	return b.takeLocked(), true
}

// ForceFlush returns all buffered content regardless of thresholds.
// Called when a stream completes so no trailing deltas are lost.
func (b *StreamingBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() == 0 {
		return "", false
	}
	return b.takeLocked(), true
}

// Reset discards buffered content. Used on cancellation and turn start.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Reset()
	b.chunkCount = 0
	b.lastFlush = time.Now()
}

// Pending returns the number of buffered chunks awaiting a flush.
func (b *StreamingBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chunkCount
}

// dueLocked reports whether a flush threshold has been crossed.
// Caller must hold the mutex.
func (b *StreamingBuffer) dueLocked() bool {
	if b.chunkCount >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush) >= b.flushInterval
}

// takeLocked drains the buffer and stamps the flush time.
// Caller must hold the mutex.
func (b *StreamingBuffer) takeLocked() string {
	content := b.buf.String()
	b.buf.Reset()
	b.chunkCount = 0
	b.lastFlush = time.Now()
	return content
}

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache skips redundant viewport updates by hashing the rendered
// transcript. During streaming many ticks produce identical content; a
// hash comparison is cheaper than re-flowing the viewport.
type renderCache struct {
	mu       sync.Mutex
	lastHash string
}

// Changed reports whether content differs from the last render, and
// records it as the new baseline when it does.
func (c *renderCache) Changed(content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])
	if hash == c.lastHash {
		return false
	}
	c.lastHash = hash
	return true
}

// Invalidate forces the next Changed call to report a change.
// Used after resizes, which alter layout without altering content.
func (c *renderCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastHash = ""
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next StreamTickMsg at the streaming frame
// rate. The tick handler re-arms it while a turn is in flight.
func streamTickCmd() tea.Cmd {
	return tea.Tick(defaultFlushInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
