// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// STREAMING BUFFER TESTS
// =============================================================================

func TestStreamingBufferWrite(t *testing.T) {
	b := NewStreamingBuffer()

	b.Write("Hello")
	b.Write(" ")
	b.Write("world")

	if pending := b.Pending(); pending != 3 {
		t.Errorf("Pending() = %d, want 3", pending)
	}
}

func TestStreamingBufferFlushBySize(t *testing.T) {
	b := NewStreamingBufferWithConfig(3, time.Hour)

	b.Write("a")
	b.Write("b")
	if _, ok := b.Flush(); ok {
		t.Error("Flush released content below the batch size")
	}

	b.Write("c")
	content, ok := b.Flush()
	if !ok {
		t.Fatal("Flush did not release content at the batch size")
	}
	if content != "abc" {
		t.Errorf("Flush returned %q, want %q", content, "abc")
	}
	if pending := b.Pending(); pending != 0 {
		t.Errorf("Pending() after flush = %d, want 0", pending)
	}
}

func TestStreamingBufferFlushByTime(t *testing.T) {
	b := NewStreamingBufferWithConfig(1000, 5*time.Millisecond)

	b.Write("slow stream")
	if _, ok := b.Flush(); ok {
		t.Error("Flush released content before the interval elapsed")
	}

	time.Sleep(10 * time.Millisecond)

	content, ok := b.Flush()
	if !ok {
		t.Fatal("Flush did not release content after the interval")
	}
	if content != "slow stream" {
		t.Errorf("Flush returned %q, want %q", content, "slow stream")
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	b := NewStreamingBufferWithConfig(1000, time.Hour)

	b.Write("tail")
	content, ok := b.ForceFlush()
	if !ok {
		t.Fatal("ForceFlush did not release buffered content")
	}
	if content != "tail" {
		t.Errorf("ForceFlush returned %q, want %q", content, "tail")
	}

	if _, ok := b.ForceFlush(); ok {
		t.Error("ForceFlush released content from an empty buffer")
	}
}

func TestStreamingBufferReset(t *testing.T) {
	b := NewStreamingBuffer()

	b.Write("discard me")
	b.Reset()

	if pending := b.Pending(); pending != 0 {
		t.Errorf("Pending() after reset = %d, want 0", pending)
	}
	if _, ok := b.ForceFlush(); ok {
		t.Error("content survived a reset")
	}
}

func TestStreamingBufferUnicode(t *testing.T) {
	b := NewStreamingBufferWithConfig(2, time.Hour)

	b.Write("héllo ")
	b.Write("wörld 日本語")

	content, ok := b.Flush()
	if !ok {
		t.Fatal("Flush did not release content")
	}
	if content != "héllo wörld 日本語" {
		t.Errorf("Flush returned %q", content)
	}
}

func TestStreamingBufferConcurrency(t *testing.T) {
	b := NewStreamingBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Write("x")
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				b.Flush()
			}
		}
	}()

	wg.Wait()
	close(done)

	content, _ := b.ForceFlush()
	// Whatever was not drained by the concurrent flusher is still intact
	if strings.ContainsAny(content, "abcdefg") {
		t.Errorf("buffer corrupted: %q", content)
	}
}

func TestStreamingBufferConfigFallbacks(t *testing.T) {
	b := NewStreamingBufferWithConfig(0, 0)

	if b.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want %d", b.batchSize, defaultBatchSize)
	}
	if b.flushInterval != defaultFlushInterval {
		t.Errorf("flushInterval = %v, want %v", b.flushInterval, defaultFlushInterval)
	}
}

// =============================================================================
// RENDER CACHE TESTS
// =============================================================================

func TestRenderCacheChanged(t *testing.T) {
	c := &renderCache{}

	if !c.Changed("first render") {
		t.Error("first render reported as unchanged")
	}
	if c.Changed("first render") {
		t.Error("identical content reported as changed")
	}
	if !c.Changed("second render") {
		t.Error("new content reported as unchanged")
	}
}

func TestRenderCacheInvalidate(t *testing.T) {
	c := &renderCache{}

	c.Changed("content")
	c.Invalidate()

	if !c.Changed("content") {
		t.Error("Changed returned false after Invalidate")
	}
}

func TestRenderCacheConcurrency(t *testing.T) {
	c := &renderCache{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Changed(strings.Repeat("x", n))
			c.Invalidate()
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// INTEGRATION
// =============================================================================

// Simulates a stream: many small deltas in, a bounded number of renders out.
func TestStreamingBufferBatchesRenders(t *testing.T) {
	b := NewStreamingBufferWithConfig(15, time.Hour)

	flushes := 0
	var rendered strings.Builder
	for i := 0; i < 100; i++ {
		b.Write("token ")
		if content, ok := b.Flush(); ok {
			flushes++
			rendered.WriteString(content)
		}
	}
	if content, ok := b.ForceFlush(); ok {
		rendered.WriteString(content)
	}

	if flushes > 100/15+1 {
		t.Errorf("flushed %d times for 100 deltas, batching not effective", flushes)
	}
	if got := rendered.String(); got != strings.Repeat("token ", 100) {
		t.Errorf("rendered content lost deltas: %d bytes", len(got))
	}
}
