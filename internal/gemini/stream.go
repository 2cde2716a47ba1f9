// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini generateContent API.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
// Malformed lines are skipped and counted rather than failing the stream.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	chunkCount  int
	dropped     int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			// An unterminated final line yields both a chunk and EOF;
			// deliver the chunk before signalling completion
			if chunk != nil {
				callback(*chunk)
			}
			if err != nil {
				if err == io.EOF {
					callback(StreamChunk{Done: true})
					return nil
				}
				return err
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
		if len(line) == 0 {
			return nil, err
		}
		// Process the final unterminated line before reporting EOF
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var response GenerateResponse
	if jsonErr := json.Unmarshal(line, &response); jsonErr != nil {
		// Skip malformed lines, but keep count so callers can surface
		// degraded streams
		s.dropped++
		return nil, err
	}

	text := response.Text()
	if text != "" {
		s.accumulator.WriteString(text)
		s.chunkCount++
	}

	chunk := &StreamChunk{Content: text}
	if len(response.Candidates) > 0 {
		chunk.FinishReason = response.Candidates[0].FinishReason
	}
	return chunk, err
}

// Accumulated returns all accumulated content.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// ChunkCount returns the number of content-bearing chunks received.
func (s *StreamReader) ChunkCount() int {
	return s.chunkCount
}

// Dropped returns the number of malformed lines skipped.
func (s *StreamReader) Dropped() int {
	return s.dropped
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming chunks into a full response.
type StreamAccumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content      strings.Builder
	FinishReason string
	Done         bool
	Err          error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Add processes a new chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Error != nil {
		a.Err = chunk.Error
		a.Done = true
		return
	}

	a.content.WriteString(chunk.Content)
	if chunk.FinishReason != "" {
		a.FinishReason = chunk.FinishReason
	}
	if chunk.Done {
		a.Done = true
	}
}

// Content returns the accumulated content.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// IsDone returns whether streaming is complete.
func (a *StreamAccumulator) IsDone() bool {
	return a.Done
}

// Error returns any error that occurred.
func (a *StreamAccumulator) Error() error {
	return a.Err
}
