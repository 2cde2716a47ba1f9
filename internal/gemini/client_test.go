// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/model"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
}

func chunkLine(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}` + "\n"
}

func TestGenerateReturnsText(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from the model"}]}}]}`))
	}))

	text, err := client.Generate(context.Background(), "", BuildContents("", nil))
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", text)
}

func TestGenerateMalformedSuccessBodyFallsBackToPlaceholder(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{{{not json`))
	}))

	text, err := client.Generate(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyResponseText, text)
}

func TestGenerateEmptyCandidatesFallsBackToPlaceholder(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))

	text, err := client.Generate(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyResponseText, text)
}

func TestGenerateSurfacesAPIErrorMessage(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))

	_, err := client.Generate(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:0"})

	_, err := client.Generate(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateStreamAccumulatesChunks(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		w.Write([]byte(chunkLine("Hello") + chunkLine(", ") + chunkLine("world")))
	}))

	var deltas []string
	text, err := client.GenerateStream(context.Background(), "", nil, func(chunk StreamChunk) {
		if chunk.Content != "" {
			deltas = append(deltas, chunk.Content)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", text)
	assert.Equal(t, []string{"Hello", ", ", "world"}, deltas)
}

func TestGenerateStreamSkipsMalformedLines(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chunkLine("good") + "garbage line\n" + chunkLine(" data")))
	}))

	text, err := client.GenerateStream(context.Background(), "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "good data", text)
}

func TestGenerateStreamEmptyBodyReturnsEmptyStream(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with no chunks
	}))

	_, err := client.GenerateStream(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyStream)
}

func TestSendTurnFallsBackWhenStreamingFails(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"fallback reply"}]}}]}`))
	}))

	text, err := client.SendTurn(context.Background(), "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback reply", text)
}

func TestSendTurnFallsBackOnEmptyStream(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			return // 200 with no content
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`))
	}))

	text, err := client.SendTurn(context.Background(), "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
}

func TestSendTurnSurfacesStreamErrorWhenFallbackAlsoFails(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.SendTurn(context.Background(), "", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream request failed")
}

func TestSendTurnCancellationIsNotRetried(t *testing.T) {
	fallbackCalled := false
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			// Drain the body so the server can detect the client
			// disconnect and cancel the request context
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
			return
		}
		fallbackCalled = true
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.SendTurn(ctx, "", nil, nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, IsCancelled(err))
	assert.False(t, fallbackCalled, "cancellation must not trigger the non-streaming fallback")
}

// shortTimeoutClient serves handler with a tight turn budget so stalled
// transports can be exercised without slowing the suite down.
func shortTimeoutClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           200 * time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
}

func TestGenerateStreamStalledServerTimesOut(t *testing.T) {
	client := shortTimeoutClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the stream open without ever writing a chunk; drain the
		// body so the disconnect can cancel the request context
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))

	start := time.Now()
	_, err := client.GenerateStream(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second,
		"a stalled stream must unblock within the configured budget")
}

func TestSendTurnStalledStreamFallsBackToUnary(t *testing.T) {
	client := shortTimeoutClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			w.WriteHeader(http.StatusOK)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"unary rescue"}]}}]}`))
	}))

	text, err := client.SendTurn(context.Background(), "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "unary rescue", text)
}

func TestSendTurnNotConfiguredIsNotRetried(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:0"})

	_, err := client.SendTurn(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStreamReaderCountsDroppedLines(t *testing.T) {
	input := chunkLine("a") + "not json\n" + "also not json\n" + chunkLine("b")
	reader := NewStreamReader(strings.NewReader(input))

	err := reader.Process(context.Background(), func(StreamChunk) {})
	require.NoError(t, err)
	assert.Equal(t, "ab", reader.Accumulated())
	assert.Equal(t, 2, reader.Dropped())
	assert.Equal(t, 2, reader.ChunkCount())
}

func TestStreamReaderHandlesUnterminatedFinalLine(t *testing.T) {
	input := chunkLine("first") + strings.TrimSuffix(chunkLine("last"), "\n")
	reader := NewStreamReader(strings.NewReader(input))

	err := reader.Process(context.Background(), func(StreamChunk) {})
	require.NoError(t, err)
	assert.Equal(t, "firstlast", reader.Accumulated())
}

func TestStreamReaderDeliversFinalChunkBeforeDone(t *testing.T) {
	input := chunkLine("first") + strings.TrimSuffix(chunkLine("last"), "\n")
	reader := NewStreamReader(strings.NewReader(input))

	var deltas []string
	doneAfterLast := false
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Done {
			doneAfterLast = len(deltas) == 2
			return
		}
		deltas = append(deltas, chunk.Content)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "last"}, deltas,
		"live consumers must see the final unterminated fragment")
	assert.True(t, doneAfterLast, "completion must follow the final content chunk")
}

func TestBuildContentsRolesAndSystemPrompt(t *testing.T) {
	transcript := []model.TranscriptEntry{
		{Role: model.RoleUser, Content: "what is Go?"},
		{Role: model.RoleAssistant, Content: "A programming language."},
		{Role: model.RoleUser, Content: "who made it?"},
	}

	contents := BuildContents(DefaultSystemPrompt, transcript)
	require.Len(t, contents, 5)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, DefaultSystemPrompt, contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)

	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "what is Go?", contents[2].Parts[0].Text)
	assert.Equal(t, "model", contents[3].Role)
	assert.Equal(t, "user", contents[4].Role)
}

func TestBuildContentsWithoutSystemPrompt(t *testing.T) {
	contents := BuildContents("", []model.TranscriptEntry{
		{Role: model.RoleUser, Content: "hi"},
	})
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
}

func TestClientConfigDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{APIKey: "k"})

	cfg := client.Config()
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.DefaultModel)
}
