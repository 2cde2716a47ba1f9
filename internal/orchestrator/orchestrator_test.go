// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/storage"
	"github.com/jeranaias/gemchat/internal/store"
)

// fakeSender is a scriptable TurnSender.
type fakeSender struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	calls   int32
	lastCtx context.Context
}

func (f *fakeSender) SendTurn(ctx context.Context, _ string, contents []gemini.Content, callback gemini.StreamCallback) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.lastCtx = ctx
	reply, err, delay := f.reply, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", gemini.ErrCancelled
		}
	}
	if err != nil {
		return "", err
	}
	if callback != nil {
		callback(gemini.StreamChunk{Content: reply})
		callback(gemini.StreamChunk{Done: true})
	}
	return reply, nil
}

func TestSendMessageSuccess(t *testing.T) {
	sender := &fakeSender{reply: "the answer"}
	orc := New(sender, nil)

	err := orc.SendMessage(context.Background(), "a question", nil)
	require.NoError(t, err)

	state := orc.State()
	msgs := state.Current().Messages
	require.Len(t, msgs, 3) // welcome, user, assistant

	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "a question", msgs[1].Content)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "the answer", msgs[2].Content)
	assert.False(t, msgs[2].IsLoading, "placeholder still loading after reply")
	assert.False(t, msgs[2].IsError)
	assert.False(t, state.IsProcessing, "processing flag not cleared")
}

func TestSendMessageRejectsBlankInput(t *testing.T) {
	sender := &fakeSender{reply: "unused"}
	orc := New(sender, nil)

	for _, input := range []string{"", "   ", "\n\t"} {
		err := orc.SendMessage(context.Background(), input, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&sender.calls))
	assert.Len(t, orc.State().Current().Messages, 1, "blank input must not touch the transcript")
}

func TestSendMessageFailureMarksPlaceholder(t *testing.T) {
	sender := &fakeSender{err: errors.New("upstream exploded")}
	orc := New(sender, nil)

	err := orc.SendMessage(context.Background(), "doomed", nil)
	require.Error(t, err)

	state := orc.State()
	msgs := state.Current().Messages
	require.Len(t, msgs, 3)

	failed := msgs[2]
	assert.True(t, failed.IsError, "failed placeholder not flagged")
	assert.False(t, failed.IsLoading)
	assert.Contains(t, failed.Content, "upstream exploded")
	assert.False(t, state.IsProcessing)
}

func TestSendMessageNotConfiguredUsesFriendlyText(t *testing.T) {
	sender := &fakeSender{err: gemini.ErrNotConfigured}
	orc := New(sender, nil)

	err := orc.SendMessage(context.Background(), "hello", nil)
	require.Error(t, err)

	failed := orc.State().Current().Messages[2]
	assert.Contains(t, failed.Content, "No API key configured")
}

func TestCancelTurnClearsPlaceholderWithoutError(t *testing.T) {
	sender := &fakeSender{reply: "never delivered", delay: 5 * time.Second}
	orc := New(sender, nil)

	done := make(chan error, 1)
	go func() {
		done <- orc.SendMessage(context.Background(), "slow question", nil)
	}()

	// Wait for the turn to be in flight
	require.Eventually(t, func() bool {
		return orc.State().IsProcessing
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, orc.CancelTurn())

	err := <-done
	assert.True(t, gemini.IsCancelled(err))

	state := orc.State()
	msgs := state.Current().Messages
	require.Len(t, msgs, 3)
	cancelled := msgs[2]
	assert.False(t, cancelled.IsLoading)
	assert.False(t, cancelled.IsError, "cancellation must not surface as an error bubble")
	assert.Empty(t, cancelled.Content)
	assert.False(t, state.IsProcessing)
}

func TestCancelTurnWithNothingInFlight(t *testing.T) {
	orc := New(&fakeSender{}, nil)
	assert.False(t, orc.CancelTurn())
}

func TestStreamingDeltasReachCallback(t *testing.T) {
	sender := &fakeSender{reply: "streamed"}
	orc := New(sender, nil)

	var deltas []string
	err := orc.SendMessage(context.Background(), "stream it", func(delta string) {
		deltas = append(deltas, delta)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"streamed"}, deltas)
}

func TestTurnsSerializePerConversation(t *testing.T) {
	sender := &fakeSender{reply: "ok", delay: 20 * time.Millisecond}
	orc := New(sender, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = orc.SendMessage(context.Background(), "ping", nil)
		}()
	}
	wg.Wait()

	// welcome + 3 user/assistant pairs, no interleaved placeholders
	msgs := orc.State().Current().Messages
	require.Len(t, msgs, 7)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, model.RoleUser, msgs[i].Role, "message %d", i)
		assert.Equal(t, model.RoleAssistant, msgs[i+1].Role, "message %d", i+1)
		assert.False(t, msgs[i+1].IsLoading)
	}
}

func TestConversationOperations(t *testing.T) {
	orc := New(&fakeSender{reply: "ok"}, nil)
	first := orc.State().CurrentID

	conv := orc.NewConversation()
	assert.Equal(t, conv.ID, orc.State().CurrentID)

	require.NoError(t, orc.SelectConversation(first))
	assert.Equal(t, first, orc.State().CurrentID)

	require.NoError(t, orc.RenameConversation(first, "renamed"))
	assert.Equal(t, "renamed", orc.State().Current().Title)

	require.NoError(t, orc.DeleteConversation(conv.ID))
	assert.Len(t, orc.State().Conversations, 1)

	assert.ErrorIs(t, orc.SelectConversation("conv_missing"), storage.ErrConversationNotFound)
	assert.ErrorIs(t, orc.RenameConversation("conv_missing", "x"), storage.ErrConversationNotFound)
	assert.ErrorIs(t, orc.DeleteConversation("conv_missing"), storage.ErrConversationNotFound)
	assert.ErrorIs(t, orc.ClearConversation("conv_missing"), storage.ErrConversationNotFound)
}

func TestListenerSeesEveryChange(t *testing.T) {
	orc := New(&fakeSender{reply: "ok"}, nil)

	var notified int32
	orc.Subscribe(func(*store.ChatState) {
		atomic.AddInt32(&notified, 1)
	})

	orc.NewConversation()
	assert.Greater(t, atomic.LoadInt32(&notified), int32(0))
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	backend, err := storage.NewFileBackend(dir)
	require.NoError(t, err)

	orc := New(&fakeSender{reply: "persisted reply"}, storage.NewChatStore(backend))
	require.NoError(t, orc.SendMessage(context.Background(), "remember this", nil))
	currentID := orc.State().CurrentID
	require.NoError(t, orc.Shutdown())

	backend2, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	orc2 := New(&fakeSender{}, storage.NewChatStore(backend2))
	require.NoError(t, orc2.Restore())

	state := orc2.State()
	assert.Equal(t, currentID, state.CurrentID)
	msgs := state.Current().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "remember this", msgs[1].Content)
	assert.Equal(t, "persisted reply", msgs[2].Content)
}

func TestConcurrentWritersConversationsBothSurvive(t *testing.T) {
	dir := t.TempDir()
	backendA, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	backendB, err := storage.NewFileBackend(dir)
	require.NoError(t, err)

	orcA := New(&fakeSender{reply: "reply a"}, storage.NewChatStore(backendA))
	orcB := New(&fakeSender{reply: "reply b"}, storage.NewChatStore(backendB))

	// B writes first; A's save then conflicts and must merge, not clobber
	require.NoError(t, orcB.SendMessage(context.Background(), "hello from b", nil))
	require.NoError(t, orcA.SendMessage(context.Background(), "hello from a", nil))

	backendC, err := storage.NewFileBackend(dir)
	require.NoError(t, err)
	conversations, _, err := storage.NewChatStore(backendC).LoadConversations()
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	var userMessages []string
	for _, conv := range conversations {
		for _, msg := range conv.Messages {
			if msg.Role == model.RoleUser {
				userMessages = append(userMessages, msg.Content)
			}
		}
	}
	assert.Contains(t, userMessages, "hello from a")
	assert.Contains(t, userMessages, "hello from b")
}

func TestMergeConversationsPrefersNewerCopy(t *testing.T) {
	shared := model.NewConversation()
	shared.Title = "stale local copy"

	newer := *shared
	newer.Title = "fresh remote copy"
	newer.LastUpdatedAt = shared.LastUpdatedAt.Add(time.Minute)

	remoteOnly := model.NewConversation()

	merged := mergeConversations(
		[]*model.Conversation{&newer, remoteOnly},
		[]*model.Conversation{shared},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, "fresh remote copy", merged[0].Title)
	assert.Equal(t, remoteOnly.ID, merged[1].ID)
}

func TestSettingsUpdate(t *testing.T) {
	orc := New(&fakeSender{}, nil)

	orc.SetAPIKey("key-1")
	orc.SetModel("gemini-2.5-pro")
	orc.SetEndpoint("https://example.test/v1beta")

	state := orc.State()
	assert.Equal(t, "key-1", state.APIKey)
	assert.Equal(t, "gemini-2.5-pro", state.Model)
	assert.Equal(t, "https://example.test/v1beta", state.APIURL)
}
