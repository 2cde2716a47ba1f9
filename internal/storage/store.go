// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// store.go - Conversation and settings persistence over a Backend.
package storage

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jeranaias/gemchat/internal/model"
)

// Fixed keys under which chat state is persisted.
const (
	KeyConversations = "chat_conversations"
	KeySettings      = "chat_settings"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// StoredMessage is the persisted form of a message. Timestamps are RFC3339.
// Loading placeholders are never persisted; a crash mid-turn must not leave
// a spinner in the saved transcript.
type StoredMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsError   bool   `json:"is_error,omitempty"`
}

// StoredConversation is the persisted form of a conversation.
type StoredConversation struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Messages      []StoredMessage `json:"messages"`
	CreatedAt     string          `json:"created_at"`
	LastUpdatedAt string          `json:"last_updated_at"`
}

// StoredState is the full persisted conversation set.
//
// Version is a monotonic write counter used to detect concurrent writers:
// a save whose loaded version no longer matches the stored one fails with
// ErrStaleState instead of silently clobbering the other writer.
type StoredState struct {
	Version       int                  `json:"version"`
	Conversations []StoredConversation `json:"conversations"`
	CurrentID     string               `json:"current_id"`
}

// StoredSettings is the persisted form of user settings.
type StoredSettings struct {
	APIKey string `json:"api_key,omitempty"`
	APIURL string `json:"api_url,omitempty"`
	Model  string `json:"model,omitempty"`
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore persists conversations and settings through a Backend.
type ChatStore struct {
	backend Backend

	mu sync.Mutex
	// version last observed by LoadConversations; guards saves
	version int
}

// NewChatStore creates a store over the given backend.
func NewChatStore(backend Backend) *ChatStore {
	return &ChatStore{backend: backend}
}

// Close closes the underlying backend.
func (s *ChatStore) Close() error {
	return s.backend.Close()
}

// =============================================================================
// CONVERSATION PERSISTENCE
// =============================================================================

// SaveConversations persists the conversation set. Returns ErrStaleState if
// another process wrote since the last load; callers should reload and retry.
func (s *ChatStore) SaveConversations(conversations []*model.Conversation, currentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.loadStoredStateLocked()
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	if stored != nil && stored.Version != s.version {
		return ErrStaleState
	}

	next := StoredState{
		Version:   s.version + 1,
		CurrentID: currentID,
	}
	for _, conv := range conversations {
		next.Conversations = append(next.Conversations, encodeConversation(conv))
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := s.backend.Set(KeyConversations, data); err != nil {
		return err
	}

	s.version = next.Version
	return nil
}

// LoadConversations restores the conversation set. A missing key returns
// (nil, "", nil) so first launch starts fresh.
func (s *ChatStore) LoadConversations() ([]*model.Conversation, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.loadStoredStateLocked()
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}

	s.version = stored.Version

	conversations := make([]*model.Conversation, 0, len(stored.Conversations))
	for i := range stored.Conversations {
		conversations = append(conversations, decodeConversation(&stored.Conversations[i]))
	}
	return conversations, stored.CurrentID, nil
}

func (s *ChatStore) loadStoredStateLocked() (*StoredState, error) {
	data, err := s.backend.Get(KeyConversations)
	if err != nil {
		return nil, err
	}

	var stored StoredState
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupted blob is treated as absent rather than bricking
		// the app on startup
		return nil, ErrKeyNotFound
	}
	return &stored, nil
}

// =============================================================================
// SETTINGS PERSISTENCE
// =============================================================================

// SaveSettings persists user settings.
func (s *ChatStore) SaveSettings(settings *StoredSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return s.backend.Set(KeySettings, data)
}

// LoadSettings restores user settings. A missing key returns zero settings.
func (s *ChatStore) LoadSettings() (*StoredSettings, error) {
	data, err := s.backend.Get(KeySettings)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return &StoredSettings{}, nil
		}
		return nil, err
	}

	var settings StoredSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return &StoredSettings{}, nil
	}
	return &settings, nil
}

// =============================================================================
// ENCODING
// =============================================================================

func encodeConversation(conv *model.Conversation) StoredConversation {
	out := StoredConversation{
		ID:            conv.ID,
		Title:         conv.Title,
		CreatedAt:     conv.CreatedAt.UTC().Format(time.RFC3339),
		LastUpdatedAt: conv.LastUpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, msg := range conv.Messages {
		if msg.IsLoading {
			continue
		}
		out.Messages = append(out.Messages, StoredMessage{
			ID:        msg.ID,
			Role:      msg.Role.String(),
			Content:   msg.Content,
			Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
			IsError:   msg.IsError,
		})
	}
	return out
}

func decodeConversation(stored *StoredConversation) *model.Conversation {
	conv := &model.Conversation{
		ID:            stored.ID,
		Title:         stored.Title,
		CreatedAt:     parseStoredTime(stored.CreatedAt),
		LastUpdatedAt: parseStoredTime(stored.LastUpdatedAt),
	}
	for _, msg := range stored.Messages {
		conv.Messages = append(conv.Messages, &model.Message{
			ID:        msg.ID,
			Role:      model.Role(msg.Role),
			Content:   msg.Content,
			Timestamp: parseStoredTime(msg.Timestamp),
			IsError:   msg.IsError,
		})
	}
	return conv
}

// parseStoredTime reads an RFC3339 timestamp, falling back to now for
// unparseable values so old or hand-edited files still load.
func parseStoredTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now()
	}
	return t
}
