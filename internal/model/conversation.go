// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// SentinelTitle is the fixed initial conversation title. The auto-title rule
// is permitted to overwrite it exactly once; a manual rename replaces it for
// good and the auto rule never fires again.
const SentinelTitle = "New chat"

// WelcomeText is the synthetic assistant greeting every fresh or cleared
// conversation starts with. It keeps the message list non-empty.
const WelcomeText = "Hello! I'm your assistant. Ask me anything, or type /help to see the available commands."

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
type Conversation struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Messages      []*Message `json:"messages"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
}

// NewConversation creates a new conversation with a generated ID, the
// sentinel title, and the welcome message.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:            generateConversationID(),
		Title:         SentinelTitle,
		Messages:      []*Message{NewWelcomeMessage()},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// NewWelcomeMessage creates the synthetic assistant greeting.
func NewWelcomeMessage() *Message {
	return NewMessage(RoleAssistant, WelcomeText)
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// MessageByID returns the message with the given ID, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// FirstUserMessage returns the earliest user message, or nil.
func (c *Conversation) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// HasSentinelTitle reports whether the title is still the initial sentinel.
func (c *Conversation) HasSentinelTitle() bool {
	return c.Title == SentinelTitle
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// TranscriptEntry is one prior exchange line handed to the network client as
// conversation context.
type TranscriptEntry struct {
	Role    Role
	Content string
}

// Transcript returns the conversation history as plain role/content pairs,
// skipping empty placeholders and error messages.
func (c *Conversation) Transcript() []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.IsLoading || msg.IsError || msg.Content == "" {
			continue
		}
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		entries = append(entries, TranscriptEntry{Role: msg.Role, Content: msg.Content})
	}
	return entries
}

// =============================================================================
// COPY SEMANTICS
// =============================================================================

// Clone creates a deep copy of the conversation. The reducer relies on this
// to keep transitions copy-on-write.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:            c.ID,
		Title:         c.Title,
		CreatedAt:     c.CreatedAt,
		LastUpdatedAt: c.LastUpdatedAt,
		Messages:      make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// Preview returns a short preview of the conversation for listings.
func (c *Conversation) Preview() string {
	first := c.FirstUserMessage()
	if first == nil {
		return "Empty conversation"
	}
	return first.Preview(80)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	return "conv_" + uuid.NewString()
}
