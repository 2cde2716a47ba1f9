// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// ChatState is the single process-wide chat state record. It is owned by the
// reducer: external code treats it as an immutable snapshot and produces new
// values via Transition.
type ChatState struct {
	// Messages is a denormalized cache of the active conversation's message
	// list. Every transition that touches messages keeps it synchronized
	// with Conversations[CurrentID].Messages.
	Messages []*model.Message

	// Remote endpoint identifiers.
	APIKey string
	APIURL string
	Model  string

	// IsProcessing reports whether a turn is currently in flight.
	IsProcessing bool

	// Conversations holds every conversation in creation order. Never empty.
	Conversations []*model.Conversation

	// CurrentID references the active conversation.
	CurrentID string

	// ActiveAtom and AtomParams carry command-routing state for feature
	// modules outside this core. The reducer passes them through unchanged.
	ActiveAtom string
	AtomParams map[string]string
}

// NewChatState creates the initial state with one fresh conversation.
func NewChatState() *ChatState {
	conv := model.NewConversation()
	return &ChatState{
		Messages:      conv.Messages,
		Conversations: []*model.Conversation{conv},
		CurrentID:     conv.ID,
	}
}

// Current returns the active conversation, or nil when CurrentID is unknown.
func (s *ChatState) Current() *model.Conversation {
	return s.ConversationByID(s.CurrentID)
}

// ConversationByID returns the conversation with the given ID, or nil.
func (s *ChatState) ConversationByID(id string) *model.Conversation {
	for _, conv := range s.Conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// indexOf returns the slice index of the conversation, or -1.
func (s *ChatState) indexOf(id string) int {
	for i, conv := range s.Conversations {
		if conv.ID == id {
			return i
		}
	}
	return -1
}

// clone returns a shallow copy with a fresh conversation slice and atom
// params map. Individual conversations stay shared until a transition
// clones the one it modifies.
func (s *ChatState) clone() *ChatState {
	next := *s
	next.Conversations = make([]*model.Conversation, len(s.Conversations))
	copy(next.Conversations, s.Conversations)
	if s.AtomParams != nil {
		next.AtomParams = make(map[string]string, len(s.AtomParams))
		for k, v := range s.AtomParams {
			next.AtomParams[k] = v
		}
	}
	return &next
}

// syncMessages points the denormalized cache at the active conversation.
func (s *ChatState) syncMessages() {
	if conv := s.Current(); conv != nil {
		s.Messages = conv.Messages
	}
}
