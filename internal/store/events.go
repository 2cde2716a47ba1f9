// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"github.com/jeranaias/gemchat/internal/model"
)

// Event is a discrete state-transition request. Events carry data only; all
// behavior lives in Transition. Callers sequence events themselves — no
// event implicitly retries or rolls back.
type Event interface {
	isEvent()
}

// AppendMessage appends a message to the active conversation. When the
// append yields exactly three messages and the title is still the sentinel,
// the title is auto-derived.
type AppendMessage struct {
	Message *model.Message
}

// ReviseMessageContent replaces the content of the message with the matching
// ID in the active conversation. Unknown IDs are a no-op.
type ReviseMessageContent struct {
	ID      string
	Content string
}

// SetMessageLoading toggles the pending/streaming indicator on a message.
// Unknown IDs are a no-op.
type SetMessageLoading struct {
	ID        string
	IsLoading bool
}

// SetMessageError flags a message whose turn failed. Unknown IDs are a
// no-op.
type SetMessageError struct {
	ID      string
	IsError bool
}

// SetCredentials assigns the API key.
type SetCredentials struct {
	APIKey string
}

// SetEndpoint assigns the API base URL.
type SetEndpoint struct {
	APIURL string
}

// SetModel assigns the remote model identifier.
type SetModel struct {
	Model string
}

// SetProcessing toggles the turn-in-flight flag.
type SetProcessing struct {
	IsProcessing bool
}

// CreateConversation inserts a conversation and makes it current.
type CreateConversation struct {
	Conversation *model.Conversation
}

// SelectConversation switches the active conversation. Unknown IDs leave the
// state untouched.
type SelectConversation struct {
	ID string
}

// RenameConversation sets a title and bumps LastUpdatedAt. A manual rename
// replaces the sentinel for good, so the auto-title rule never re-fires.
type RenameConversation struct {
	ID    string
	Title string
}

// ResetConversation replaces a conversation's messages with a single fresh
// welcome message and restores the sentinel title.
type ResetConversation struct {
	ID string
}

// DeleteConversation removes a conversation. Deleting the active one
// activates the first remaining conversation; deleting the last one
// synthesizes and activates a brand-new conversation.
type DeleteConversation struct {
	ID string
}

// ResetMessages is ResetConversation aimed at the active conversation,
// without requiring its ID.
type ResetMessages struct{}

// SetActiveAtom updates command-routing state for out-of-scope feature
// modules. Passed through unchanged by this core.
type SetActiveAtom struct {
	Atom   string
	Params map[string]string
}

func (AppendMessage) isEvent()        {}
func (ReviseMessageContent) isEvent() {}
func (SetMessageLoading) isEvent()    {}
func (SetMessageError) isEvent()      {}
func (SetCredentials) isEvent()       {}
func (SetEndpoint) isEvent()          {}
func (SetModel) isEvent()             {}
func (SetProcessing) isEvent()        {}
func (CreateConversation) isEvent()   {}
func (SelectConversation) isEvent()   {}
func (RenameConversation) isEvent()   {}
func (ResetConversation) isEvent()    {}
func (DeleteConversation) isEvent()   {}
func (ResetMessages) isEvent()        {}
func (SetActiveAtom) isEvent()        {}
