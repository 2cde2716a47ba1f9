// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"time"

	"github.com/jeranaias/gemchat/internal/model"
)

// autoTitleAt is the message count that triggers title derivation: the
// welcome message, the first user turn, and the first assistant reply.
const autoTitleAt = 3

// Transition maps (state, event) to a new state. The input state is never
// mutated; events that change nothing (unknown IDs, already-reset
// conversations) return the input state itself, so callers can detect
// no-ops by pointer equality.
func Transition(state *ChatState, event Event) *ChatState {
	switch ev := event.(type) {
	case AppendMessage:
		return applyAppendMessage(state, ev)
	case ReviseMessageContent:
		return applyMessageUpdate(state, ev.ID, func(msg *model.Message) {
			msg.Content = ev.Content
		})
	case SetMessageLoading:
		return applyMessageUpdate(state, ev.ID, func(msg *model.Message) {
			msg.IsLoading = ev.IsLoading
		})
	case SetMessageError:
		return applyMessageUpdate(state, ev.ID, func(msg *model.Message) {
			msg.IsError = ev.IsError
		})
	case SetCredentials:
		next := state.clone()
		next.APIKey = ev.APIKey
		return next
	case SetEndpoint:
		next := state.clone()
		next.APIURL = ev.APIURL
		return next
	case SetModel:
		next := state.clone()
		next.Model = ev.Model
		return next
	case SetProcessing:
		next := state.clone()
		next.IsProcessing = ev.IsProcessing
		return next
	case CreateConversation:
		return applyCreateConversation(state, ev)
	case SelectConversation:
		return applySelectConversation(state, ev)
	case RenameConversation:
		return applyRenameConversation(state, ev)
	case ResetConversation:
		return applyResetConversation(state, ev.ID)
	case DeleteConversation:
		return applyDeleteConversation(state, ev)
	case ResetMessages:
		return applyResetConversation(state, state.CurrentID)
	case SetActiveAtom:
		next := state.clone()
		next.ActiveAtom = ev.Atom
		next.AtomParams = cloneParams(ev.Params)
		return next
	default:
		return state
	}
}

// =============================================================================
// MESSAGE TRANSITIONS
// =============================================================================

func applyAppendMessage(state *ChatState, ev AppendMessage) *ChatState {
	if ev.Message == nil {
		return state
	}
	idx := state.indexOf(state.CurrentID)
	if idx < 0 {
		return state
	}

	next := state.clone()
	conv := next.Conversations[idx].Clone()
	msg := ev.Message.Clone()
	conv.Messages = append(conv.Messages, msg)
	conv.LastUpdatedAt = laterOf(msg.Timestamp, conv.LastUpdatedAt)

	if len(conv.Messages) == autoTitleAt && conv.HasSentinelTitle() {
		conv.Title = model.DeriveTitle(conv.Messages)
	}

	next.Conversations[idx] = conv
	next.syncMessages()
	return next
}

// applyMessageUpdate rewrites one message of the active conversation via
// mutate, keeping the denormalized cache in sync. Unknown IDs return the
// input state unchanged.
func applyMessageUpdate(state *ChatState, id string, mutate func(*model.Message)) *ChatState {
	idx := state.indexOf(state.CurrentID)
	if idx < 0 {
		return state
	}
	if state.Conversations[idx].MessageByID(id) == nil {
		return state
	}

	next := state.clone()
	conv := next.Conversations[idx].Clone()
	mutate(conv.MessageByID(id))
	conv.LastUpdatedAt = time.Now()

	next.Conversations[idx] = conv
	next.syncMessages()
	return next
}

// =============================================================================
// CONVERSATION TRANSITIONS
// =============================================================================

func applyCreateConversation(state *ChatState, ev CreateConversation) *ChatState {
	if ev.Conversation == nil {
		return state
	}

	next := state.clone()
	conv := ev.Conversation.Clone()
	next.Conversations = append(next.Conversations, conv)
	next.CurrentID = conv.ID
	next.Messages = conv.Messages
	return next
}

func applySelectConversation(state *ChatState, ev SelectConversation) *ChatState {
	if state.ConversationByID(ev.ID) == nil {
		return state
	}
	if state.CurrentID == ev.ID {
		return state
	}

	next := state.clone()
	next.CurrentID = ev.ID
	next.syncMessages()
	return next
}

func applyRenameConversation(state *ChatState, ev RenameConversation) *ChatState {
	idx := state.indexOf(ev.ID)
	if idx < 0 {
		return state
	}

	next := state.clone()
	conv := next.Conversations[idx].Clone()
	conv.Title = ev.Title
	conv.LastUpdatedAt = time.Now()

	next.Conversations[idx] = conv
	return next
}

func applyResetConversation(state *ChatState, id string) *ChatState {
	idx := state.indexOf(id)
	if idx < 0 {
		return state
	}

	// Resetting an already-reset conversation changes nothing; returning
	// the input state keeps the operation idempotent.
	conv := state.Conversations[idx]
	if isResetState(conv) {
		return state
	}

	next := state.clone()
	fresh := conv.Clone()
	fresh.Messages = []*model.Message{model.NewWelcomeMessage()}
	fresh.Title = model.SentinelTitle
	fresh.LastUpdatedAt = time.Now()

	next.Conversations[idx] = fresh
	if next.CurrentID == id {
		next.Messages = fresh.Messages
	}
	return next
}

func applyDeleteConversation(state *ChatState, ev DeleteConversation) *ChatState {
	idx := state.indexOf(ev.ID)
	if idx < 0 {
		return state
	}

	next := state.clone()
	next.Conversations = append(next.Conversations[:idx], next.Conversations[idx+1:]...)

	if next.CurrentID == ev.ID {
		if len(next.Conversations) > 0 {
			next.CurrentID = next.Conversations[0].ID
		} else {
			// The conversation set must never become empty.
			conv := model.NewConversation()
			next.Conversations = []*model.Conversation{conv}
			next.CurrentID = conv.ID
		}
		next.syncMessages()
	}
	return next
}

// =============================================================================
// HELPERS
// =============================================================================

// isResetState reports whether a conversation is already in its cleared
// form: sentinel title and a lone welcome message.
func isResetState(conv *model.Conversation) bool {
	if !conv.HasSentinelTitle() || len(conv.Messages) != 1 {
		return false
	}
	first := conv.Messages[0]
	return first.Role == model.RoleAssistant && first.Content == model.WelcomeText
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func cloneParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}
