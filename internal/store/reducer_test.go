// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"

	"github.com/jeranaias/gemchat/internal/model"
)

func TestNewChatStateSeedsOneConversation(t *testing.T) {
	state := NewChatState()

	if len(state.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(state.Conversations))
	}
	conv := state.Current()
	if conv == nil {
		t.Fatal("current conversation is nil")
	}
	if !conv.HasSentinelTitle() {
		t.Errorf("expected sentinel title, got %q", conv.Title)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != model.WelcomeText {
		t.Error("expected a single welcome message")
	}
	if len(state.Messages) != len(conv.Messages) {
		t.Error("denormalized messages out of sync after construction")
	}
}

func TestAppendMessageSyncsActiveMessages(t *testing.T) {
	state := NewChatState()

	state = Transition(state, AppendMessage{Message: model.NewUserMessage("hello there")})
	state = Transition(state, AppendMessage{Message: model.NewAssistantMessage("hi!")})

	conv := state.Current()
	if len(conv.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(conv.Messages))
	}
	if len(state.Messages) != 3 {
		t.Fatalf("denormalized messages length %d, want 3", len(state.Messages))
	}
	for i := range conv.Messages {
		if state.Messages[i] != conv.Messages[i] {
			t.Errorf("message %d: state.Messages diverges from active conversation", i)
		}
	}
}

func TestAppendMessageDoesNotMutateInput(t *testing.T) {
	state := NewChatState()
	before := len(state.Current().Messages)

	_ = Transition(state, AppendMessage{Message: model.NewUserMessage("mutation check")})

	if len(state.Current().Messages) != before {
		t.Error("input state was mutated by Transition")
	}
}

func TestAutoTitleAtThirdMessage(t *testing.T) {
	state := NewChatState()

	state = Transition(state, AppendMessage{Message: model.NewUserMessage("tell me about rust programming today")})
	if !state.Current().HasSentinelTitle() {
		t.Fatalf("title derived too early: %q", state.Current().Title)
	}

	state = Transition(state, AppendMessage{Message: model.NewAssistantMessage("Rust is a systems language.")})
	if got := state.Current().Title; got != "tell me about rust" {
		t.Errorf("derived title = %q, want %q", got, "tell me about rust")
	}
}

func TestAutoTitleSkippedForCustomTitle(t *testing.T) {
	state := NewChatState()
	state = Transition(state, RenameConversation{ID: state.CurrentID, Title: "my project notes"})

	state = Transition(state, AppendMessage{Message: model.NewUserMessage("tell me about rust")})
	state = Transition(state, AppendMessage{Message: model.NewAssistantMessage("sure")})

	if got := state.Current().Title; got != "my project notes" {
		t.Errorf("custom title overwritten: %q", got)
	}
}

func TestReviseMessageContent(t *testing.T) {
	state := NewChatState()
	placeholder := model.NewPlaceholderMessage()
	state = Transition(state, AppendMessage{Message: placeholder})

	state = Transition(state, ReviseMessageContent{ID: placeholder.ID, Content: "final answer"})
	state = Transition(state, SetMessageLoading{ID: placeholder.ID, IsLoading: false})

	msg := state.Current().MessageByID(placeholder.ID)
	if msg == nil {
		t.Fatal("placeholder not found after revision")
	}
	if msg.Content != "final answer" {
		t.Errorf("content = %q, want %q", msg.Content, "final answer")
	}
	if msg.IsLoading {
		t.Error("loading flag still set")
	}
	if placeholder.Content != "" {
		t.Error("original message value was mutated")
	}
}

func TestUnknownMessageIDIsNoOp(t *testing.T) {
	state := NewChatState()

	for _, ev := range []Event{
		ReviseMessageContent{ID: "msg_missing", Content: "x"},
		SetMessageLoading{ID: "msg_missing", IsLoading: true},
		SetMessageError{ID: "msg_missing", IsError: true},
	} {
		if next := Transition(state, ev); next != state {
			t.Errorf("%T on unknown ID produced a new state", ev)
		}
	}
}

func TestUnknownConversationIDIsNoOp(t *testing.T) {
	state := NewChatState()

	for _, ev := range []Event{
		SelectConversation{ID: "conv_missing"},
		RenameConversation{ID: "conv_missing", Title: "x"},
		ResetConversation{ID: "conv_missing"},
		DeleteConversation{ID: "conv_missing"},
	} {
		if next := Transition(state, ev); next != state {
			t.Errorf("%T on unknown ID produced a new state", ev)
		}
	}
}

func TestCreateAndSelectConversation(t *testing.T) {
	state := NewChatState()
	first := state.CurrentID

	second := model.NewConversation()
	state = Transition(state, CreateConversation{Conversation: second})

	if state.CurrentID != second.ID {
		t.Errorf("CurrentID = %q, want new conversation %q", state.CurrentID, second.ID)
	}
	if len(state.Conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(state.Conversations))
	}

	state = Transition(state, SelectConversation{ID: first})
	if state.CurrentID != first {
		t.Errorf("CurrentID = %q, want %q", state.CurrentID, first)
	}
	if len(state.Messages) != len(state.Current().Messages) {
		t.Error("messages not re-synced after selection")
	}
}

func TestSelectCurrentConversationIsNoOp(t *testing.T) {
	state := NewChatState()
	if next := Transition(state, SelectConversation{ID: state.CurrentID}); next != state {
		t.Error("selecting the active conversation produced a new state")
	}
}

func TestResetConversationIsIdempotent(t *testing.T) {
	state := NewChatState()
	state = Transition(state, AppendMessage{Message: model.NewUserMessage("first question")})
	state = Transition(state, AppendMessage{Message: model.NewAssistantMessage("an answer")})

	once := Transition(state, ResetConversation{ID: state.CurrentID})
	conv := once.Current()
	if len(conv.Messages) != 1 || conv.Messages[0].Content != model.WelcomeText {
		t.Fatal("reset did not restore the welcome-only transcript")
	}
	if !conv.HasSentinelTitle() {
		t.Errorf("reset did not restore sentinel title, got %q", conv.Title)
	}

	twice := Transition(once, ResetConversation{ID: once.CurrentID})
	if twice != once {
		t.Error("second reset produced a new state")
	}
}

func TestDeleteActiveConversationActivatesRemaining(t *testing.T) {
	state := NewChatState()
	first := state.CurrentID
	state = Transition(state, CreateConversation{Conversation: model.NewConversation()})
	second := state.CurrentID

	state = Transition(state, DeleteConversation{ID: second})

	if len(state.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(state.Conversations))
	}
	if state.CurrentID != first {
		t.Errorf("CurrentID = %q, want %q", state.CurrentID, first)
	}
	if len(state.Messages) != len(state.Current().Messages) {
		t.Error("messages not synced after delete")
	}
}

func TestDeleteLastConversationSeedsFreshOne(t *testing.T) {
	state := NewChatState()
	state = Transition(state, AppendMessage{Message: model.NewUserMessage("about to vanish")})

	state = Transition(state, DeleteConversation{ID: state.CurrentID})

	if len(state.Conversations) != 1 {
		t.Fatalf("expected exactly 1 conversation, got %d", len(state.Conversations))
	}
	conv := state.Current()
	if conv == nil {
		t.Fatal("no active conversation after deleting the last one")
	}
	if !conv.HasSentinelTitle() {
		t.Errorf("replacement title = %q, want sentinel", conv.Title)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != model.WelcomeText {
		t.Error("replacement conversation is not welcome-only")
	}
}

func TestDeleteInactiveConversationKeepsSelection(t *testing.T) {
	state := NewChatState()
	first := state.CurrentID
	state = Transition(state, CreateConversation{Conversation: model.NewConversation()})
	second := state.CurrentID

	state = Transition(state, DeleteConversation{ID: first})

	if state.CurrentID != second {
		t.Errorf("CurrentID = %q, want %q", state.CurrentID, second)
	}
}

func TestSettingsTransitions(t *testing.T) {
	state := NewChatState()

	state = Transition(state, SetCredentials{APIKey: "key-123"})
	state = Transition(state, SetEndpoint{APIURL: "https://example.test/v1beta"})
	state = Transition(state, SetModel{Model: "gemini-2.0-flash"})
	state = Transition(state, SetProcessing{IsProcessing: true})

	if state.APIKey != "key-123" {
		t.Errorf("APIKey = %q", state.APIKey)
	}
	if state.APIURL != "https://example.test/v1beta" {
		t.Errorf("APIURL = %q", state.APIURL)
	}
	if state.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q", state.Model)
	}
	if !state.IsProcessing {
		t.Error("IsProcessing not set")
	}
}

func TestSetActiveAtomCopiesParams(t *testing.T) {
	state := NewChatState()
	params := map[string]string{"topic": "rust"}

	state = Transition(state, SetActiveAtom{Atom: "search", Params: params})
	params["topic"] = "go"

	if got := state.AtomParams["topic"]; got != "rust" {
		t.Errorf("AtomParams[topic] = %q, caller mutation leaked in", got)
	}
	if state.ActiveAtom != "search" {
		t.Errorf("ActiveAtom = %q", state.ActiveAtom)
	}
}

func TestResetMessagesClearsActiveConversation(t *testing.T) {
	state := NewChatState()
	state = Transition(state, AppendMessage{Message: model.NewUserMessage("wipe me")})

	state = Transition(state, ResetMessages{})

	if len(state.Messages) != 1 || state.Messages[0].Content != model.WelcomeText {
		t.Error("active transcript not reset to welcome-only")
	}
}
