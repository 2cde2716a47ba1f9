// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID should start with 'msg_', got %q", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if msg.IsLoading || msg.IsError {
		t.Error("fresh user message should not carry turn state")
	}
}

func TestNewPlaceholderMessage(t *testing.T) {
	msg := NewPlaceholderMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if !msg.IsLoading {
		t.Error("placeholder should start loading")
	}
	if msg.Content != "" {
		t.Errorf("placeholder content should be empty, got %q", msg.Content)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("line one\nline two that is quite long and keeps going on")

	preview := msg.Preview(20)
	if strings.Contains(preview, "\n") {
		t.Error("preview should be single-line")
	}
	if len([]rune(preview)) > 20 {
		t.Errorf("preview too long: %q", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Error("truncated preview should end with '...'")
	}
}

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{RoleError, "Error"},
		{Role("other"), "other"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()

	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID should start with 'conv_', got %q", conv.ID)
	}
	if conv.Title != SentinelTitle {
		t.Errorf("Title = %q, want sentinel %q", conv.Title, SentinelTitle)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("new conversation should hold exactly the welcome message, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Role != RoleAssistant || conv.Messages[0].Content != WelcomeText {
		t.Error("first message should be the assistant welcome")
	}
}

func TestConversation_MessageByID(t *testing.T) {
	conv := NewConversation()
	msg := NewUserMessage("hello")
	conv.Messages = append(conv.Messages, msg)

	if got := conv.MessageByID(msg.ID); got != msg {
		t.Error("MessageByID should find the appended message")
	}
	if got := conv.MessageByID("msg_unknown"); got != nil {
		t.Error("MessageByID should return nil for unknown IDs")
	}
}

func TestConversation_Transcript(t *testing.T) {
	conv := NewConversation()
	conv.Messages = append(conv.Messages,
		NewUserMessage("question"),
		NewPlaceholderMessage(), // still loading, excluded
	)
	errMsg := NewAssistantMessage("service unavailable")
	errMsg.IsError = true
	conv.Messages = append(conv.Messages, errMsg)

	entries := conv.Transcript()
	if len(entries) != 2 {
		t.Fatalf("Transcript len = %d, want 2 (welcome + question)", len(entries))
	}
	if entries[0].Role != RoleAssistant || entries[1].Role != RoleUser {
		t.Errorf("unexpected transcript roles: %v, %v", entries[0].Role, entries[1].Role)
	}
	if entries[1].Content != "question" {
		t.Errorf("transcript content = %q", entries[1].Content)
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation()
	conv.Messages = append(conv.Messages, NewUserMessage("original"))

	clone := conv.Clone()
	clone.Title = "renamed"
	clone.Messages[1].Content = "mutated"
	clone.Messages = append(clone.Messages, NewUserMessage("extra"))

	if conv.Title != SentinelTitle {
		t.Error("clone title change leaked into original")
	}
	if conv.Messages[1].Content != "original" {
		t.Error("clone message mutation leaked into original")
	}
	if len(conv.Messages) != 2 {
		t.Error("clone append leaked into original")
	}
}

func TestConversation_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("x")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID: %s", msg.ID)
		}
		seen[msg.ID] = true
	}
}
