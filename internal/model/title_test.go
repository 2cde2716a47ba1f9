// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestDeriveTitle_FirstWordsOfUserMessage(t *testing.T) {
	messages := []*Message{
		NewWelcomeMessage(),
		NewUserMessage("tell me about rust programming today"),
		NewAssistantMessage("Rust is a systems programming language..."),
	}

	got := DeriveTitle(messages)
	if got != "tell me about rust" {
		t.Errorf("DeriveTitle = %q, want %q", got, "tell me about rust")
	}
}

func TestDeriveTitle_Deterministic(t *testing.T) {
	messages := []*Message{
		NewUserMessage("how do goroutines work"),
	}

	first := DeriveTitle(messages)
	second := DeriveTitle(messages)
	if first != second {
		t.Errorf("DeriveTitle not deterministic: %q vs %q", first, second)
	}
	if first != "how do goroutines work" {
		t.Errorf("DeriveTitle = %q, want %q", first, "how do goroutines work")
	}
}

func TestDeriveTitle_StripsNonAlphanumerics(t *testing.T) {
	messages := []*Message{
		NewUserMessage("what's  the   &best* (way)?"),
	}

	got := DeriveTitle(messages)
	if got != "whats the best way" {
		t.Errorf("DeriveTitle = %q, want %q", got, "whats the best way")
	}
}

func TestDeriveTitle_NoMessages(t *testing.T) {
	if got := DeriveTitle(nil); got != TitleNoMessages {
		t.Errorf("DeriveTitle(nil) = %q, want %q", got, TitleNoMessages)
	}
}

func TestDeriveTitle_NoUserMessage(t *testing.T) {
	messages := []*Message{
		NewWelcomeMessage(),
		NewMessage(RoleSystem, "system note"),
	}

	if got := DeriveTitle(messages); got != TitleNoUserMessage {
		t.Errorf("DeriveTitle = %q, want %q", got, TitleNoUserMessage)
	}
}

func TestDeriveTitle_EmptyAfterStripping(t *testing.T) {
	messages := []*Message{
		NewUserMessage("!!! ??? ***"),
	}

	if got := DeriveTitle(messages); got != TitleFallback {
		t.Errorf("DeriveTitle = %q, want %q", got, TitleFallback)
	}
}

func TestDeriveTitle_LongSingleWordTruncated(t *testing.T) {
	messages := []*Message{
		NewUserMessage("pneumonoultramicroscopicsilicovolcanoconiosis1234"),
	}

	got := DeriveTitle(messages)
	want := "pneumonoultramicroscopicsilico..."
	if got != want {
		t.Errorf("DeriveTitle = %q, want %q", got, want)
	}
}

func TestDeriveTitle_AtMostFiveTokens(t *testing.T) {
	messages := []*Message{
		NewUserMessage("a b c d e f g h"),
	}

	if got := DeriveTitle(messages); got != "a b c d e" {
		t.Errorf("DeriveTitle = %q, want %q", got, "a b c d e")
	}
}
