// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Title derivation constants.
const (
	// maxTitleTokens is the number of leading words considered for a title.
	maxTitleTokens = 5

	// maxTitleLen is the character budget for a derived title. Whole words
	// are added while the result stays under the budget; a single word that
	// cannot fit at all is hard-truncated with an ellipsis.
	maxTitleLen = 30

	// TitleNoMessages is returned when there are no messages at all.
	TitleNoMessages = "New Conversation"

	// TitleNoUserMessage is returned when no user message exists yet.
	TitleNoUserMessage = "Untitled Conversation"

	// TitleFallback is returned when the first user message has no
	// alphanumeric content to derive from.
	TitleFallback = "Conversation"
)

// DeriveTitle computes a short human-readable label from a message sequence.
// It is pure and deterministic: the same messages always yield the same
// title. The label comes from the first user message — up to the first five
// whitespace-separated words, stripped of non-alphanumeric characters, joined
// by single spaces, kept under the character budget at word boundaries.
func DeriveTitle(messages []*Message) string {
	if len(messages) == 0 {
		return TitleNoMessages
	}

	var source *Message
	for _, msg := range messages {
		if msg.Role == RoleUser {
			source = msg
			break
		}
	}
	if source == nil {
		return TitleNoUserMessage
	}

	tokens := strings.Fields(source.Content)
	if len(tokens) > maxTitleTokens {
		tokens = tokens[:maxTitleTokens]
	}

	var title strings.Builder
	for _, tok := range tokens {
		clean := stripNonAlnum(tok)
		if clean == "" {
			continue
		}

		candidate := clean
		if title.Len() > 0 {
			candidate = title.String() + " " + clean
		}
		if len(candidate) >= maxTitleLen {
			// The very first word may be unbreakable; cut it hard.
			if title.Len() == 0 {
				return string([]rune(clean)[:maxTitleLen]) + "..."
			}
			break
		}
		title.Reset()
		title.WriteString(candidate)
	}

	if title.Len() == 0 {
		return TitleFallback
	}
	return title.String()
}

// stripNonAlnum removes every character outside [A-Za-z0-9].
func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
