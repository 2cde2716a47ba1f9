// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini generateContent API.
package gemini

import (
	"github.com/jeranaias/gemchat/internal/model"
)

// =============================================================================
// PROMPT CONSTRUCTION
// =============================================================================

// DefaultSystemPrompt frames the assistant's persona and output format.
const DefaultSystemPrompt = "You are a helpful, concise assistant running in a terminal. " +
	"Answer directly and keep responses focused. " +
	"Format answers in Markdown: use fenced code blocks for code and short lists where they help readability."

// roleUser and roleModel are the wire roles the API accepts.
const (
	roleUser  = "user"
	roleModel = "model"
)

// BuildContents converts a conversation transcript into the wire format.
//
// The system prompt is injected as a leading user/model exchange because the
// v1beta generateContent endpoint has no dedicated system role. Roles other
// than user and assistant are dropped by Transcript before this runs.
func BuildContents(systemPrompt string, transcript []model.TranscriptEntry) []Content {
	contents := make([]Content, 0, len(transcript)+2)

	if systemPrompt != "" {
		contents = append(contents,
			Content{Role: roleUser, Parts: []Part{{Text: systemPrompt}}},
			Content{Role: roleModel, Parts: []Part{{Text: "Understood."}}},
		)
	}

	for _, entry := range transcript {
		role := roleUser
		if entry.Role == model.RoleAssistant {
			role = roleModel
		}
		contents = append(contents, Content{
			Role:  role,
			Parts: []Part{{Text: entry.Content}},
		})
	}

	return contents
}
