// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini generateContent API.
package gemini

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Part is a single piece of content. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// Content is one turn of a conversation on the wire.
// Role is "user" or "model".
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig tunes the model's sampling behavior.
// Zero-valued fields are omitted from the request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

// GenerateRequest is the body for generateContent and streamGenerateContent.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Candidate is one generated completion.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// GenerateResponse is the body of a generateContent response, and also the
// shape of each chunk in a streamGenerateContent stream.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Text returns the concatenated text parts of the first candidate,
// or "" when the response carries no usable content.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, part := range r.Candidates[0].Content.Parts {
		out += part.Text
	}
	return out
}

// APIError is the error envelope returned on non-2xx responses.
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// =============================================================================
// STREAM CHUNK
// =============================================================================

// StreamChunk is one parsed piece of a streaming response.
type StreamChunk struct {
	// Content is the text delta carried by this chunk.
	Content string

	// FinishReason is set on the final chunk when the API reports one.
	FinishReason string

	// Done marks the end of the stream.
	Done bool

	// Error is set when the chunk represents a stream failure.
	Error error
}
