// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea message types used by the chat screen.
//
// Messages fall into three groups:
//   - Turn lifecycle: start, streaming deltas, render ticks, completion
//   - UI state: blocking errors and their dismissal
//   - Status: transient status line updates
package chat

import (
	"time"
)

// =============================================================================
// TURN LIFECYCLE MESSAGES
// =============================================================================

// TurnStartedMsg signals that a turn has been handed to the orchestrator.
type TurnStartedMsg struct {
	StartTime time.Time
}

// StreamDeltaMsg delivers a streamed text fragment from the in-flight turn.
type StreamDeltaMsg struct {
	Content string
}

// StreamTickMsg fires at 30fps during streaming so buffered deltas are
// rendered in batches instead of once per network chunk.
type StreamTickMsg struct {
	Time time.Time
}

// TurnDoneMsg signals that the turn finished. Err is nil on success, the
// cancellation sentinel when the user aborted, and the transport error
// otherwise.
type TurnDoneMsg struct {
	Err      error
	Duration time.Duration
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// ErrorMsg displays a blocking error to the user.
type ErrorMsg struct {
	Title   string
	Message string
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// StatusMsg updates the transient status line in the status bar.
type StatusMsg struct {
	Text string
}

// =============================================================================
// HELPERS
// =============================================================================

// NewTurnStartedMsg stamps a turn start with the current time.
func NewTurnStartedMsg() TurnStartedMsg {
	return TurnStartedMsg{StartTime: time.Now()}
}

// NewErrorMsg creates an error message for the blocking error overlay.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{Title: title, Message: message}
}
