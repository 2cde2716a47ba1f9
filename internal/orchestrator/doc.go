// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator coordinates conversation turns between the state
// store, the Gemini client, and persistence.
//
// # Key Types
//
//   - Orchestrator: owns the chat state and runs the turn lifecycle
//   - TurnSender: the client capability the orchestrator depends on
//
// # Turn Lifecycle
//
// SendMessage runs one full turn: the user message and a loading
// placeholder are appended, processing is flagged, the client produces a
// reply, and the placeholder is revised in place. On failure the
// placeholder carries the error text and is flagged as errored; on
// cancellation it is quietly cleared. Processing is always unset when the
// turn ends.
//
// Turns are serialized per conversation: concurrent SendMessage calls for
// the same conversation queue behind one another, while different
// conversations proceed independently.
package orchestrator
