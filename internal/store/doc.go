// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the reducer that owns all chat state.
//
// State is mutated exclusively by Transition, a pure function mapping
// (state, event) to a new state value. Transitions perform no I/O, never
// panic on well-formed events, and never mutate their input: every change
// goes through copy-on-write of the affected conversation, so callers may
// hold onto old state snapshots safely.
//
// # Invariants
//
//   - state.Messages always equals the active conversation's message list
//     after any transition
//   - the conversation set is never empty; deleting the last conversation
//     synthesizes and activates a fresh one
//   - events targeting unknown message or conversation IDs are silent
//     no-ops, returning the input state unchanged (events may race with
//     deletions, so idempotence beats strictness here)
package store
