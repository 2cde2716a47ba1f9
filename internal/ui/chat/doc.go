// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for the gemchat TUI.

The chat package implements a terminal chat interface on top of the Bubble
Tea framework. It renders the active conversation, accepts user input, and
streams Gemini replies into the transcript as they arrive.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model for the chat screen:
  - A read-only snapshot of the orchestrator's conversation state
  - Input handling and slash command dispatch
  - Viewport for transcript scrolling
  - Turn lifecycle (start, streaming deltas, completion, cancellation)

## View Rendering (view.go)

Rendering logic for the complete chat interface:
  - Header with model name and status indicator
  - Message bubbles with role-specific styling (user, assistant, system)
  - Input area with separator and hint line
  - Status bar with conversation title and key hints
  - Help overlay listing all key bindings

## Streaming (streaming.go)

Optimized streaming for smooth Gemini responses:
  - StreamingBuffer for batched delta rendering
  - Flicker-free updates at a capped frame rate
  - Thread-safe buffering between the turn goroutine and the render loop

## Commands

Slash commands typed into the input (/help, /new, /switch, /model, ...)
are parsed and executed through the shared internal/commands registry, so
the TUI and the line-based REPL expose an identical command set.

# Usage

Create a chat model around an orchestrator and run it as a program:

	orc := orchestrator.New(client, chatStore)
	m := chat.New(orc, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

The model never talks to the Gemini API directly; all turns go through
the orchestrator, which owns the state and persistence.
*/
package chat
