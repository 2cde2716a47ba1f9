// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the plain-terminal front
// ends for gemchat: the one-shot ask command and the interactive REPL.
//
// The package is split by concern:
//
//   - cli.go      Top-level argument parsing (Parse) and usage text
//   - args.go     ArgParser for subcommand flag handling
//   - chat.go     Interactive REPL built on liner
//   - ask.go      One-shot question command and markdown rendering
//   - config.go   The "config" command (show/set/path)
//   - status.go   The "status" command
//   - sessions.go The "sessions" command (list/show/delete/export)
//   - terminal.go TTY detection, width, and color control
//   - styles.go   Shared lipgloss styles
//
// The REPL and the TUI share the same slash command set; see the
// commands package.
package cli
