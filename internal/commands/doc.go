// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the REPL
// and the TUI.
//
// # Key Types
//
//   - Command: a slash command with aliases, usage, and a handler
//   - Registry: lookup table of all built-in commands
//   - Parser: splits user input into a command and quoted arguments
//   - Context: the dependencies handlers act on
//
// # Usage
//
//	registry := commands.NewRegistry()
//	parser := commands.NewParser(registry)
//
//	result := parser.Parse("/rename \"weekend plans\"")
//	if result.IsCommand && result.Command != nil {
//	    out, err := result.Command.Handler(cmdCtx, result.Args)
//	    // render out, handle commands.ErrQuit
//	}
package commands
