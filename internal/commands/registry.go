// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the REPL
// and the TUI.
package commands

import (
	"errors"
	"sort"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/orchestrator"
)

// ErrQuit is returned by /quit to signal the front end to exit.
var ErrQuit = errors.New("quit requested")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command and returns text to display.
type Handler func(ctx *Context, args []string) (string, error)

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler Handler

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Description explains the argument
	Description string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Category:    "Navigation",
		Handler:     HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit gemchat",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Handler:     HandleNew,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/ls"},
		Description: "List conversations",
		Category:    "Conversation",
		Handler:     HandleList,
	})

	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/sw"},
		Description: "Switch to another conversation",
		Usage:       "/switch <number|id>",
		Args: []ArgDef{
			{Name: "conversation", Required: true, Description: "List number or conversation ID"},
		},
		Category: "Conversation",
		Handler:  HandleSwitch,
	})

	r.Register(&Command{
		Name:        "/rename",
		Description: "Rename the current conversation",
		Usage:       "/rename <title>",
		Args: []ArgDef{
			{Name: "title", Required: true, Description: "New conversation title"},
		},
		Category: "Conversation",
		Handler:  HandleRename,
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the current conversation",
		Category:    "Conversation",
		Handler:     HandleClear,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/del"},
		Description: "Delete a conversation",
		Usage:       "/delete [number|id]",
		Args: []ArgDef{
			{Name: "conversation", Required: false, Description: "List number or ID (default: current)"},
		},
		Category: "Conversation",
		Handler:  HandleDelete,
	})

	r.Register(&Command{
		Name:        "/history",
		Description: "Show the current conversation transcript",
		Category:    "Conversation",
		Handler:     HandleHistory,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the current conversation as Markdown",
		Category:    "Conversation",
		Handler:     HandleExport,
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Switch or show the current model",
		Usage:       "/model [name]",
		Args: []ArgDef{
			{Name: "name", Required: false, Description: "Model to switch to"},
		},
		Category: "Settings",
		Handler:  HandleModel,
	})

	r.Register(&Command{
		Name:        "/key",
		Description: "Set the Gemini API key",
		Usage:       "/key <api-key>",
		Args: []ArgDef{
			{Name: "api-key", Required: true, Description: "Gemini API key"},
		},
		Category: "Settings",
		Handler:  HandleKey,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show connection and conversation status",
		Category:    "Settings",
		Handler:     HandleStatus,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
//
// All fields are optional and may be nil - handlers should check before use.
type Context struct {
	// Orchestrator owns conversations and turns
	Orchestrator *orchestrator.Orchestrator

	// Config provides access to application configuration
	Config *config.Config
}

// NewContext creates a new command context with the given dependencies.
func NewContext(orc *orchestrator.Orchestrator, cfg *config.Config) *Context {
	return &Context{
		Orchestrator: orc,
		Config:       cfg,
	}
}
