// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for gemchat.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdSessions
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	Plain   bool // Disable markdown rendering

	// Command-specific
	Query      string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `gemchat - Gemini chat for the terminal

Gemchat is a conversational assistant backed by the Gemini API, with
streaming responses, multiple conversations, and local persistence.

Usage:
  gemchat                    Start TUI (default)
  gemchat chat               Interactive chat in plain terminal mode
  gemchat ask "question"     Ask a single question and exit
  gemchat status, s          Show configuration and session status
  gemchat sessions [list|show|delete|export]  Manage saved conversations
  gemchat config [show|set|path]  Configuration management
  gemchat version            Show version
  gemchat help               Show this help

Session Commands:
  gemchat sessions                 List saved conversations
  gemchat sessions show N          Print a conversation transcript
  gemchat sessions delete N        Delete a conversation
  gemchat sessions export N [path] Write a conversation as Markdown

Config Commands:
  gemchat config show              Show current configuration (key redacted)
  gemchat config set KEY VALUE     Set a configuration value
  gemchat config path              Print the config file path

  Settable keys: api_key, api_url, model, storage.backend, storage.dir,
                 ui.theme, ui.markdown

Interactive Commands (during chat):
  /help, /h           Show available commands
  /new, /n            Start a new conversation
  /list, /ls          List conversations
  /switch N           Switch to conversation N
  /rename TITLE       Rename the current conversation
  /clear, /c          Clear the current conversation
  /delete [N]         Delete a conversation
  /history            Show the transcript
  /export             Export the conversation as Markdown
  /model [name]       Show or switch model
  /key API_KEY        Set the Gemini API key
  /status             Show session status
  /quit, /q           Exit chat
  Ctrl+C              Cancel current response
  Ctrl+D              Exit chat

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override default model
  --plain         Disable markdown rendering

Environment:
  GEMINI_API_KEY    API key (overrides config file)
  GEMCHAT_API_URL   API base URL override
  GEMCHAT_MODEL     Model override
  GEMCHAT_DIR       Config/state directory (default ~/.gemchat)

Examples:
  gemchat                             Start TUI interface
  gemchat ask "What is Go?"           Ask a single question
  gemchat ask --model gemini-2.0-pro "Explain generics"
  gemchat chat                        Plain-terminal chat
  gemchat config set api_key YOUR_KEY
  gemchat config set model gemini-2.0-flash
  gemchat status

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("gemchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	// No remaining args: default to TUI, or plain chat when stdout is
	// not a terminal.
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "repl":
		return CmdChat, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "sessions", "session":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdSessions, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat the whole line as a question.
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--plain":
			parsedArgs.Plain = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--plain":
			args.Plain = true
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
