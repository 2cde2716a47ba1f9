// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for gemchat CLI.
//
// Handles the "gemchat chat" command which provides an interactive REPL
// for conversing with Gemini in a plain terminal, without the TUI.
//
// Interactive commands are shared with the TUI; see the commands package.
// Ctrl+C cancels the current response, Ctrl+D exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/orchestrator"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}

	// SECURITY: 0600 - owner read/write only
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

// HandleChatCommand runs the interactive REPL.
func HandleChatCommand(args Args) error {
	orc, cfg, err := NewSession(args)
	if err != nil {
		return err
	}
	defer orc.Shutdown()

	cmdCtx := commands.NewContext(orc, cfg)
	parser := commands.NewParser(commands.NewRegistry())

	if !args.Quiet {
		printWelcome(orc, cfg)
	}

	input := NewChatCLI()
	defer input.Close()

	// Ctrl+C cancels the in-flight response instead of killing the REPL.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if orc.CancelTurn() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	startTime := time.Now()
	turns := 0

	for {
		line, err := input.ReadInput(promptStyle.Render("gemchat> "))
		if err != nil {
			// Ctrl+C at the prompt, EOF (Ctrl+D), or a read error all
			// end the session gracefully.
			fmt.Println()
			printExitSummary(orc, turns, startTime)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			quit, err := runSlashCommand(parser, cmdCtx, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if quit {
				printExitSummary(orc, turns, startTime)
				return nil
			}
			continue
		}

		// Bare exit/quit without the slash
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printExitSummary(orc, turns, startTime)
			return nil
		}

		if err := processMessage(orc, cfg, args, line); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		} else {
			turns++
		}
	}
}

// runSlashCommand dispatches a slash command through the shared registry.
// Returns quit=true when the session should end.
func runSlashCommand(parser *commands.Parser, ctx *commands.Context, line string) (bool, error) {
	result := parser.Parse(line)
	if result.Command == nil {
		return false, fmt.Errorf("unknown command: %s (type /help for commands)", result.CommandName)
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		return false, err
	}

	output, err := result.Command.Handler(ctx, result.Args)
	if errors.Is(err, commands.ErrQuit) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if output != "" {
		fmt.Print(output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Println()
		}
	}
	return false, nil
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends a message through the orchestrator and streams the
// response to the terminal.
func processMessage(orc *orchestrator.Orchestrator, cfg *config.Config, args Args, input string) error {
	// Render collected markdown at the end on a TTY; stream tokens as
	// they arrive otherwise.
	useMarkdown := IsStdoutTTY() && !args.Plain && cfg.UI.Markdown

	start := time.Now()
	fmt.Println() // Space before response

	var streamed strings.Builder
	err := orc.SendMessage(context.Background(), input, func(delta string) {
		if !useMarkdown {
			streamToStdout(delta)
		}
		streamed.WriteString(delta)
	})
	if err != nil {
		if gemini.IsCancelled(err) {
			return nil
		}
		return err
	}

	reply := lastReply(orc)
	if useMarkdown {
		displayResponse(reply)
	} else if streamed.Len() == 0 && reply != "" {
		// Non-streaming fallback produced the whole reply at once.
		fmt.Print(reply)
	}

	fmt.Println()
	fmt.Println() // Extra space after response

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			infoStyle.Render("[Done]"),
			time.Since(start).Round(time.Millisecond))
	}

	return nil
}

// lastReply returns the content of the newest assistant message in the
// current conversation.
func lastReply(orc *orchestrator.Orchestrator) string {
	conv := orc.State().Current()
	if conv == nil {
		return ""
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.Role == model.RoleAssistant && !msg.IsLoading {
			return msg.Content
		}
	}
	return ""
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(orc *orchestrator.Orchestrator, cfg *config.Config) {
	model := orc.State().Model
	if model == "" {
		model = cfg.API.Model
	}

	fmt.Println()
	fmt.Println(welcomeStyle.Render("gemchat interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(model))

	if cfg.API.Key != "" || orc.State().APIKey != "" {
		fmt.Printf("%s %s\n",
			infoStyle.Render("API key:"),
			commandStyle.Render("Configured"))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("API key:"),
			warningStyle.Render("Not set (use /key or GEMINI_API_KEY)"))
	}

	fmt.Printf("%s %d\n",
		infoStyle.Render("Conversations:"),
		len(orc.State().Conversations))

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(orc *orchestrator.Orchestrator, turns int, startTime time.Time) {
	if turns == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(startTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Turns:"),
		turns)
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Conversations:"),
		len(orc.State().Conversations))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
