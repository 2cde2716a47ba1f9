// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command for gemchat CLI.
//
// Handles "gemchat ask" which sends a single question, streams the
// response to stdout, and exits. Shared session wiring for the chat
// command also lives here.
//
// Examples:
//
//	gemchat ask "What is Go?"
//	gemchat ask --model gemini-2.0-pro "Explain generics"
//	echo "question" | gemchat ask
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/orchestrator"
	"github.com/jeranaias/gemchat/internal/storage"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// streamToStdout prints tokens directly to stdout.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// SESSION WIRING
// =============================================================================

// NewClient builds a Gemini client from the loaded configuration.
func NewClient(cfg *config.Config, modelOverride string) *gemini.Client {
	model := cfg.API.Model
	if modelOverride != "" {
		model = modelOverride
	}

	return gemini.NewClientWithConfig(&gemini.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		Timeout:           time.Duration(cfg.API.TimeoutSecs) * time.Second,
		DefaultModel:      model,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Generation: &gemini.GenerationConfig{
			Temperature:     cfg.Generation.Temperature,
			MaxOutputTokens: cfg.Generation.MaxOutputTokens,
			TopP:            cfg.Generation.TopP,
			TopK:            cfg.Generation.TopK,
		},
	})
}

// OpenBackend opens the persistence backend selected in the configuration.
func OpenBackend(cfg *config.Config) (storage.Backend, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		var err error
		dir, err = config.ConfigDir()
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteBackend(filepath.Join(dir, "gemchat.db"))
	default:
		return storage.NewFileBackend(dir)
	}
}

// NewSession builds a fully wired orchestrator: config, storage backend,
// Gemini client, and restored conversation state.
func NewSession(args Args) (*orchestrator.Orchestrator, *config.Config, error) {
	cfg := config.Global()

	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	client := NewClient(cfg, args.Model)
	orc := orchestrator.New(client, storage.NewChatStore(backend))

	if err := orc.Restore(); err != nil {
		return nil, nil, fmt.Errorf("restoring conversations: %w", err)
	}
	if args.Model != "" {
		orc.SetModel(args.Model)
	}

	return orc, cfg, nil
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

// HandleAskCommand sends a single question and prints the response.
// The question comes from the command line, or from stdin when piped.
func HandleAskCommand(args Args) error {
	query := strings.TrimSpace(args.Query)

	// Read from stdin when no query was given and input is piped.
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return errors.New("no question given (usage: gemchat ask \"question\")")
	}

	cfg := config.Global()
	client := NewClient(cfg, args.Model)

	useMarkdown := IsStdoutTTY() && !args.Plain && cfg.UI.Markdown

	contents := gemini.BuildContents(gemini.DefaultSystemPrompt, nil)
	contents = append(contents, gemini.Content{
		Role:  "user",
		Parts: []gemini.Part{{Text: query}},
	})

	start := time.Now()
	var streamed strings.Builder

	reply, err := client.SendTurn(context.Background(), "", contents, func(chunk gemini.StreamChunk) {
		if chunk.Error != nil || chunk.Done {
			return
		}
		if !useMarkdown {
			streamToStdout(chunk.Content)
		}
		streamed.WriteString(chunk.Content)
	})
	if err != nil {
		return err
	}

	if useMarkdown {
		displayResponse(reply)
	} else if streamed.Len() == 0 {
		// Non-streaming fallback path produced the whole reply at once.
		fmt.Print(reply)
	}
	fmt.Println()

	if !args.Quiet && IsStdoutTTY() {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			infoStyle.Render("[Done]"),
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}
