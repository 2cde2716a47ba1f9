// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command handler for gemchat CLI.
//
// Shows the effective configuration and the persisted conversation state
// without starting an interactive session.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/storage"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) {
	if err := handleStatusCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

func handleStatusCommand(args Args) error {
	cfg := config.Global()

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("gemchat status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	keyStatus := styles.RenderWarning("Not set")
	if cfg.API.Key != "" {
		keyStatus = styles.RenderSuccess("Configured")
	}
	fmt.Printf("  %s %s\n", infoStyle.Render("API key:  "), keyStatus)
	fmt.Printf("  %s %s\n", infoStyle.Render("Model:    "), commandStyle.Render(cfg.API.Model))
	fmt.Printf("  %s %s\n", infoStyle.Render("Endpoint: "), cfg.API.BaseURL)
	fmt.Printf("  %s %s\n", infoStyle.Render("Storage:  "), cfg.Storage.Backend)

	dir, err := config.ConfigDir()
	if err == nil {
		fmt.Printf("  %s %s\n", infoStyle.Render("Directory:"), dir)
	}

	// Conversation summary from the persisted state.
	backend, err := OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	store := storage.NewChatStore(backend)
	conversations, _, err := store.LoadConversations()
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}

	total := 0
	for _, conv := range conversations {
		total += len(conv.Messages)
	}

	fmt.Println()
	fmt.Printf("  %s %d\n", infoStyle.Render("Conversations:"), len(conversations))
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages:     "), total)
	fmt.Println()

	return nil
}
