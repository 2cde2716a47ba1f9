// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Session management command handler for gemchat CLI.
//
// Operates directly on the persisted conversation state, without starting
// an interactive session:
//
//	gemchat sessions              List saved conversations
//	gemchat sessions show N       Print a conversation transcript
//	gemchat sessions delete N     Delete a conversation
//	gemchat sessions export N [path]  Write a conversation as Markdown
//
// N is the 1-based number from the list, or a conversation ID.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/storage"
	"github.com/jeranaias/gemchat/internal/ui/styles"
	"github.com/jeranaias/gemchat/internal/util"
)

// HandleSessions handles the "sessions" command.
func HandleSessions(args Args) {
	if err := handleSessionsCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

func handleSessionsCommand(args Args) error {
	cfg := config.Global()

	backend, err := OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	store := storage.NewChatStore(backend)
	conversations, currentID, err := store.LoadConversations()
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}

	switch args.Subcommand {
	case "", "list", "ls":
		return sessionsList(conversations, currentID)
	case "show":
		return sessionsShow(conversations, args.Raw)
	case "delete", "rm":
		return sessionsDelete(store, conversations, currentID, args.Raw)
	case "export":
		return sessionsExport(conversations, args.Raw)
	default:
		return fmt.Errorf("unknown sessions subcommand: %s (want list, show, delete, or export)", args.Subcommand)
	}
}

func sessionsList(conversations []*model.Conversation, currentID string) error {
	if len(conversations) == 0 {
		fmt.Println(infoStyle.Render("No saved conversations."))
		return nil
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Saved conversations"))
	fmt.Println()

	for i, conv := range conversations {
		marker := "  "
		if conv.ID == currentID {
			marker = "* "
		}
		line := marker + strconv.Itoa(i+1) + ". " +
			util.PadRight(util.TruncateRunes(conv.Title, 38), 40) +
			util.PadRight(strconv.Itoa(conv.MessageCount())+" messages", 14) +
			conv.LastUpdatedAt.Format("2006-01-02 15:04")
		fmt.Println(line)
	}
	fmt.Println()
	return nil
}

func sessionsShow(conversations []*model.Conversation, rawArgs []string) error {
	conv, err := pickConversation(conversations, rawArgs)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render(conv.Title))
	fmt.Println()
	for _, msg := range conv.Messages {
		if msg.IsLoading {
			continue
		}
		label := msg.Role.DisplayName() + " (" + msg.Timestamp.Format("15:04") + "):"
		fmt.Println(commandStyle.Render(label))
		fmt.Println(WrapText(msg.Content, GetTerminalWidth()))
		fmt.Println()
	}
	return nil
}

func sessionsDelete(store *storage.ChatStore, conversations []*model.Conversation, currentID string, rawArgs []string) error {
	conv, err := pickConversation(conversations, rawArgs)
	if err != nil {
		return err
	}

	remaining := make([]*model.Conversation, 0, len(conversations)-1)
	for _, c := range conversations {
		if c.ID != conv.ID {
			remaining = append(remaining, c)
		}
	}
	if currentID == conv.ID {
		currentID = ""
		if len(remaining) > 0 {
			currentID = remaining[0].ID
		}
	}

	if err := store.SaveConversations(remaining, currentID); err != nil {
		return fmt.Errorf("saving conversations: %w", err)
	}

	fmt.Println(styles.RenderSuccess("Deleted \"" + conv.Title + "\""))
	return nil
}

func sessionsExport(conversations []*model.Conversation, rawArgs []string) error {
	conv, err := pickConversation(conversations, rawArgs)
	if err != nil {
		return err
	}

	path := conv.ID + ".md"
	if len(rawArgs) > 2 {
		path = rawArgs[2]
	}

	if err := util.AtomicWriteFile(path, []byte(commands.ExportMarkdown(conv)), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Println(styles.RenderSuccess("Exported to " + path))
	return nil
}

// pickConversation resolves the selector after the subcommand: a 1-based
// list number or a conversation ID (full or unambiguous prefix).
func pickConversation(conversations []*model.Conversation, rawArgs []string) (*model.Conversation, error) {
	if len(rawArgs) < 2 {
		return nil, errors.New("missing conversation number or ID (run: gemchat sessions list)")
	}
	selector := rawArgs[1]

	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(conversations) {
			return nil, fmt.Errorf("no conversation %d (have %d)", n, len(conversations))
		}
		return conversations[n-1], nil
	}

	var match *model.Conversation
	for _, conv := range conversations {
		if conv.ID == selector {
			return conv, nil
		}
		if strings.HasPrefix(conv.ID, selector) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous ID prefix: %s", selector)
			}
			match = conv
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no conversation matches %q", selector)
	}
	return match, nil
}
