// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the REPL
// and the TUI.
package commands

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

// HandleHelp lists all commands grouped by category.
func HandleHelp(ctx *Context, args []string) (string, error) {
	registry := NewRegistry()
	var sb strings.Builder

	sb.WriteString("Available commands:\n")
	for _, category := range []string{"Conversation", "Settings", "Navigation"} {
		cmds := registry.ByCategory()[category]
		if len(cmds) == 0 {
			continue
		}
		sb.WriteString("\n" + category + ":\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			sb.WriteString("  " + util.PadRight(usage, 24) + cmd.Description + "\n")
		}
	}
	sb.WriteString("\nAnything else you type is sent to the model.\n")
	return sb.String(), nil
}

// HandleQuit signals the front end to exit.
func HandleQuit(ctx *Context, args []string) (string, error) {
	return "", ErrQuit
}

// =============================================================================
// CONVERSATION HANDLERS
// =============================================================================

// HandleNew starts a new conversation and makes it active.
func HandleNew(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}
	ctx.Orchestrator.NewConversation()
	return "Started a new conversation.", nil
}

// HandleList shows all conversations, most recent context last.
func HandleList(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	state := ctx.Orchestrator.State()
	var sb strings.Builder
	sb.WriteString("Conversations:\n")
	for i, conv := range state.Conversations {
		marker := "  "
		if conv.ID == state.CurrentID {
			marker = "* "
		}
		sb.WriteString(marker + util.IntToString(i+1) + ". " +
			util.PadRight(util.TruncateRunes(conv.Title, 30), 32) +
			util.IntToString(conv.MessageCount()) + " messages\n")
	}
	sb.WriteString("\nUse /switch <number> to change conversations.\n")
	return sb.String(), nil
}

// HandleSwitch changes the active conversation by list number or ID.
func HandleSwitch(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}
	if len(args) == 0 {
		return "", errors.New("usage: /switch <number|id>")
	}

	conv, err := resolveConversation(ctx, args[0])
	if err != nil {
		return "", err
	}
	if err := ctx.Orchestrator.SelectConversation(conv.ID); err != nil {
		return "", err
	}
	return "Switched to \"" + conv.Title + "\".", nil
}

// HandleRename sets the current conversation's title.
func HandleRename(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return "", errors.New("usage: /rename <title>")
	}

	state := ctx.Orchestrator.State()
	if err := ctx.Orchestrator.RenameConversation(state.CurrentID, title); err != nil {
		return "", err
	}
	return "Renamed conversation to \"" + title + "\".", nil
}

// HandleClear resets the current conversation to its welcome state.
func HandleClear(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}
	if err := ctx.Orchestrator.ClearConversation(ctx.Orchestrator.State().CurrentID); err != nil {
		return "", err
	}
	return "Conversation cleared.", nil
}

// HandleDelete removes a conversation (the current one by default).
func HandleDelete(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	state := ctx.Orchestrator.State()
	target := state.Current()
	if len(args) > 0 {
		conv, err := resolveConversation(ctx, args[0])
		if err != nil {
			return "", err
		}
		target = conv
	}
	if target == nil {
		return "", errors.New("no conversation to delete")
	}

	title := target.Title
	if err := ctx.Orchestrator.DeleteConversation(target.ID); err != nil {
		return "", err
	}
	return "Deleted \"" + title + "\".", nil
}

// HandleHistory renders the current transcript with role labels.
func HandleHistory(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	conv := ctx.Orchestrator.State().Current()
	if conv == nil {
		return "", errors.New("no active conversation")
	}

	var sb strings.Builder
	sb.WriteString(conv.Title + "\n\n")
	for _, msg := range conv.Messages {
		if msg.IsLoading {
			continue
		}
		sb.WriteString(msg.Role.DisplayName() + " (" + msg.Timestamp.Format("15:04") + "):\n")
		sb.WriteString(msg.Content + "\n\n")
	}
	return sb.String(), nil
}

// HandleExport writes the current conversation as a Markdown file and
// returns its path.
func HandleExport(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	conv := ctx.Orchestrator.State().Current()
	if conv == nil {
		return "", errors.New("no active conversation")
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "exports", conv.ID+".md")

	if err := util.AtomicWriteFile(path, []byte(ExportMarkdown(conv)), 0644); err != nil {
		return "", err
	}
	return "Exported to " + path, nil
}

// ExportMarkdown renders a conversation as a Markdown document. Shared with
// the sessions CLI command.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.Title + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		if msg.IsLoading || msg.Content == "" {
			continue
		}
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// HandleModel shows or switches the active model.
func HandleModel(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	if len(args) == 0 {
		current := ctx.Orchestrator.State().Model
		if current == "" && ctx.Config != nil {
			current = ctx.Config.API.Model
		}
		return "Current model: " + current, nil
	}

	name := args[0]
	ctx.Orchestrator.SetModel(name)
	if ctx.Config != nil {
		ctx.Config.API.Model = name
		config.Save(ctx.Config)
	}
	return "Switched to model " + name + ".", nil
}

// HandleKey sets the API key and persists it to the config file.
func HandleKey(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}
	if len(args) == 0 {
		return "", errors.New("usage: /key <api-key>")
	}

	key := args[0]
	ctx.Orchestrator.SetAPIKey(key)
	if ctx.Config != nil {
		ctx.Config.API.Key = key
		if err := config.Save(ctx.Config); err != nil {
			return "API key set for this session, but saving failed: " + err.Error(), nil
		}
	}
	return "API key saved.", nil
}

// HandleStatus summarizes the session.
func HandleStatus(ctx *Context, args []string) (string, error) {
	if ctx.Orchestrator == nil {
		return "", errors.New("no active session")
	}

	state := ctx.Orchestrator.State()
	keyStatus := "not set"
	if state.APIKey != "" || (ctx.Config != nil && ctx.Config.API.Key != "") {
		keyStatus = "configured"
	}
	modelName := state.Model
	if modelName == "" && ctx.Config != nil {
		modelName = ctx.Config.API.Model
	}

	var sb strings.Builder
	sb.WriteString("Model:         " + modelName + "\n")
	sb.WriteString("API key:       " + keyStatus + "\n")
	sb.WriteString("Conversations: " + util.IntToString(len(state.Conversations)) + "\n")
	if conv := state.Current(); conv != nil {
		sb.WriteString("Current:       " + conv.Title + " (" + util.IntToString(conv.MessageCount()) + " messages)\n")
	}
	return sb.String(), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveConversation maps a /switch or /delete argument to a conversation,
// accepting either a 1-based list number or a conversation ID.
func resolveConversation(ctx *Context, arg string) (*model.Conversation, error) {
	state := ctx.Orchestrator.State()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(state.Conversations) {
			return nil, errors.New("no conversation numbered " + arg)
		}
		return state.Conversations[n-1], nil
	}

	if conv := state.ConversationByID(arg); conv != nil {
		return conv, nil
	}
	return nil, errors.New("no conversation matching \"" + arg + "\"")
}
