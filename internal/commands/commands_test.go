// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/orchestrator"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubSender struct {
	reply string
}

func (s *stubSender) SendTurn(ctx context.Context, model string, contents []gemini.Content, callback gemini.StreamCallback) (string, error) {
	return s.reply, nil
}

func testContext(t *testing.T) *Context {
	t.Helper()
	t.Setenv("GEMCHAT_DIR", t.TempDir())
	orc := orchestrator.New(&stubSender{reply: "ok"}, nil)
	return NewContext(orc, nil)
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParser_Parse(t *testing.T) {
	parser := NewParser(NewRegistry())

	tests := []struct {
		name      string
		input     string
		isCommand bool
		cmdName   string
		args      []string
	}{
		{"plain message", "hello there", false, "", nil},
		{"simple command", "/help", true, "/help", nil},
		{"command with args", "/switch 2", true, "/switch", []string{"2"}},
		{"alias resolves", "/q", true, "/quit", nil},
		{"extra whitespace", "  /new  ", true, "/new", nil},
		{"multi-word args", "/rename my new title", true, "/rename", []string{"my", "new", "title"}},
		{"empty input", "", false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.Parse(tt.input)
			assert.Equal(t, tt.isCommand, result.IsCommand)
			if tt.isCommand {
				require.NotNil(t, result.Command)
				assert.Equal(t, tt.cmdName, result.Command.Name)
				assert.Equal(t, tt.args, result.Args)
			}
		})
	}
}

func TestParser_RawArgsPreservesQuoting(t *testing.T) {
	parser := NewParser(NewRegistry())
	result := parser.Parse(`/rename "Weekend plans"`)
	require.NotNil(t, result.Command)
	assert.Equal(t, []string{"Weekend plans"}, result.Args)
	assert.Equal(t, `"Weekend plans"`, result.RawArgs)
}

func TestParser_UnknownCommand(t *testing.T) {
	parser := NewParser(NewRegistry())
	result := parser.Parse("/nosuchcommand")
	assert.True(t, result.IsCommand)
	assert.Nil(t, result.Command)
	assert.Equal(t, "/nosuchcommand", result.CommandName)
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a b c", []string{"a", "b", "c"}},
		{"double quotes", `rename "my title"`, []string{"rename", "my title"}},
		{"single quotes", `rename 'my title'`, []string{"rename", "my title"}},
		{"escaped quote", `say "a \"b\""`, []string{"say", `a "b"`}},
		{"collapsed spaces", "a    b", []string{"a", "b"}},
		{"unterminated quote", `rename "half`, []string{"rename", "half"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCommandLine(tt.input))
		})
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/help"))
	assert.True(t, IsCommand("  /help"))
	assert.False(t, IsCommand("help"))
	assert.False(t, IsCommand(""))
}

func TestExtractCommandName(t *testing.T) {
	assert.Equal(t, "/switch", ExtractCommandName("/switch 2"))
	assert.Equal(t, "/help", ExtractCommandName("/help"))
	assert.Equal(t, "", ExtractCommandName("not a command"))
}

func TestValidateArgs(t *testing.T) {
	registry := NewRegistry()

	renameCmd := registry.Get("/rename")
	require.NotNil(t, renameCmd)
	assert.Error(t, ValidateArgs(renameCmd, nil))
	assert.NoError(t, ValidateArgs(renameCmd, []string{"title"}))

	deleteCmd := registry.Get("/delete")
	require.NotNil(t, deleteCmd)
	assert.NoError(t, ValidateArgs(deleteCmd, nil))
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry()

	assert.NotNil(t, registry.Get("/help"))
	assert.NotNil(t, registry.Get("/h"))
	assert.NotNil(t, registry.Get("/?"))
	assert.Nil(t, registry.Get("/bogus"))

	// Alias resolves to the canonical command.
	assert.Equal(t, registry.Get("/quit"), registry.Get("/q"))
}

func TestRegistry_AllSorted(t *testing.T) {
	all := NewRegistry().All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestHandleHelp_ListsCommands(t *testing.T) {
	out, err := HandleHelp(testContext(t), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "/quit")
	assert.Contains(t, out, "/switch")
	assert.Contains(t, out, "Conversation")
}

func TestHandleQuit_ReturnsSentinel(t *testing.T) {
	_, err := HandleQuit(testContext(t), nil)
	assert.True(t, errors.Is(err, ErrQuit))
}

func TestHandleNew_CreatesConversation(t *testing.T) {
	ctx := testContext(t)
	before := len(ctx.Orchestrator.State().Conversations)

	_, err := HandleNew(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, ctx.Orchestrator.State().Conversations, before+1)
}

func TestHandleList_MarksCurrent(t *testing.T) {
	ctx := testContext(t)
	HandleNew(ctx, nil)

	out, err := HandleList(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "2. ")
}

func TestHandleSwitch_ByNumber(t *testing.T) {
	ctx := testContext(t)
	first := ctx.Orchestrator.State().CurrentID
	HandleNew(ctx, nil)
	require.NotEqual(t, first, ctx.Orchestrator.State().CurrentID)

	_, err := HandleSwitch(ctx, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, first, ctx.Orchestrator.State().CurrentID)
}

func TestHandleSwitch_BadTarget(t *testing.T) {
	ctx := testContext(t)

	_, err := HandleSwitch(ctx, []string{"99"})
	assert.Error(t, err)

	_, err = HandleSwitch(ctx, []string{"no-such-id"})
	assert.Error(t, err)

	_, err = HandleSwitch(ctx, nil)
	assert.Error(t, err)
}

func TestHandleRename(t *testing.T) {
	ctx := testContext(t)

	_, err := HandleRename(ctx, []string{"Weekend", "plans"})
	require.NoError(t, err)
	assert.Equal(t, "Weekend plans", ctx.Orchestrator.State().Current().Title)

	_, err = HandleRename(ctx, nil)
	assert.Error(t, err)
}

func TestHandleDelete_DefaultsToCurrent(t *testing.T) {
	ctx := testContext(t)
	HandleNew(ctx, nil)
	doomed := ctx.Orchestrator.State().CurrentID

	_, err := HandleDelete(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, ctx.Orchestrator.State().ConversationByID(doomed))
}

func TestHandleHistory_SkipsPlaceholders(t *testing.T) {
	ctx := testContext(t)
	require.NoError(t, ctx.Orchestrator.SendMessage(context.Background(), "what is go", nil))

	out, err := HandleHistory(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "what is go")
	assert.Contains(t, out, "ok")
}

func TestHandleExport_WritesMarkdown(t *testing.T) {
	ctx := testContext(t)
	require.NoError(t, ctx.Orchestrator.SendMessage(context.Background(), "hello", nil))

	out, err := HandleExport(ctx, nil)
	require.NoError(t, err)

	path := strings.TrimPrefix(out, "Exported to ")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Equal(t, ".md", filepath.Ext(path))
}

func TestHandleModel_ShowAndSet(t *testing.T) {
	ctx := testContext(t)

	_, err := HandleModel(ctx, []string{"gemini-2.0-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-pro", ctx.Orchestrator.State().Model)

	out, err := HandleModel(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "gemini-2.0-pro")
}

func TestHandleKey_SetsKey(t *testing.T) {
	ctx := testContext(t)

	_, err := HandleKey(ctx, []string{"secret-key"})
	require.NoError(t, err)
	assert.Equal(t, "secret-key", ctx.Orchestrator.State().APIKey)

	_, err = HandleKey(ctx, nil)
	assert.Error(t, err)
}

func TestHandleStatus_Summarizes(t *testing.T) {
	ctx := testContext(t)
	HandleKey(ctx, []string{"secret"})
	HandleModel(ctx, []string{"gemini-2.0-flash"})

	out, err := HandleStatus(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "configured")
	assert.Contains(t, out, "gemini-2.0-flash")
	assert.Contains(t, out, "Conversations")
}
