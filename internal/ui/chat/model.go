// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the chat screen: state, key handling,
// slash command dispatch, and the streaming turn lifecycle.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/orchestrator"
	"github.com/jeranaias/gemchat/internal/store"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat screen.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming reply
	StateError                  // Showing a blocking error
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. It holds a read-only
// snapshot of the orchestrator's state; every mutation goes through the
// orchestrator and the snapshot is refreshed afterwards.
type Model struct {
	state State

	// Dimensions
	width  int
	height int

	// Backend
	orc    *orchestrator.Orchestrator
	parser *commands.Parser
	cmdCtx *commands.Context

	// chat is the latest state snapshot. Treated as read-only.
	chat *store.ChatState

	// Streaming
	streamingBuffer *StreamingBuffer
	cache           *renderCache
	deltas          chan string
	streamed        string
	turnStart       time.Time

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Transient UI state
	lastError *ErrorMsg
	statusMsg string
	notice    string
	showHelp  bool
	turns     int
}

// New creates a chat model bound to an orchestrator. cfg may be nil; slash
// commands that persist settings then report an error instead of saving.
func New(orc *orchestrator.Orchestrator, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message, or /help for commands..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII spinner frames render everywhere, including bare terminals
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    defaultFlushInterval,
	}

	registry := commands.NewRegistry()

	return Model{
		state:           StateReady,
		orc:             orc,
		parser:          commands.NewParser(registry),
		cmdCtx:          commands.NewContext(orc, cfg),
		chat:            orc.State(),
		streamingBuffer: NewStreamingBuffer(),
		cache:           &renderCache{},
		viewport:        vp,
		input:           ti,
		spinner:         sp,
		keyMap:          DefaultKeyMap(),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnStartedMsg:
		m.turnStart = msg.StartTime
		return m, nil

	case StreamDeltaMsg:
		return m.handleStreamDelta(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case StatusMsg:
		m.statusMsg = msg.Text
		return m, nil

	case ErrorMsg:
		m.lastError = &msg
		m.state = StateError
		return m, nil

	case ErrorDismissMsg:
		m.lastError = nil
		m.state = StateReady
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		// Spinner only animates while waiting for the first delta
		if m.state == StateStreaming && m.streamed == "" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	default:
		var cmds []tea.Cmd

		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// View renders the chat screen.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Reserve conservative heights for the fixed chrome; renderChat
	// measures the real heights and pads the viewport on mismatch.
	const (
		headerHeight    = 1
		inputAreaHeight = 3
		statusBarHeight = 1
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// Input line renders as padding (1) + prompt (2) + value + padding (1)
	inputWidth := m.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.cache.Invalidate()
	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Emergency exit works in every state
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// Help overlay swallows everything until dismissed
	if m.showHelp {
		switch msg.String() {
		case "esc", "q", "enter", "ctrl+_":
			m.showHelp = false
		}
		return m, nil
	}

	if m.state == StateError {
		switch msg.String() {
		case "esc", "enter", " ":
			m.lastError = nil
			m.state = StateReady
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	switch {
	case msg.String() == "ctrl+c":
		if m.state == StateStreaming {
			return m.cancelTurn()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			return m.cancelTurn()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keyMap.NewConversation):
		if m.state == StateStreaming {
			return m, nil
		}
		m.orc.NewConversation()
		m.notice = ""
		m.statusMsg = "Started a new conversation"
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.ClearScreen):
		if m.state == StateStreaming {
			return m, nil
		}
		m.orc.ClearConversation(m.chat.CurrentID)
		m.notice = ""
		m.statusMsg = "Conversation cleared"
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.state == StateReady {
			return m.submitInput()
		}
		return m, nil
	}

	// Everything else goes to the focused input and the viewport
	var cmds []tea.Cmd
	if m.state == StateReady {
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleStreamDelta(msg StreamDeltaMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	m.streamingBuffer.Write(msg.Content)
	// Keep listening; rendering happens on the next tick
	return m, waitForDelta(m.deltas)
}

// handleStreamTick drains the streaming buffer at the capped frame rate
// and refreshes the snapshot so mid-turn dispatches become visible.
func (m Model) handleStreamTick(msg StreamTickMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}

	m.chat = m.orc.State()

	if content, ok := m.streamingBuffer.Flush(); ok {
		m.streamed += content
	}
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, streamTickCmd()
}

func (m Model) handleTurnDone(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	m.streamingBuffer.Reset()
	m.chat = m.orc.State()
	m.streamed = ""
	m.deltas = nil
	m.state = StateReady
	m.turns++

	switch {
	case msg.Err == nil:
		m.statusMsg = "Replied in " + formatDuration(msg.Duration)
	case gemini.IsCancelled(msg.Err):
		m.statusMsg = "Cancelled"
	default:
		// The failure text is already in the transcript as an error bubble
		m.statusMsg = ""
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	m.input.Reset()

	if commands.IsCommand(content) {
		return m.runCommand(content)
	}
	return m.startTurn(content)
}

// runCommand dispatches a slash command through the shared registry.
func (m Model) runCommand(content string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(content)
	if result.Command == nil {
		m.notice = "Unknown command: " + result.CommandName + " (type /help for commands)"
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		m.notice = err.Error()
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	output, err := result.Command.Handler(m.cmdCtx, result.Args)
	if errors.Is(err, commands.ErrQuit) {
		return m, tea.Quit
	}
	if err != nil {
		m.notice = "Error: " + err.Error()
	} else {
		m.notice = output
	}

	m.statusMsg = ""
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// startTurn hands a user message to the orchestrator and wires its
// streaming callback into the Bubble Tea loop via a delta channel.
func (m Model) startTurn(content string) (tea.Model, tea.Cmd) {
	if m.chat.APIKey == "" && (m.cmdCtx.Config == nil || m.cmdCtx.Config.API.Key == "") {
		return m, func() tea.Msg {
			return NewErrorMsg("API key required",
				"No Gemini API key is configured. Set GEMINI_API_KEY, "+
					"run /key <key>, or use: gemchat config set api_key <key>")
		}
	}

	deltas := make(chan string, 64)
	m.deltas = deltas
	m.state = StateStreaming
	m.streamed = ""
	m.notice = ""
	m.statusMsg = ""
	m.streamingBuffer.Reset()

	orc := m.orc
	start := time.Now()
	turn := func() tea.Msg {
		err := orc.SendMessage(context.Background(), content, func(delta string) {
			deltas <- delta
		})
		// SendMessage has returned, so no more callbacks can fire
		close(deltas)
		return TurnDoneMsg{Err: err, Duration: time.Since(start)}
	}

	return m, tea.Batch(
		func() tea.Msg { return NewTurnStartedMsg() },
		turn,
		waitForDelta(deltas),
		m.spinner.Tick,
		streamTickCmd(),
	)
}

// cancelTurn aborts the in-flight turn. The orchestrator unwinds and the
// pending TurnDoneMsg carries the cancellation sentinel.
func (m Model) cancelTurn() (tea.Model, tea.Cmd) {
	if m.orc.CancelTurn() {
		m.statusMsg = "Cancelling..."
	}
	return m, nil
}

// waitForDelta listens for the next streamed fragment. Returns nil once
// the channel closes, which ends the listen loop for the turn.
func waitForDelta(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		delta, ok := <-ch
		if !ok {
			return nil
		}
		return StreamDeltaMsg{Content: delta}
	}
}

// =============================================================================
// SNAPSHOT HELPERS
// =============================================================================

// refresh re-reads the orchestrator state and re-renders the transcript.
func (m *Model) refresh() {
	m.chat = m.orc.State()
	m.updateViewport()
}

// updateViewport re-renders the transcript into the viewport, skipping
// the update when the rendered content is unchanged.
func (m *Model) updateViewport() {
	content := m.renderMessages()
	if m.cache.Changed(content) {
		m.viewport.SetContent(content)
	}
}
