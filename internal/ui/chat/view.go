// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - All rendering logic for the chat screen:
//   - Main layout (renderChat)
//   - Transcript rendering (user, assistant, system, error bubbles)
//   - Chrome (header, input area, status bar)
//   - Help overlay and blocking error overlay
package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat screen.
// Layout: header (1 line) + transcript (viewport) + input (3 lines) +
// status bar (1 line). The stacked height must equal m.height exactly.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.state == StateError && m.lastError != nil {
		return m.renderErrorOverlay()
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(input)
	statusHeight := lipgloss.Height(status)

	availableHeight := m.height - headerHeight - inputHeight - statusHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	transcript := m.viewport.View()

	// Force the viewport block to the computed height if the sizes drifted
	// (handleResize uses conservative constants)
	if lipgloss.Height(transcript) != availableHeight {
		transcript = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(transcript)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		transcript,
		input,
		status,
	)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("gemchat")

	modelName := m.chat.Model
	if modelName == "" {
		modelName = "(no model)"
	}
	modelInfo := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + modelName)

	var statusIcon string
	switch m.state {
	case StateStreaming:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + styles.StatusIndicators.Active)
	case StateError:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Render(" " + styles.StatusIndicators.Error)
	default:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(" " + styles.StatusIndicators.Success)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(title + modelInfo + statusIcon)
}

func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.OverlayDim).
		Render(strings.Repeat("-", width))

	inputLine := lipgloss.NewStyle().
		Padding(0, 1).
		Render(m.input.View())

	var hint string
	switch m.state {
	case StateStreaming:
		hint = "Streaming... esc to cancel"
	default:
		hint = "enter to send | /help for commands | ctrl+q to quit"
	}
	hintLine := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Padding(0, 1).
		Render(truncateToWidth(hint, width-2))

	return lipgloss.JoinVertical(lipgloss.Left, separator, inputLine, hintLine)
}

func (m Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	conv := m.chat.Current()
	title := ""
	if conv != nil {
		title = conv.Title
	}

	count := len(m.chat.Conversations)
	left := title + " | " + formatCount(count, "conversation")

	right := m.statusMsg
	if right == "" && m.state == StateStreaming {
		right = m.spinner.View() + " thinking"
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		left = truncateToWidth(left, width-lipgloss.Width(right)-3)
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderMessages renders the active conversation's transcript.
func (m *Model) renderMessages() string {
	conv := m.chat.Current()
	if conv == nil || len(conv.Messages) == 0 {
		return m.renderEmptyState()
	}

	var parts []string
	for _, msg := range conv.Messages {
		if rendered := m.renderMessage(msg); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	if m.notice != "" {
		parts = append(parts, m.renderNotice())
	}

	return strings.Join(parts, "\n")
}

// renderMessage picks the bubble style for a message's role. Loading
// placeholders render the streamed text accumulated so far.
func (m *Model) renderMessage(msg *model.Message) string {
	if msg.IsLoading {
		return m.renderLoadingMessage()
	}

	switch {
	case msg.IsError || msg.Role == model.RoleError:
		return m.renderErrorMessage(msg)
	case msg.Role == model.RoleUser:
		return m.renderUserMessage(msg)
	case msg.Role == model.RoleAssistant:
		return m.renderAssistantMessage(msg)
	case msg.Role == model.RoleSystem:
		return m.renderSystemMessage(msg)
	default:
		return msg.Content
	}
}

// renderUserMessage renders a user message right-aligned in blue tones.
func (m *Model) renderUserMessage(msg *model.Message) string {
	maxWidth := m.bubbleWidth()

	bubble := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	rendered := bubble.Render(wrapText(msg.Content, wrapWidth))

	marginLeft := m.width - lipgloss.Width(rendered) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}

	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		Render(rendered)
}

// renderAssistantMessage renders an assistant reply left-aligned in purple
// tones with a muted timestamp underneath.
func (m *Model) renderAssistantMessage(msg *model.Message) string {
	maxWidth := m.bubbleWidth()

	content := msg.Content
	if strings.TrimSpace(content) == "" {
		return ""
	}

	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	bubble := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(wrapText(content, wrapWidth))

	timestamp := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(formatTimestamp(msg.Timestamp))

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(bubble + "\n" + timestamp)
}

// renderLoadingMessage renders the in-flight reply: the streamed text with
// a cursor, or the thinking spinner before the first delta lands.
func (m *Model) renderLoadingMessage() string {
	if m.state != StateStreaming {
		// Stale placeholder from an interrupted session
		return ""
	}

	if m.streamed == "" {
		thinking := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render(m.spinner.View() + " Thinking...")
		return lipgloss.NewStyle().MarginTop(1).MarginLeft(2).Render(thinking)
	}

	maxWidth := m.bubbleWidth()
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	cursor := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render("_")

	bubble := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(wrapText(m.streamed, wrapWidth) + cursor)

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(bubble)
}

// renderSystemMessage renders a system notice in amber tones.
func (m *Model) renderSystemMessage(msg *model.Message) string {
	maxWidth := m.bubbleWidth()
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	bubble := lipgloss.NewStyle().
		Foreground(styles.SystemBubbleFg).
		Background(styles.SystemBubbleBg).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(wrapText(msg.Content, wrapWidth))

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(bubble)
}

// renderErrorMessage renders a failed turn's error text in rose tones.
func (m *Model) renderErrorMessage(msg *model.Message) string {
	maxWidth := m.bubbleWidth()
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	bubble := lipgloss.NewStyle().
		Foreground(styles.Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Rose).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(wrapText(styles.StatusIndicators.Error+" "+msg.Content, wrapWidth))

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(bubble)
}

// renderNotice renders slash command output below the transcript.
func (m *Model) renderNotice() string {
	maxWidth := m.width - 6
	if maxWidth < 20 {
		maxWidth = 20
	}

	return lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		MarginTop(1).
		MarginLeft(2).
		Render(wrapText(m.notice, maxWidth))
}

// renderEmptyState renders the hint shown before any messages exist.
func (m *Model) renderEmptyState() string {
	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("No messages yet. Say hello, or type /help to see what gemchat can do.")

	return lipgloss.NewStyle().
		MarginTop(2).
		MarginLeft(2).
		Render(hint)
}

// bubbleWidth returns the maximum width for a message bubble.
func (m *Model) bubbleWidth() int {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2
	}
	if maxWidth < 10 {
		maxWidth = 10
	}
	return maxWidth
}

// =============================================================================
// OVERLAYS
// =============================================================================

// renderHelpOverlay renders the full-screen help view.
func (m Model) renderHelpOverlay() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("gemchat help")
	b.WriteString(title + "\n\n")

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Emerald)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)

	for _, section := range HelpSections() {
		b.WriteString(sectionStyle.Render(section.Title) + "\n")
		for _, item := range section.Items {
			pad := 16 - len(item.Key)
			if pad < 1 {
				pad = 1
			}
			b.WriteString("  " + keyStyle.Render(item.Key) + strings.Repeat(" ", pad) + descStyle.Render(item.Desc) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Press esc to close"))

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderErrorOverlay renders a blocking error box.
func (m Model) renderErrorOverlay() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Rose).
		Render(styles.StatusIndicators.Error + " " + m.lastError.Title)

	message := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Render(wrapText(m.lastError.Message, 60))

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Press enter to dismiss")

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Render(title + "\n\n" + message + "\n\n" + hint)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// formatCount renders "3 conversations" style counts.
func formatCount(n int, noun string) string {
	return strconv.Itoa(n) + " " + pluralize(n, noun)
}
