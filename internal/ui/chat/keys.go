// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// keys.go - Key bindings and help metadata for the chat screen.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY BINDINGS
// =============================================================================

// KeyMap defines the keyboard shortcuts for the chat screen.
type KeyMap struct {
	// Input
	Submit key.Binding
	Cancel key.Binding

	// Conversation
	NewConversation key.Binding
	ClearScreen     key.Binding

	// Navigation
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	GoToTop    key.Binding
	GoToBottom key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the standard chat key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel response"),
		),
		NewConversation: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new conversation"),
		),
		ClearScreen: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear conversation"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "ctrl+k"),
			key.WithHelp("up", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "ctrl+j"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		GoToTop: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "go to top"),
		),
		GoToBottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "go to bottom"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+_"),
			key.WithHelp("ctrl+/", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped by column for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.NewConversation, k.ClearScreen},
		{k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown},
		{k.GoToTop, k.GoToBottom, k.Help, k.Quit},
	}
}

// =============================================================================
// HELP OVERLAY CONTENTS
// =============================================================================

// HelpItem is one row in the help overlay.
type HelpItem struct {
	Key  string
	Desc string
}

// HelpSection groups help items under a heading.
type HelpSection struct {
	Title string
	Items []HelpItem
}

// HelpSections returns the contents of the help overlay. Key bindings come
// first, then the slash commands shared with the REPL.
func HelpSections() []HelpSection {
	return []HelpSection{
		{
			Title: "Input",
			Items: []HelpItem{
				{"enter", "Send message"},
				{"esc", "Cancel streaming response"},
				{"ctrl+q", "Quit"},
			},
		},
		{
			Title: "Conversation",
			Items: []HelpItem{
				{"ctrl+n", "Start a new conversation"},
				{"ctrl+l", "Clear the current conversation"},
			},
		},
		{
			Title: "Navigation",
			Items: []HelpItem{
				{"up / down", "Scroll one line"},
				{"pgup / pgdn", "Scroll one page"},
				{"home / end", "Jump to top / bottom"},
			},
		},
		{
			Title: "Commands",
			Items: []HelpItem{
				{"/help", "List all slash commands"},
				{"/new", "New conversation"},
				{"/list", "List conversations"},
				{"/switch <n>", "Switch conversation"},
				{"/model [name]", "Show or set the model"},
				{"/quit", "Exit"},
			},
		},
	}
}
