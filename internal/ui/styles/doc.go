// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the shared color palette for the gemchat TUI and CLI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The palette is consumed by the chat TUI (internal/ui/chat) and the
CLI output styles (internal/cli).

# Color System (colors.go)

## Accent Colors

  - Purple - Primary accent for assistant messages and branding
  - Cyan - Info, prompts, and ready states
  - Emerald - Success states and the streaming indicator
  - Amber - Warnings and system notices
  - Rose - Errors and failed turns

## Message Bubble Colors

Message bubbles use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages
	SystemBubbleBg    - Background for system notices

## Surface Colors

Layered surface system for depth:

	Surface    - Main background
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders and overlay boxes
	OverlayDim - Dimmer separators

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - Hints and timestamps
	TextInverse   - Text on colored backgrounds

## Status Indicators

ASCII indicators that convey state without relying on color:

	StatusIndicators.Success - [OK]
	StatusIndicators.Error   - [X]
	StatusIndicators.Warning - [!]
	StatusIndicators.Info    - [i]
	StatusIndicators.Active  - [*]

# Usage Example

	import "github.com/jeranaias/gemchat/internal/ui/styles"

	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	fmt.Println(styles.RenderSuccess("Configured"))
*/
package styles
