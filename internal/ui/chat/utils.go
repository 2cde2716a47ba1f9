// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// utils.go - Text wrapping, truncation, and formatting helpers.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// TEXT UTILITIES
// =============================================================================

// wrapText wraps text to a maximum width, handling Unicode correctly.
// Existing line breaks are preserved; long lines break at the last space
// before the limit, or hard-break when a word exceeds the full width.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		runes := []rune(line)
		for len(runes) > maxWidth {
			breakPoint := maxWidth
			for j := maxWidth; j > 0; j-- {
				if runes[j] == ' ' {
					breakPoint = j
					break
				}
			}

			result.WriteString(string(runes[:breakPoint]))
			result.WriteString("\n")
			runes = []rune(strings.TrimLeft(string(runes[breakPoint:]), " "))
		}
		result.WriteString(string(runes))
	}

	return result.String()
}

// truncateToWidth truncates a string to fit within a visible cell width.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}

	currentWidth := 0
	var result strings.Builder

	for _, r := range s {
		runeWidth := lipgloss.Width(string(r))
		if currentWidth+runeWidth > width {
			break
		}
		result.WriteRune(r)
		currentWidth += runeWidth
	}

	return result.String()
}

// =============================================================================
// FORMATTING UTILITIES
// =============================================================================

// formatTimestamp formats a message timestamp for display. Recency decides
// the granularity:
//   - Today: just the time ("15:04")
//   - This week: day and time ("Mon 15:04")
//   - Older: date and time ("Jan 2 15:04")
func formatTimestamp(t time.Time) string {
	now := time.Now()

	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}

	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}

	return t.Format("Jan 2 15:04")
}

// formatDuration renders a turn duration as "1.2s" or "450ms".
func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Millisecond).String()
}

// pluralize appends "s" for counts other than one.
func pluralize(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}
