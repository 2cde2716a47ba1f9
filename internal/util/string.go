// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strconv"

// UNICODE: rune-aware truncation prevents mid-character cuts that would
// corrupt UTF-8 strings.

// TruncateRunes truncates s to at most maxRunes characters, appending "..."
// when the string was shortened.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// PadRight pads s with spaces to the given rune width. Strings already at or
// past the width are returned unchanged.
func PadRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	padding := width - len(runes)
	for i := 0; i < padding; i++ {
		s += " "
	}
	return s
}

// IntToString converts an int to its decimal representation.
func IntToString(i int) string {
	return strconv.Itoa(i)
}
