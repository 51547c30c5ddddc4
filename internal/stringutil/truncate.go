// Package stringutil provides string helpers for terminal output.
package stringutil

import (
	"fmt"
	"unicode/utf8"
)

// Truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence, noting how many bytes were left out.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d more bytes)", s[:cut], len(s)-cut)
}
