// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"regexp"
	"strings"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

var markdownMarks = regexp.MustCompile("[*_`#>\\-]+")

// SpeechText strips markdown emphasis, heading, quote and list marks so the text can be read aloud.
func SpeechText(s string) string {
	return strings.TrimSpace(markdownMarks.ReplaceAllString(s, ""))
}
