package tui

import (
	"regexp"
	"unicode/utf8"
)

// ellipsis indicates truncation.
const ellipsis = "..."

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// truncate shortens text to maxWidth with an ellipsis.
func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	textLen := utf8.RuneCountInString(text)
	if textLen <= maxWidth {
		return text
	}

	ellipsisLen := utf8.RuneCountInString(ellipsis)
	if maxWidth <= ellipsisLen {
		runes := []rune(ellipsis)
		return string(runes[:maxWidth])
	}

	runes := []rune(text)
	return string(runes[:maxWidth-ellipsisLen]) + ellipsis
}
