// Package text provides normalization and formatting helpers for chat text.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const ellipsis = "…"

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	// Characters that are unsafe in file names on common filesystems.
	filenameUnsafeRegex = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]+`)
)

// NormalizeQuery returns the NFC-normalized, trimmed text with internal
// whitespace collapsed to single spaces. Whitespace-only input yields "".
func NormalizeQuery(text string) string {
	text = norm.NFC.String(text)
	text = strings.TrimSpace(text)
	return whitespaceRegex.ReplaceAllString(text, " ")
}

// ParseCommand returns the lower-case command name for texts like
// "/help" or "/start@SomeBot arg". ok is false for non-command text.
func ParseCommand(text string) (command string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", false
	}

	field := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(field, '@'); at >= 0 {
		field = field[:at]
	}
	if field == "" {
		return "", false
	}

	return strings.ToLower(field), true
}

// Truncate shortens s to at most maxRunes runes, ending with an ellipsis
// when anything was cut. It never splits a rune.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)
	if maxRunes == 1 {
		return string(runes[:1])
	}
	return strings.TrimRightFunc(string(runes[:maxRunes-1]), unicode.IsSpace) + ellipsis
}

// SafeFilename builds "<base>.<ext>" where base is derived from title with
// unsafe characters replaced and is at most maxBaseRunes runes long.
func SafeFilename(title string, maxBaseRunes int, ext string) string {
	base := norm.NFC.String(title)
	base = filenameUnsafeRegex.ReplaceAllString(base, "_")
	base = whitespaceRegex.ReplaceAllString(base, " ")
	base = strings.Trim(base, " .")

	runes := []rune(base)
	if len(runes) > maxBaseRunes {
		base = strings.TrimRight(string(runes[:maxBaseRunes]), " .")
	}
	if base == "" {
		base = "audio"
	}

	return base + "." + ext
}
