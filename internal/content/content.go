package content

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds sanitized message content, in runes.
const MaxMessageLength = 1000

var ErrInvalidContent = errors.New("invalid message content")

var (
	markupPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes raw message text: markup tags are stripped and runs of
// whitespace collapse to a single space. It neither reorders nor truncates
// the remaining text.
func Sanitize(raw string) string {
	s := markupPattern.ReplaceAllString(raw, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Validate sanitizes raw content and returns the clean text, or
// ErrInvalidContent when the result is empty or exceeds MaxMessageLength.
func Validate(raw string) (string, error) {
	clean := Sanitize(raw)
	if clean == "" {
		return "", ErrInvalidContent
	}
	if utf8.RuneCountInString(clean) > MaxMessageLength {
		return "", ErrInvalidContent
	}
	return clean, nil
}
