package submission

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var stripTags = bluemonday.StrictPolicy()

// sanitizeTextField turns input into a single line of plain text: markup is
// removed, line breaks and runs of whitespace collapse to one space.
func sanitizeTextField(s string) string {
	return strings.Join(strings.Fields(plainText(s)), " ")
}

// sanitizeTextarea is sanitizeTextField that keeps line breaks.
func sanitizeTextarea(s string) string {
	s = strings.ReplaceAll(plainText(s), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// sanitizeEmail trims the address, drops characters that cannot appear in
// an address and lowercases the result.
func sanitizeEmail(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("!#$%&'*+/=?^_`{|}~.@-", r):
			return r
		}
		return -1
	}, s)
	return strings.ToLower(s)
}

func plainText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return html.UnescapeString(stripTags.Sanitize(s))
}
