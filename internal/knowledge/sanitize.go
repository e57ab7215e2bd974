package knowledge

import (
	"strings"
	"unicode"
)

// sanitizeContent prepares chunk text for persistence: invalid UTF-8 byte
// sequences are dropped, NUL bytes and other control characters are stripped
// (PostgreSQL rejects NUL in text columns), and surrounding whitespace is
// trimmed. Newlines and tabs survive — manually authored chunks keep their
// formatting.
func sanitizeContent(s string) string {
	s = strings.ToValidUTF8(s, "")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == 0 || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}
