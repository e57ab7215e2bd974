package chunker

import (
	"strings"
	"unicode"
)

// splitSentences segments raw text into sentences on sentence-terminal
// punctuation (., !, ?). The whitespace run following a terminator stays
// attached to its sentence, so concatenating the returned slice reproduces
// the input. Trailing text without a terminator forms a final sentence.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	inTrailingSpace := false

	for _, r := range text {
		if inTrailingSpace {
			if unicode.IsSpace(r) {
				current.WriteRune(r)
				continue
			}
			sentences = append(sentences, current.String())
			current.Reset()
			inTrailingSpace = false
		}

		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			inTrailingSpace = true
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}

// cleanSentence collapses line breaks and tabs to single spaces, strips
// non-printable control characters, collapses repeated whitespace, and trims.
func cleanSentence(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
