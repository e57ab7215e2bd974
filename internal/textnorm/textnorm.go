// Package textnorm canonicalizes free text for lexical matching.
//
// Normalize lower-cases its input, strips diacritical marks via Unicode
// canonical decomposition, and folds the Vietnamese đ to d. The output is
// stable under repeated application, which is what lets anchor keywords be
// stored pre-normalized and compared by plain substring search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical lexical form of text: lowercase, NFD
// decomposition with combining marks removed, recomposed to NFC, and đ
// mapped to d. Empty input yields the empty string.
//
// The đ mapping is explicit because đ is a base letter, not a base+mark
// composition, so generic mark stripping leaves it untouched.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)

	// Transformers are stateful; build a fresh chain per call so Normalize
	// stays safe for concurrent use.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// The mark-stripping chain cannot fail on valid UTF-8; keep
		// Normalize total by falling back to the lowered input.
		stripped = lowered
	}

	return strings.ReplaceAll(stripped, "đ", "d")
}
