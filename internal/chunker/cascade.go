package chunker

import (
	"strings"
	"unicode/utf8"
)

// cascadeSeparators, in splitting order: paragraph break, line break, word
// boundary. Pieces still too large after the last separator are cut at
// character positions.
var cascadeSeparators = []string{"\n\n", "\n", " "}

// DefaultMaxChunkChars bounds cascade chunks. Byte-based rather than
// word-based: the cascade runs without embeddings, and an input-size bound
// is what the embedding model's request limit actually cares about.
const DefaultMaxChunkChars = 2000

// Cascade is the separator-cascade chunker used for bulk seeding from large
// plain-text sources. Lower quality than Semantic — no topical coherence —
// but it makes no embedding calls.
type Cascade struct {
	// MaxChars caps a chunk's length in bytes. Zero means DefaultMaxChunkChars.
	MaxChars int

	// MinFragmentLen discards fragments shorter than this many characters
	// after trimming. Counted in runes, not bytes.
	MinFragmentLen int
}

// Chunk splits text on the separator cascade, merging adjacent pieces back
// together up to the size cap and discarding short fragments.
func (c Cascade) Chunk(text string) []string {
	maxChars := c.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	pieces := split(text, 0, maxChars)

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+1+len(piece) > maxChars {
			c.flush(&chunks, &current)
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(piece)
	}
	c.flush(&chunks, &current)

	return chunks
}

// flush appends the builder's content as a chunk if it passes the fragment
// filter, then resets the builder.
func (c Cascade) flush(chunks *[]string, current *strings.Builder) {
	fragment := strings.TrimSpace(current.String())
	current.Reset()
	if fragment == "" || utf8.RuneCountInString(fragment) < c.MinFragmentLen {
		return
	}
	*chunks = append(*chunks, fragment)
}

// split recursively breaks text with the separator at depth, descending to
// finer separators for pieces that still exceed maxChars. Past the last
// separator it cuts at rune boundaries.
func split(text string, depth, maxChars int) []string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	if len(s) <= maxChars {
		return []string{s}
	}

	if depth >= len(cascadeSeparators) {
		// Hard cut on rune boundaries so multi-byte characters survive.
		runes := []rune(s)
		var out []string
		for start := 0; start < len(runes); {
			end := start
			size := 0
			for end < len(runes) {
				rl := len(string(runes[end]))
				if size+rl > maxChars && size > 0 {
					break
				}
				size += rl
				end++
			}
			out = append(out, string(runes[start:end]))
			start = end
		}
		return out
	}

	var out []string
	for _, piece := range strings.Split(s, cascadeSeparators[depth]) {
		out = append(out, split(piece, depth+1, maxChars)...)
	}
	return out
}
