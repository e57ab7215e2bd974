package chunker

import (
	"strings"
	"testing"
)

func TestCascadeChunkMergesUpToCap(t *testing.T) {
	c := Cascade{MaxChars: 40, MinFragmentLen: 1}

	text := "alpha beta\n\ngamma delta\n\nepsilon zeta"
	chunks := c.Chunk(text)

	// All three paragraphs fit a single 40-byte chunk when merged.
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks %q, want 1 merged chunk", len(chunks), chunks)
	}
	if chunks[0] != "alpha beta gamma delta epsilon zeta" {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestCascadeChunkRespectsCap(t *testing.T) {
	c := Cascade{MaxChars: 20, MinFragmentLen: 1}

	text := "one two three four five six seven eight nine ten"
	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want the cap to force a split", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 20 {
			t.Errorf("chunk[%d] = %q has %d bytes, cap is 20", i, chunk, len(chunk))
		}
	}
	if joined := strings.Join(chunks, " "); joined != text {
		t.Errorf("concatenated chunks = %q, want %q", joined, text)
	}
}

func TestCascadeChunkDiscardsShortFragments(t *testing.T) {
	c := Cascade{MaxChars: 30, MinFragmentLen: 10}

	chunks := c.Chunk("ok\n\nthis paragraph is long enough to keep")
	for _, chunk := range chunks {
		if len(chunk) < 10 {
			t.Errorf("fragment %q survived the minimum length filter", chunk)
		}
	}
	if len(chunks) == 0 {
		t.Error("the long paragraph should have been kept")
	}
}

func TestCascadeChunkMinLengthCountsRunes(t *testing.T) {
	c := Cascade{MaxChars: 15, MinFragmentLen: 10}

	// The heading is 7 characters but 10 bytes; it flushes alone and the
	// filter must discard it by character count.
	chunks := c.Chunk("Điều 1.\n\nkeep this part")
	if len(chunks) != 1 || chunks[0] != "keep this part" {
		t.Errorf("chunks = %q, want only %q", chunks, "keep this part")
	}
}

func TestCascadeChunkHardCutRuneBoundaries(t *testing.T) {
	// A long run with no separators at all forces character-level cuts.
	// Multi-byte runes must not be split.
	c := Cascade{MaxChars: 10, MinFragmentLen: 1}

	text := strings.Repeat("đ", 20) // 2 bytes each, 40 bytes total
	chunks := c.Chunk(text)

	if len(chunks) < 4 {
		t.Fatalf("got %d chunks for a 40-byte run with a 10-byte cap", len(chunks))
	}
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if len(chunk) > 10 {
			t.Errorf("chunk[%d] has %d bytes, cap is 10", i, len(chunk))
		}
		if !strings.HasPrefix(chunk, "đ") || !strings.HasSuffix(chunk, "đ") {
			t.Errorf("chunk[%d] = %q split a rune", i, chunk)
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Errorf("rebuilt text does not match input")
	}
}

func TestCascadeChunkEmptyInput(t *testing.T) {
	c := Cascade{}
	for _, in := range []string{"", "   ", "\n\n\n"} {
		if chunks := c.Chunk(in); len(chunks) != 0 {
			t.Errorf("Chunk(%q) = %q, want empty", in, chunks)
		}
	}
}

func TestCascadeChunkDefaultCap(t *testing.T) {
	c := Cascade{MinFragmentLen: 1}

	text := strings.Repeat("word ", 1000) // ~5000 bytes
	chunks := c.Chunk(strings.TrimSpace(text))

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want the default cap to split ~5000 bytes", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > DefaultMaxChunkChars {
			t.Errorf("chunk[%d] has %d bytes, default cap is %d", i, len(chunk), DefaultMaxChunkChars)
		}
	}
}
