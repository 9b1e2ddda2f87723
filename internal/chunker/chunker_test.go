package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	t.Run("EmptyInput", func(t *testing.T) {
		if chunks := Split("", 500); chunks != nil {
			t.Errorf("Expected nil for empty input, got %d chunks", len(chunks))
		}
		if chunks := Split("   \n\t  ", 500); chunks != nil {
			t.Errorf("Expected nil for whitespace-only input, got %d chunks", len(chunks))
		}
	})

	t.Run("SingleChunk", func(t *testing.T) {
		chunks := Split("one two three", 10)
		if len(chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(chunks))
		}
		if chunks[0] != "one two three" {
			t.Errorf("Unexpected chunk content: %q", chunks[0])
		}
	})

	t.Run("NormalizesWhitespace", func(t *testing.T) {
		chunks := Split("one\t\ttwo\n three  ", 10)
		if len(chunks) != 1 || chunks[0] != "one two three" {
			t.Errorf("Expected normalized chunk, got %v", chunks)
		}
	})

	t.Run("ExactBoundaries", func(t *testing.T) {
		// 1200 words at width 500 must yield 500/500/200.
		input := makeWords(1200)
		chunks := Split(input, 500)
		if len(chunks) != 3 {
			t.Fatalf("Expected 3 chunks, got %d", len(chunks))
		}
		for i, want := range []int{500, 500, 200} {
			if got := WordCount(chunks[i]); got != want {
				t.Errorf("Chunk %d: expected %d words, got %d", i, want, got)
			}
		}
	})

	t.Run("Reconstruction", func(t *testing.T) {
		for _, width := range []int{1, 3, 7, 100} {
			input := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
			chunks := Split(input, width)

			var rejoined []string
			for _, chunk := range chunks {
				words := strings.Fields(chunk)
				if len(words) > width {
					t.Errorf("Width %d: chunk exceeds limit with %d words", width, len(words))
				}
				rejoined = append(rejoined, words...)
			}
			if strings.Join(rejoined, " ") != input {
				t.Errorf("Width %d: reconstruction mismatch", width)
			}
		}
	})

	t.Run("OnlyLastChunkShort", func(t *testing.T) {
		chunks := Split(makeWords(17), 5)
		if len(chunks) != 4 {
			t.Fatalf("Expected 4 chunks, got %d", len(chunks))
		}
		for i := 0; i < len(chunks)-1; i++ {
			if WordCount(chunks[i]) != 5 {
				t.Errorf("Chunk %d should be full width, has %d words", i, WordCount(chunks[i]))
			}
		}
		if WordCount(chunks[3]) != 2 {
			t.Errorf("Last chunk should have 2 words, has %d", WordCount(chunks[3]))
		}
	})

	t.Run("InvalidWidth", func(t *testing.T) {
		if chunks := Split("some words here", 0); chunks != nil {
			t.Error("Expected nil for zero width")
		}
	})
}

func makeWords(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "w%d", i)
	}
	return sb.String()
}
