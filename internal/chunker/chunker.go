// Package chunker splits input text into bounded word-count segments for
// context-limited completion backends.
package chunker

import "strings"

// Split breaks text into chunks of at most maxWords whitespace-delimited
// words each, preserving word order. Words within a chunk are rejoined with
// single spaces, so concatenating the words of all chunks reproduces the
// original word sequence exactly. Empty or whitespace-only input yields nil.
func Split(text string, maxWords int) []string {
	if maxWords <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}

// WordCount returns the number of whitespace-delimited words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
