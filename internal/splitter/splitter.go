// Package splitter cuts extracted document text into overlapping chunks.
package splitter

import "strings"

// Boundary preference, highest first. A hard rune cut is the fallback.
var separators = []string{"\n\n", "\n", ". ", " "}

// Split cuts text into chunks of at most size runes, with overlap runes
// shared between consecutive chunks. Cuts prefer paragraph, line, sentence
// and word boundaries over hard rune cuts. Trailing text shorter than size
// is always kept as the final chunk.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	var out []string
	i := 0
	for i < len(runes) {
		end := i + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToBoundary(runes, i, end)
		}

		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= i {
			// Overlap would stall the scan; advance without it.
			next = end
		}
		i = next
	}
	return out
}

// snapToBoundary moves end back to the highest-priority separator inside the
// window, provided the chunk keeps at least half its target length.
func snapToBoundary(runes []rune, start, end int) int {
	window := string(runes[start:end])
	min := (end - start) / 2
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + len([]rune(window[:idx+len(sep)]))
		if cut-start >= min {
			return cut
		}
	}
	return end
}
