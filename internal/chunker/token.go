package chunker

import "unicode/utf8"

// CharsPerToken is the rough characters-per-token ratio used for estimates.
const CharsPerToken = 4

// EstimateTokens gives a rough token count using the ~4 chars/token heuristic.
// Chunk sizes are configured in characters; this is for reporting only.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}
