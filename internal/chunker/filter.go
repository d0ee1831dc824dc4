package chunker

import "unicode/utf8"

// Filter drops fragments shorter than minChunkSize characters. If every
// fragment would be dropped, the longest one (the first on ties) is kept so
// non-empty input never filters down to nothing.
func Filter(fragments []string, minChunkSize int) []string {
	if len(fragments) == 0 {
		return []string{}
	}

	kept := make([]string, 0, len(fragments))
	longest, longestLen := 0, -1
	for i, f := range fragments {
		n := utf8.RuneCountInString(f)
		if n > longestLen {
			longest, longestLen = i, n
		}
		if n >= minChunkSize {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return []string{fragments[longest]}
	}
	return kept
}
