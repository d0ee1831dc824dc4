package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// InjectOverlap prefixes every fragment after the first with trailing context
// from the fragment before it. The result may exceed the original size bound
// by at most overlapSize characters. The input slice is not modified.
//
// Plain strings carry no source separators, so every boundary is treated as
// a break and joined with a space. Use InjectOverlapUnits on the output of
// SplitUnits to re-join runs that were cut mid-word.
func InjectOverlap(fragments []string, overlapSize int) []string {
	units := make([]Unit, len(fragments))
	for i, f := range fragments {
		units[i] = Unit{Sep: " ", Text: f}
	}
	return InjectOverlapUnits(units, overlapSize)
}

// InjectOverlapUnits is InjectOverlap for fragments that know their source
// separator. Overlap is joined with a space where the source had a separator
// and with nothing where the fragments were adjacent.
func InjectOverlapUnits(units []Unit, overlapSize int) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	if overlapSize <= 0 {
		return out
	}
	for i := 1; i < len(units); i++ {
		out[i] = withOverlap(units[i-1].Text, units[i], overlapSize)
	}
	return out
}

func withOverlap(prev string, next Unit, n int) string {
	overlap := OverlapSuffix(prev, n)
	if overlap == "" {
		return next.Text
	}
	if next.Sep == "" {
		return overlap + next.Text
	}
	if utf8.RuneCountInString(overlap)+1 > n {
		_, size := utf8.DecodeRuneInString(overlap)
		overlap = strings.TrimLeftFunc(overlap[size:], unicode.IsSpace)
		if overlap == "" {
			return next.Text
		}
	}
	return overlap + " " + next.Text
}

// OverlapSuffix returns the trailing n characters of text. When the first half
// of that window holds whitespace, everything up to and including it is cut so
// the overlap starts on a word. Otherwise the raw window is returned.
func OverlapSuffix(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	window := []rune(text)
	if len(window) > n {
		window = window[len(window)-n:]
	}
	half := len(window) / 2
	for i := 0; i < half; i++ {
		if unicode.IsSpace(window[i]) {
			return strings.TrimLeftFunc(string(window[i+1:]), unicode.IsSpace)
		}
	}
	return string(window)
}
