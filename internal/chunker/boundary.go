package chunker

import (
	"iter"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Granularity is the structural level at which a span is split, ordered from
// coarsest to finest.
type Granularity int

const (
	Paragraph Granularity = iota
	Sentence
	Word
	Character
)

func (g Granularity) String() string {
	switch g {
	case Paragraph:
		return "paragraph"
	case Sentence:
		return "sentence"
	case Word:
		return "word"
	case Character:
		return "character"
	}
	return "unknown"
}

// Finer returns the next finer granularity. Character is terminal and
// returns itself.
func (g Granularity) Finer() Granularity {
	if g >= Character {
		return Character
	}
	return g + 1
}

// Unit is one candidate piece of a span together with the separator that
// preceded it. Concatenating Sep+Text over all units of a span reproduces
// the span, apart from trailing whitespace.
type Unit struct {
	Sep  string
	Text string
}

// A paragraph break is two or more newlines; blank lines may carry
// horizontal whitespace, and indentation around the break goes with it.
var paragraphBreak = regexp.MustCompile(`[ \t]*\n(?:[ \t]*\n)+[ \t]*`)

// Units enumerates the units of span at granularity g. The sequence is lazy;
// ranging over it again rescans the span.
func Units(g Granularity, span string) iter.Seq[Unit] {
	switch g {
	case Paragraph:
		return paragraphs(span)
	case Sentence:
		return sentences(span)
	case Word:
		return words(span)
	default:
		return graphemes(span)
	}
}

func paragraphs(span string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		sep := ""
		rest := span
		for rest != "" {
			loc := paragraphBreak.FindStringIndex(rest)
			if loc == nil {
				yield(Unit{Sep: sep, Text: rest})
				return
			}
			if loc[0] > 0 {
				if !yield(Unit{Sep: sep, Text: rest[:loc[0]]}) {
					return
				}
				sep = rest[loc[0]:loc[1]]
			} else {
				// Break at the very start: fold it into the pending separator.
				sep += rest[loc[0]:loc[1]]
			}
			rest = rest[loc[1]:]
		}
	}
}

func sentences(span string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		sep := ""
		start := 0
		for i, r := range span {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			end := i + utf8.RuneLen(r)
			if end >= len(span) {
				continue
			}
			next, _ := utf8.DecodeRuneInString(span[end:])
			if !unicode.IsSpace(next) {
				continue
			}
			if !yield(Unit{Sep: sep, Text: span[start:end]}) {
				return
			}
			ws := skipSpace(span, end)
			sep = span[end:ws]
			start = ws
		}
		if start < len(span) {
			yield(Unit{Sep: sep, Text: span[start:]})
		}
	}
}

func words(span string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		i := 0
		for i < len(span) {
			ws := skipSpace(span, i)
			if ws >= len(span) {
				return
			}
			end := ws
			for end < len(span) {
				r, size := utf8.DecodeRuneInString(span[end:])
				if unicode.IsSpace(r) {
					break
				}
				end += size
			}
			if !yield(Unit{Sep: span[i:ws], Text: span[ws:end]}) {
				return
			}
			i = end
		}
	}
}

// graphemes yields one extended grapheme cluster per unit so that combining
// marks, flags and emoji sequences are never bisected.
func graphemes(span string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		rest := span
		state := -1
		var cluster string
		for rest != "" {
			cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
			if !yield(Unit{Text: cluster}) {
				return
			}
		}
	}
}

// codePoints yields one code point per unit. It backs Character granularity
// for the rare grapheme cluster that is longer than the chunk size.
func codePoints(span string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for i := 0; i < len(span); {
			_, size := utf8.DecodeRuneInString(span[i:])
			if !yield(Unit{Text: span[i : i+size]}) {
				return
			}
			i += size
		}
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}
