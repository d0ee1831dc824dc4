package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// Split breaks text into fragments of at most maxChunkSize characters without
// dropping content. It packs paragraphs greedily and only descends to
// sentences, words and finally characters for a unit that does not fit on its
// own. Text that already fits is returned as a single fragment.
func Split(text string, maxChunkSize int) []string {
	units := SplitUnits(text, maxChunkSize)
	if units == nil {
		return nil
	}
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

// SplitUnits is Split keeping, for each fragment, the source text that
// separated it from the fragment before. An empty Sep means the two fragments
// were adjacent in the source, which only happens when a run without
// whitespace is cut at character level. The first fragment's Sep is "".
func SplitUnits(text string, maxChunkSize int) []Unit {
	if maxChunkSize <= 0 {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChunkSize {
		return []Unit{{Text: text}}
	}

	units := splitSpan(text, Paragraph, maxChunkSize)
	if len(units) > 0 {
		units[0].Sep = ""
	}
	return units
}

// splitSpan packs the units of span at granularity g. Each returned piece
// keeps the separator that preceded it so the caller can re-pack it.
func splitSpan(span string, g Granularity, maxChunkSize int) []Unit {
	p := packer{max: maxChunkSize}
	for u := range Units(g, span) {
		if utf8.RuneCountInString(u.Text) <= maxChunkSize {
			p = p.push(u)
			continue
		}

		var subs []Unit
		if g == Character {
			// A single grapheme cluster longer than the limit.
			subs = pack(codePoints(u.Text), maxChunkSize)
		} else {
			subs = splitSpan(u.Text, g.Finer(), maxChunkSize)
		}
		if len(subs) > 0 {
			subs[0].Sep = u.Sep + subs[0].Sep
		}
		for _, s := range subs {
			p = p.push(s)
		}
	}
	return p.flush().out
}

func pack(units iter.Seq[Unit], maxChunkSize int) []Unit {
	p := packer{max: maxChunkSize}
	for u := range units {
		p = p.push(u)
	}
	return p.flush().out
}

// packer is the fold state for greedy packing. It is passed and returned by
// value; parts and out are only ever appended to on the latest copy.
type packer struct {
	max   int
	out   []Unit
	sep   string   // separator that preceded the current buffer
	parts []string // current buffer, as separator/text pairs
	n     int      // buffer length in characters
}

func (p packer) push(u Unit) packer {
	n := utf8.RuneCountInString(u.Text)
	if len(p.parts) == 0 {
		p.sep = u.Sep
		p.parts = []string{u.Text}
		p.n = n
		return p
	}
	sepLen := utf8.RuneCountInString(u.Sep)
	if p.n+sepLen+n <= p.max {
		p.parts = append(p.parts, u.Sep, u.Text)
		p.n += sepLen + n
		return p
	}
	return p.flush().push(u)
}

func (p packer) flush() packer {
	if text := strings.TrimSpace(strings.Join(p.parts, "")); text != "" {
		p.out = append(p.out, Unit{Sep: p.sep, Text: text})
	}
	p.sep = ""
	p.parts = nil
	p.n = 0
	return p
}
