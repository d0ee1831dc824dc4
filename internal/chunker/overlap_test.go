package chunker

import (
	"testing"
	"unicode/utf8"
)

func TestOverlapSuffix(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"word boundary in first half", "the quick brown fox", 11, "brown fox"},
		{"whitespace only in second half", "the quick brown fox", 9, "brown fox"},
		{"no whitespace", "abcdefgh", 3, "fgh"},
		{"window wider than text", "ab cd", 10, "ab cd"},
		{"window wider than text, early space", "a bcd", 10, "bcd"},
		{"zero size", "anything", 0, ""},
		{"empty text", "", 5, ""},
		{"multibyte", "na\u00efve caf\u00e9", 6, "caf\u00e9"},
		{"consecutive spaces trimmed", "one  two", 5, "two"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OverlapSuffix(tc.text, tc.n); got != tc.want {
				t.Errorf("OverlapSuffix(%q, %d) = %q, want %q", tc.text, tc.n, got, tc.want)
			}
		})
	}
}

func TestInjectOverlap(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		n         int
		want      []string
	}{
		{
			name:      "word trimmed overlap",
			fragments: []string{"alpha beta", "gamma"},
			n:         6,
			want:      []string{"alpha beta", "beta gamma"},
		},
		{
			name:      "raw overlap gives up a char for the separator",
			fragments: []string{"xx abcdef", "next"},
			n:         4,
			want:      []string{"xx abcdef", "def next"},
		},
		{
			name:      "single word fragment keeps the separator",
			fragments: []string{"abcdefghij", "klm"},
			n:         4,
			want:      []string{"abcdefghij", "hij klm"},
		},
		{
			name:      "overlap always from the pre-overlap fragment",
			fragments: []string{"one two", "three four", "five"},
			n:         5,
			want:      []string{"one two", "two three four", "four five"},
		},
		{
			name:      "zero overlap",
			fragments: []string{"a b", "c d"},
			n:         0,
			want:      []string{"a b", "c d"},
		},
		{
			name:      "single fragment",
			fragments: []string{"only"},
			n:         3,
			want:      []string{"only"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := InjectOverlap(tc.fragments, tc.n)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d fragments, got %d: %q", len(tc.want), len(got), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("fragment %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestInjectOverlapUnits(t *testing.T) {
	tests := []struct {
		name  string
		units []Unit
		n     int
		want  []string
	}{
		{
			name:  "adjacent run rejoins without a gap",
			units: []Unit{{Text: "abcdefghij"}, {Sep: "", Text: "klmno"}},
			n:     3,
			want:  []string{"abcdefghij", "hijklmno"},
		},
		{
			name:  "word after a word",
			units: []Unit{{Text: "abcdefghij"}, {Sep: " ", Text: "klm"}},
			n:     4,
			want:  []string{"abcdefghij", "hij klm"},
		},
		{
			name:  "heading paragraph before body",
			units: []Unit{{Text: "Introduction"}, {Sep: "\n\n", Text: "The body follows."}},
			n:     6,
			want:  []string{"Introduction", "ction The body follows."},
		},
		{
			name:  "mixed boundaries",
			units: []Unit{{Text: "ab"}, {Sep: " ", Text: "abcdefghij"}, {Sep: "", Text: "klmno"}},
			n:     3,
			want:  []string{"ab", "ab abcdefghij", "hijklmno"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := InjectOverlapUnits(tc.units, tc.n)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d fragments, got %d: %q", len(tc.want), len(got), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("fragment %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestInjectOverlap_DoesNotMutateInput(t *testing.T) {
	in := []string{"first part here", "second part"}
	_ = InjectOverlap(in, 6)
	if in[1] != "second part" {
		t.Errorf("expected input untouched, got %q", in[1])
	}
}

func TestInjectOverlap_PrefixCostBounded(t *testing.T) {
	fragments := []string{"aaaa bbbb cccc", "dddd eeee", "ffffffffff", "gg hh"}
	for n := 1; n < 12; n++ {
		got := InjectOverlap(fragments, n)
		for i := 1; i < len(got); i++ {
			added := utf8.RuneCountInString(got[i]) - utf8.RuneCountInString(fragments[i])
			if added > n {
				t.Errorf("n=%d fragment %d: overlap added %d chars", n, i, added)
			}
		}
	}
}
