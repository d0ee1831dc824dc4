package doctree

import "testing"

func TestPlainText_DocumentOrder(t *testing.T) {
	tree := &DocTree{
		Title: "Doc",
		Children: []*DocNode{
			{
				Title: "Chapter 1",
				Text:  "Intro.",
				Children: []*DocNode{
					{Title: "Section 1.1", Text: "  Body one.  "},
				},
			},
			{Text: "Loose text."},
			{Title: "Empty"},
		},
	}
	want := "Chapter 1\n\nIntro.\n\nSection 1.1\n\nBody one.\n\nLoose text.\n\nEmpty"
	if got := tree.PlainText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlainText_EmptyTree(t *testing.T) {
	tree := &DocTree{Title: "Nothing"}
	if got := tree.PlainText(); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestPages(t *testing.T) {
	tree := &DocTree{Children: []*DocNode{
		{Page: 1},
		{Page: 3, Children: []*DocNode{{Page: 7}}},
	}}
	if got := tree.Pages(); got != 7 {
		t.Errorf("expected 7 pages, got %d", got)
	}
}
