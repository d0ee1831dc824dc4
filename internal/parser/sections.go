package parser

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// sectionBuilder nests body text under the most recent heading, using heading
// levels to decide where each new section attaches.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []sectionEntry
	text  strings.Builder
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{
		root:  root,
		stack: []sectionEntry{{node: root, level: 0}},
	}
}

// heading opens a section at level (1 = top). Pending text is flushed first.
func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, sectionEntry{node: node, level: level})
}

// paragraph appends a block of body text to the current section.
func (b *sectionBuilder) paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// sections finishes the tree. Text found before any heading becomes a
// leading untitled section.
func (b *sectionBuilder) sections() []*doctree.DocNode {
	b.flush()
	children := b.root.Children
	if b.root.Text != "" {
		children = append([]*doctree.DocNode{{Text: b.root.Text}}, children...)
	}
	return children
}
