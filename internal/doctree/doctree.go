package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// PlainText flattens the tree in document order. Headings and section bodies
// become separate paragraphs so the chunker can keep them apart.
func (t *DocTree) PlainText() string {
	var parts []string
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if title := strings.TrimSpace(n.Title); title != "" {
				parts = append(parts, title)
			}
			if text := strings.TrimSpace(n.Text); text != "" {
				parts = append(parts, text)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return strings.Join(parts, "\n\n")
}

// Pages returns the highest page number seen in the tree, or 0.
func (t *DocTree) Pages() int {
	max := 0
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Page > max {
				max = n.Page
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return max
}
