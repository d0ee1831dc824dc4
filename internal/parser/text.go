package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// TextParser handles plain text files in any encoding charset detection
// recognizes; content is decoded to UTF-8 first.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	enc, _, _ := charset.DetermineEncoding(data, "text/plain")
	decoded := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}

	tree := &doctree.DocTree{
		Title: baseTitle(filename),
	}

	// Each paragraph becomes a child node.
	for _, para := range paragraphs {
		tree.Children = append(tree.Children, &doctree.DocNode{
			Text: para,
		})
	}

	return tree, nil
}
