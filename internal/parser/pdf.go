package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

var errNoPDFText = errors.New("no extractable text")

// PDFParser handles PDF files. Text comes from ledongthuc/pdf; when that
// fails or finds nothing and FallbackPdftotext is set, pdftotext is tried.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages, err := pdfPages(data)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	// Pages are untitled so page labels never leak into chunk text.
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}

// pdfPages returns the plain text of every page, index i holding page i+1.
// Unreadable pages are left empty.
func pdfPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages := make([]string, reader.NumPage())
	found := false
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
		if strings.TrimSpace(text) != "" {
			found = true
		}
	}
	if !found {
		return nil, errNoPDFText
	}
	return pages, nil
}

// pdftotextPages shells out to pdftotext, which needs a file on disk. Its
// output separates pages with form feeds.
func pdftotextPages(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "docchunk-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}
