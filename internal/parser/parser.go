package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/gabriel-vasile/mimetype"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename. When the extension
// is missing or unknown, the leading bytes of the content are sniffed instead.
func ForFile(filename string, head []byte, opts Options) (Parser, error) {
	ext := DetectExtension(filename, head)
	switch ext {
	case ".txt", ".text":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}
}

// DetectExtension resolves the effective extension of a document.
func DetectExtension(filename string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if SupportedExtensions[ext] || len(head) == 0 {
		return ext
	}
	return mimetype.Detect(head).Extension()
}

// IsSupported reports whether a document can be parsed.
func IsSupported(filename string, head []byte) bool {
	return SupportedExtensions[DetectExtension(filename, head)]
}

// baseTitle strips the extension from a filename for use as a title.
func baseTitle(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
