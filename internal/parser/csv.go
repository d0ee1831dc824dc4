package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// CSVParser handles CSV files. Each data row becomes one paragraph of
// "header: value" pairs so the chunker packs whole rows together.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	rows := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if line := csvRowText(headers, row); line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return tree, nil
	}

	tree.Children = []*doctree.DocNode{{
		Title: "Columns: " + strings.Join(headers, ", "),
		Text:  strings.Join(rows, "\n\n"),
	}}
	return tree, nil
}

func csvRowText(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for j, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if j < len(headers) && headers[j] != "" {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}
