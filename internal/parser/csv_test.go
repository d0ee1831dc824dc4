package parser

import (
	"strings"
	"testing"
)

func TestCSVParser_RowsBecomeParagraphs(t *testing.T) {
	input := "name,role,team\nAda,engineer,core\nGrace,admiral,\nLin,analyst,data,extra\n"
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "people" {
		t.Errorf("expected title %q, got %q", "people", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	sec := tree.Children[0]
	if sec.Title != "Columns: name, role, team" {
		t.Errorf("unexpected section title %q", sec.Title)
	}
	want := "name: Ada, role: engineer, team: core\n\n" +
		"name: Grace, role: admiral\n\n" +
		"name: Lin, role: analyst, team: data, extra"
	if sec.Text != want {
		t.Errorf("expected %q, got %q", want, sec.Text)
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader("a,b,c\n"), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no sections, got %d", len(tree.Children))
	}
}
