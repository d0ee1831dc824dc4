package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type fileResult struct {
	Path   string     `json:"path" yaml:"path"`
	Title  string     `json:"title,omitempty" yaml:"title,omitempty"`
	Chunks []chunkOut `json:"chunks" yaml:"chunks"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

type chunkOut struct {
	Index  int    `json:"index" yaml:"index"`
	Chars  int    `json:"chars" yaml:"chars"`
	Tokens int    `json:"tokens" yaml:"tokens"`
	Text   string `json:"text" yaml:"text"`
}

type splitOptions struct {
	includes []string
	excludes []string
	format   string
	progress bool
}

func newSplitCmd(opts *options) *cobra.Command {
	so := &splitOptions{}
	cmd := &cobra.Command{
		Use:   "split [paths...]",
		Short: "Chunk local files and print the result",
		Long: `Parse each file (or every matching file under each directory) and print
its chunks as JSON or YAML. Files that fail to parse are reported inline and
do not stop the run.

Examples:
  docchunk split report.pdf
  docchunk split docs/ --exclude "drafts/**"
  docchunk split . --include "**/*.md" --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, opts, so, args)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&so.includes, "include", defaultIncludes, "doublestar patterns of files to include when walking directories")
	f.StringSliceVar(&so.excludes, "exclude", defaultExcludes, "doublestar patterns of files or directories to skip")
	f.StringVarP(&so.format, "format", "o", "json", "output format: json or yaml")
	f.BoolVar(&so.progress, "progress", false, "show a progress bar on stderr")
	return cmd
}

func runSplit(cmd *cobra.Command, opts *options, so *splitOptions, args []string) error {
	if so.format != "json" && so.format != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", so.format)
	}

	files, err := newWalker(so.includes, so.excludes).collect(args)
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no matching files in %v", args)
	}

	var bar *progressbar.ProgressBar
	if so.progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Chunking"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
	}

	parserOpts := parser.Options{PDFFallbackPdftotext: opts.cfg.PDFFallbackPdftotext}
	results := make([]fileResult, 0, len(files))
	for _, path := range files {
		results = append(results, chunkFile(path, opts.chunkCfg, parserOpts))
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	return writeResults(cmd.OutOrStdout(), so.format, results)
}

func chunkFile(path string, cfg chunker.Config, parserOpts parser.Options) fileResult {
	res := fileResult{Path: path, Chunks: []chunkOut{}}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	name := filepath.Base(path)
	p, err := parser.ForFile(name, data[:min(len(data), 3072)], parserOpts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	tree, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Title = tree.Title

	chunks, err := chunker.Chunk(tree.PlainText(), cfg)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	for i, c := range chunks {
		res.Chunks = append(res.Chunks, chunkOut{
			Index:  i,
			Chars:  utf8.RuneCountInString(c),
			Tokens: chunker.EstimateTokens(c),
			Text:   c,
		})
	}
	return res
}

func writeResults(w io.Writer, format string, results []fileResult) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
