package cli

import (
	"fmt"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/spf13/cobra"
)

// options holds flags shared by every subcommand.
type options struct {
	envFile string

	maxChunkSize int
	overlapSize  int
	minChunkSize int

	// resolved in PersistentPreRunE
	cfg      config.Config
	chunkCfg chunker.Config
}

// NewRootCmd builds the docchunk command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	defaults := chunker.DefaultConfig()

	root := &cobra.Command{
		Use:   "docchunk",
		Short: "Split documents into overlapping chunks for embedding",
		Long: `docchunk parses local documents (text, Markdown, HTML, CSV, PDF, DOCX)
and splits them into bounded, overlapping chunks ready for embedding.

Chunk sizes default to CHUNK_MAX_SIZE, CHUNK_OVERLAP and CHUNK_MIN_SIZE from
the environment (or --env-file) and can be overridden per run.

Example usage:
  docchunk split notes.md                      # Chunk one file
  docchunk split docs/ --max 1000 --overlap 100
  docchunk split . --include "**/*.md" -o yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := config.LoadDotEnv(opts.envFile); err != nil {
					return err
				}
			}
			opts.cfg = config.Load()

			opts.chunkCfg = opts.cfg.ChunkConfig()
			flags := cmd.Flags()
			if flags.Changed("max") {
				opts.chunkCfg.MaxChunkSize = opts.maxChunkSize
			}
			if flags.Changed("overlap") {
				opts.chunkCfg.OverlapSize = opts.overlapSize
			}
			if flags.Changed("min") {
				opts.chunkCfg.MinChunkSize = opts.minChunkSize
			}
			if err := opts.chunkCfg.Validate(); err != nil {
				return fmt.Errorf("invalid chunk settings: %w", err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")
	pf.IntVar(&opts.maxChunkSize, "max", defaults.MaxChunkSize, "maximum chunk size in characters, before overlap")
	pf.IntVar(&opts.overlapSize, "overlap", defaults.OverlapSize, "characters of trailing context carried into the next chunk")
	pf.IntVar(&opts.minChunkSize, "min", defaults.MinChunkSize, "drop chunks shorter than this many characters")

	root.AddCommand(newSplitCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
