package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/upb/rag-chat/internal/ingest"
	"github.com/upb/rag-chat/utils"
)

type indexOptions struct {
	Patterns   []string `validate:"min=1"`
	BatchSize  int      `validate:"gt=0,lte=512"`
	MaxChars   int      `validate:"gt=0,lte=100000"`
	NoProgress bool
}

func newIndexCmd(load dependencyLoader) *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index <glob>...",
		Short: "Index text files for retrieval",
		Long: `Split matching files into paragraph chunks, embed each chunk and write it
to the configured vector index with its file path as the source.

Patterns support ** (doublestar). Re-indexing a file overwrites its chunks.

Examples:
  ragctl index notes.txt
  ragctl index "docs/**/*.md" "faq/*.txt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Patterns = args
			return runIndex(cmd, load, opts)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", ingest.DefaultBatchSize, "Chunks written per index call")
	cmd.Flags().IntVar(&opts.MaxChars, "max-chars", ingest.DefaultMaxChunkChars, "Maximum characters per chunk")
	cmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func runIndex(cmd *cobra.Command, load dependencyLoader, opts *indexOptions) error {
	if err := utils.ValidateStruct(opts); err != nil {
		if utils.IsValidationError(err) {
			return fmt.Errorf("invalid options: %s", formatFieldErrors(utils.GetValidationFields(err)))
		}
		return fmt.Errorf("invalid options: %w", err)
	}

	paths, err := ingest.ExpandPatterns(opts.Patterns)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %v", opts.Patterns)
	}

	ctx := cmd.Context()
	deps, err := load(ctx)
	if err != nil {
		return err
	}
	defer deps.Close(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexing %d files into %s...\n", len(paths), deps.Config.VectorStore.CollectionName)

	var progress ingest.ProgressFunc
	if !opts.NoProgress {
		progress = newProgress(out)
	}

	indexer := ingest.NewIndexer(deps.Embedder, deps.Index,
		ingest.NewParagraphChunker(opts.MaxChars), opts.BatchSize, deps.Logger)
	stats, err := indexer.IndexFiles(ctx, paths, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Files indexed:  %d\n", stats.Files)
	fmt.Fprintf(out, "  Files skipped:  %d\n", stats.Skipped)
	fmt.Fprintf(out, "  Chunks written: %d\n", stats.Chunks)
	fmt.Fprintf(out, "  Duration:       %s\n", stats.Duration.Round(time.Millisecond))

	return nil
}

// formatFieldErrors joins field messages in field order so output is stable
func formatFieldErrors(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	messages := make([]string, len(names))
	for i, name := range names {
		messages[i] = fields[name]
	}
	return strings.Join(messages, "; ")
}

// newProgress draws a bar sized on the first callback, once the chunk total is known
func newProgress(out io.Writer) ingest.ProgressFunc {
	var (
		bar *progressbar.ProgressBar
		mu  sync.Mutex
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}
		_ = bar.Set(done)
	}
}
