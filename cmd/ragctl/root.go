package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/upb/rag-chat/app"
	"github.com/upb/rag-chat/config"
	"github.com/upb/rag-chat/internal/observability"
)

// dependencyLoader builds the wiring shared with rag-server
type dependencyLoader func(ctx context.Context) (*app.Dependencies, error)

// loadDependencies reads the environment the same way rag-server does
func loadDependencies(ctx context.Context) (*app.Dependencies, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return app.NewDependencies(ctx, cfg, logger)
}

func newRootCmd(out io.Writer, load dependencyLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Index documents and ask questions against the RAG index",
		Long: `ragctl seeds the vector index used by rag-server and runs single
questions through the same answer pipeline.

Configuration comes from the environment (and .env), exactly as for rag-server.

Example usage:
  ragctl index "docs/**/*.md"      # Chunk, embed and store matching files
  ragctl ask "What is the refund policy?"`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(newIndexCmd(load))
	rootCmd.AddCommand(newAskCmd(load))

	return rootCmd
}
