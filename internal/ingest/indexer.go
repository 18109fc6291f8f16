package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
	"github.com/upb/rag-chat/services/providers"
	"go.uber.org/zap"
)

// MetadataChunk is the metadata key holding a chunk's position in its file.
const MetadataChunk = "chunk"

// DefaultBatchSize is the number of chunks written per Upsert call.
const DefaultBatchSize = 32

// ProgressFunc is called after each chunk is embedded.
type ProgressFunc func(done, total int)

// Stats summarizes one indexing run.
type Stats struct {
	Files    int
	Skipped  int
	Chunks   int
	Duration time.Duration
}

// Indexer embeds file chunks and writes them to a vector index.
type Indexer struct {
	embedder  providers.Embedder
	index     repositories.VectorIndex
	chunker   *ParagraphChunker
	batchSize int
	logger    *zap.Logger
}

// NewIndexer creates a new indexer
func NewIndexer(embedder providers.Embedder, index repositories.VectorIndex, chunker *ParagraphChunker, batchSize int, logger *zap.Logger) *Indexer {
	if chunker == nil {
		chunker = NewParagraphChunker(DefaultMaxChunkChars)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		embedder:  embedder,
		index:     index,
		chunker:   chunker,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IndexFiles chunks, embeds and upserts every file in paths.
// Unreadable files are skipped; embedding or write failures abort the run.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string, progress ProgressFunc) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	var chunks []Chunk
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			ix.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			stats.Skipped++
			continue
		}
		fileChunks := ix.chunker.Chunk(path, string(content))
		if len(fileChunks) == 0 {
			stats.Skipped++
			continue
		}
		chunks = append(chunks, fileChunks...)
		stats.Files++
	}

	batch := make([]models.IndexedDocument, 0, ix.batchSize)
	schemaReady := false
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if !schemaReady {
			if initializer, ok := ix.index.(repositories.SchemaInitializer); ok {
				if err := initializer.EnsureSchema(ctx, len(batch[0].Vector)); err != nil {
					return fmt.Errorf("failed to prepare index: %w", err)
				}
			}
			schemaReady = true
		}
		if err := ix.index.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("failed to write chunks: %w", err)
		}
		stats.Chunks += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		vector, err := ix.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return stats, fmt.Errorf("failed to embed %s chunk %d: %w", chunk.Source, chunk.Index, err)
		}

		batch = append(batch, models.NewIndexedDocument(chunk.ID, chunk.Text, map[string]any{
			models.MetadataSource: chunk.Source,
			MetadataChunk:         chunk.Index,
		}, vector))
		if len(batch) >= ix.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}

		if progress != nil {
			progress(i+1, len(chunks))
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	ix.logger.Info("indexing complete",
		zap.Int("files", stats.Files),
		zap.Int("skipped", stats.Skipped),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}
