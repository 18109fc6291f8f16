package rag

import (
	"context"
	"fmt"

	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
	"github.com/upb/rag-chat/services/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/upb/rag-chat/internal/rag")

// VectorRetriever embeds the query and searches a VectorIndex
type VectorRetriever struct {
	embedder providers.Embedder
	index    repositories.VectorIndex
	opts     RetrievalOptions
	logger   *zap.Logger
}

// NewVectorRetriever creates a retriever. A non-positive TopK falls back to DefaultTopK.
func NewVectorRetriever(embedder providers.Embedder, index repositories.VectorIndex, opts RetrievalOptions, logger *zap.Logger) *VectorRetriever {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &VectorRetriever{
		embedder: embedder,
		index:    index,
		opts:     opts,
		logger:   logger,
	}
}

// TopK returns the configured retrieval depth
func (r *VectorRetriever) TopK() int {
	return r.opts.TopK
}

// Retrieve returns the documents most relevant to query
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]models.Document, error) {
	ctx, span := tracer.Start(ctx, "rag.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("rag.top_k", r.opts.TopK))

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, fmt.Errorf("%w: embed query with %s: %w", ErrRetrievalUnavailable, r.embedder.Name(), err)
	}

	docs, err := r.index.SimilaritySearch(ctx, vector, r.opts.TopK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "similarity search failed")
		return nil, fmt.Errorf("%w: similarity search: %w", ErrRetrievalUnavailable, err)
	}

	results := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if r.opts.MinScore > 0 && doc.Score < r.opts.MinScore {
			continue
		}
		results = append(results, doc)
		if len(results) == r.opts.TopK {
			break
		}
	}

	span.SetAttributes(attribute.Int("rag.documents", len(results)))
	r.logger.Debug("documents retrieved",
		zap.Int("candidates", len(docs)),
		zap.Int("documents", len(results)))

	return results, nil
}
