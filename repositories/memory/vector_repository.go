package memory

import (
	"context"
	"sync"

	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
)

// VectorRepository is an in-process VectorIndex. It is used by tests and by
// deployments that seed the index at startup.
type VectorRepository struct {
	mu   sync.RWMutex
	docs map[string]models.IndexedDocument
}

// NewVectorRepository creates an empty in-memory index
func NewVectorRepository() *VectorRepository {
	return &VectorRepository{
		docs: make(map[string]models.IndexedDocument),
	}
}

// SimilaritySearch returns the k documents most similar to vector
func (r *VectorRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	candidates := make([]models.IndexedDocument, 0, len(r.docs))
	for _, d := range r.docs {
		candidates = append(candidates, d)
	}
	r.mu.RUnlock()

	return repositories.ScoreAll(vector, candidates, k)
}

// Upsert inserts or replaces docs
func (r *VectorRepository) Upsert(ctx context.Context, docs []models.IndexedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return nil
}

// Count returns the number of stored documents
func (r *VectorRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs), nil
}

// Close is a no-op
func (r *VectorRepository) Close() error {
	return nil
}
