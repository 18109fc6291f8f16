package repositories

import (
	"context"
	"errors"

	"github.com/upb/rag-chat/models"
)

// ErrDimensionMismatch is returned when a vector's length differs from the stored vectors
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorIndex stores embedded documents and answers nearest-neighbour queries
type VectorIndex interface {
	// SimilaritySearch returns at most k documents ordered by descending Score.
	// An empty or missing collection yields an empty slice and no error.
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]models.Document, error)

	// Upsert inserts documents or replaces existing ones with the same ID
	Upsert(ctx context.Context, docs []models.IndexedDocument) error

	// Count returns the number of documents in the collection
	Count(ctx context.Context) (int, error)

	// Close releases the underlying handle
	Close() error
}

// SchemaInitializer is implemented by indexes that need their storage created
// before the first write
type SchemaInitializer interface {
	EnsureSchema(ctx context.Context, dimension int) error
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// InTransaction executes a function within a transaction.
	// Commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
