package rag

import (
	"context"
	"errors"

	"github.com/upb/rag-chat/models"
)

// DefaultTopK is the number of documents retrieved per question
const DefaultTopK = 5

// ErrRetrievalUnavailable wraps every failure of the embedder or the vector index
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Retriever fetches relevant context from a knowledge base.
type Retriever interface {
	// Retrieve returns at most TopK documents ordered by descending relevance.
	// No match is an empty slice, not an error.
	Retrieve(ctx context.Context, query string) ([]models.Document, error)
}

// RetrievalOptions configures retrieval behavior.
type RetrievalOptions struct {
	TopK int
	// MinScore drops documents scoring below it. Zero disables the threshold.
	MinScore float64
}

// DefaultRetrievalOptions returns TopK 5 with no threshold
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{TopK: DefaultTopK}
}
