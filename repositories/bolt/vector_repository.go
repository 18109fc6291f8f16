package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// VectorRepository is a file-backed VectorIndex. Each collection is a bucket whose values
// are JSON-encoded documents keyed by ID. Search is brute-force cosine similarity.
type VectorRepository struct {
	db         *bbolt.DB
	collection []byte
	logger     *zap.Logger
}

type storedDocument struct {
	Content  string         `json:"c"`
	Metadata map[string]any `json:"m,omitempty"`
	Vector   []float32      `json:"v"`
}

// Open opens (or creates) the index file at path. The collection bucket is created lazily
// on the first Upsert; until then a missing bucket reads as an empty index.
func Open(path, collection string, logger *zap.Logger) (*VectorRepository, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	logger.Info("bolt vector index opened",
		zap.String("path", path),
		zap.String("collection", collection))

	return &VectorRepository{
		db:         db,
		collection: []byte(collection),
		logger:     logger,
	}, nil
}

// SimilaritySearch returns the k documents most similar to vector
func (r *VectorRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []models.IndexedDocument
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.collection)
		if b == nil {
			return nil
		}
		return b.ForEach(func(key, value []byte) error {
			var stored storedDocument
			if err := json.Unmarshal(value, &stored); err != nil {
				r.logger.Warn("skipping corrupted index entry", zap.ByteString("id", key), zap.Error(err))
				return nil
			}
			candidates = append(candidates, models.IndexedDocument{
				Document: models.Document{
					ID:       string(key),
					Content:  stored.Content,
					Metadata: stored.Metadata,
				},
				Vector: stored.Vector,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	if len(candidates) == 0 {
		return []models.Document{}, nil
	}

	return repositories.ScoreAll(vector, candidates, k)
}

// Upsert writes docs in a single transaction
func (r *VectorRepository) Upsert(ctx context.Context, docs []models.IndexedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(r.collection)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", r.collection, err)
		}

		for _, doc := range docs {
			data, err := json.Marshal(storedDocument{
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Vector:   doc.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	r.logger.Debug("documents upserted", zap.Int("count", len(docs)))
	return nil
}

// Count returns the number of documents in the collection
func (r *VectorRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := r.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(r.collection); b != nil {
			count = b.Stats().KeyN
		}
		return nil
	})
	return count, err
}

// Close closes the index file
func (r *VectorRepository) Close() error {
	r.logger.Info("closing bolt vector index")
	return r.db.Close()
}
