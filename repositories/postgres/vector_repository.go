package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
	"go.uber.org/zap"
)

// pgUndefinedTable is the SQLSTATE for a missing relation
const pgUndefinedTable = "42P01"

// VectorRepository implements repositories.VectorIndex on PostgreSQL with pgvector.
// Similarity is 1 - cosine distance (the <=> operator).
type VectorRepository struct {
	db         *DB
	tx         repositories.TransactionManager
	collection string
	logger     *zap.Logger
}

// NewVectorRepository creates a new pgvector-backed index for collection
func NewVectorRepository(db *DB, collection string, logger *zap.Logger) *VectorRepository {
	return &VectorRepository{
		db:         db,
		tx:         NewTransactionManager(db, logger),
		collection: collection,
		logger:     logger,
	}
}

// EnsureSchema creates the documents table. The embedding column is
// untyped so dimension is not enforced here.
func (r *VectorRepository) EnsureSchema(ctx context.Context, dimension int) error {
	return r.db.EnsureSchema(ctx)
}

// SimilaritySearch returns the k nearest documents in the collection
func (r *VectorRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		WHERE collection = $2
		ORDER BY embedding <=> $1::vector, id
		LIMIT $3
	`, models.Document{}.TableName())

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, vectorLiteral(vector), r.collection, k)
	if err != nil {
		if isUndefinedTable(err) {
			r.logger.Debug("vector table missing, treating index as empty")
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0, k)
	for rows.Next() {
		var (
			doc      models.Document
			metadata []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadata, &doc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", doc.ID, err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Upsert writes docs in one transaction, replacing rows with the same ID
func (r *VectorRepository) Upsert(ctx context.Context, docs []models.IndexedDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, collection, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (id) DO UPDATE SET
			collection = EXCLUDED.collection,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, models.Document{}.TableName())

	err := r.tx.InTransaction(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, r.db)
		for _, doc := range docs {
			metadata, err := json.Marshal(doc.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for %s: %w", doc.ID, err)
			}
			if _, err := executor.ExecContext(ctx, query,
				doc.ID,
				r.collection,
				doc.Content,
				metadata,
				vectorLiteral(doc.Vector),
			); err != nil {
				return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("documents upserted", zap.Int("count", len(docs)))
	return nil
}

// Count returns the number of documents in the collection
func (r *VectorRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE collection = $1`, models.Document{}.TableName())

	var count int
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, r.collection).Scan(&count)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Close closes the connection pool
func (r *VectorRepository) Close() error {
	return r.db.Close()
}

// vectorLiteral renders v in pgvector text format, e.g. [0.1,0.2]
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable
}
