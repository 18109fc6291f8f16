package repositories

import (
	"fmt"
	"math"
	"sort"

	"github.com/upb/rag-chat/models"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors score 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// RankDocuments sorts docs by descending Score, breaking ties by ascending ID,
// and truncates the result to k entries.
func RankDocuments(docs []models.Document, k int) []models.Document {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].ID < docs[j].ID
	})

	if k < 0 {
		k = 0
	}
	if k < len(docs) {
		docs = docs[:k]
	}
	return docs
}

// ScoreAll scores every candidate against query and returns the top k
func ScoreAll(query []float32, candidates []models.IndexedDocument, k int) ([]models.Document, error) {
	scored := make([]models.Document, 0, len(candidates))
	for _, c := range candidates {
		score, err := CosineSimilarity(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", c.ID, err)
		}
		doc := c.Document
		doc.Score = score
		scored = append(scored, doc)
	}
	return RankDocuments(scored, k), nil
}
