package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// Well-known metadata keys
const (
	MetadataSource = "source"
	MetadataPage   = "page"

	// UnknownSource is used when a document carries no source metadata
	UnknownSource = "Unknown"
)

// Document is a unit of retrieved content. It is read-only once returned by an index.
type Document struct {
	ID       string         `json:"id" db:"id"`
	Content  string         `json:"content" db:"content"`
	Metadata map[string]any `json:"metadata,omitempty" db:"metadata"`
	Score    float64        `json:"score" db:"score"`
}

// IndexedDocument is a document together with its embedding, as written at ingestion time
type IndexedDocument struct {
	Document
	Vector []float32 `json:"vector"`
}

// NewIndexedDocument creates an IndexedDocument. An empty id gets a random UUID.
func NewIndexedDocument(id, content string, metadata map[string]any, vector []float32) IndexedDocument {
	if id == "" {
		id = uuid.New().String()
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return IndexedDocument{
		Document: Document{
			ID:       id,
			Content:  content,
			Metadata: metadata,
		},
		Vector: vector,
	}
}

// TableName returns the table name for SQL-backed indexes
func (Document) TableName() string {
	return "rag_documents"
}

// Source returns the source metadata rendered as text, or UnknownSource when absent
func (d Document) Source() string {
	v, ok := d.Metadata[MetadataSource]
	if !ok || v == nil {
		return UnknownSource
	}
	return FormatMetadataValue(v)
}

// Page returns the page metadata rendered as text and whether it is present
func (d Document) Page() (string, bool) {
	v, ok := d.Metadata[MetadataPage]
	if !ok || v == nil {
		return "", false
	}
	return FormatMetadataValue(v), true
}

// FormatMetadataValue renders a metadata value for display.
// Integral numbers print without a decimal point, so a page decoded from JSON as 3.0 shows as "3".
func FormatMetadataValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		if val {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
