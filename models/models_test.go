package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Document tests
func TestNewIndexedDocument(t *testing.T) {
	t.Run("generates an ID when empty", func(t *testing.T) {
		doc := NewIndexedDocument("", "hello", nil, []float32{0.1, 0.2})

		_, err := uuid.Parse(doc.ID)
		assert.NoError(t, err)
		assert.Equal(t, "hello", doc.Content)
		assert.NotNil(t, doc.Metadata)
		assert.Equal(t, []float32{0.1, 0.2}, doc.Vector)
	})

	t.Run("keeps an explicit ID", func(t *testing.T) {
		doc := NewIndexedDocument("0b6f1c7e-4a7a-5d8e-9f10-111213141516", "hello", map[string]any{"source": "a.txt"}, nil)

		assert.Equal(t, "0b6f1c7e-4a7a-5d8e-9f10-111213141516", doc.ID)
		assert.Equal(t, "a.txt", doc.Metadata["source"])
	})
}

func TestDocument_TableName(t *testing.T) {
	assert.Equal(t, "rag_documents", Document{}.TableName())
}

func TestDocument_Source(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     string
	}{
		{name: "string source", metadata: map[string]any{"source": "guide.pdf"}, want: "guide.pdf"},
		{name: "missing source", metadata: map[string]any{"page": 2}, want: "Unknown"},
		{name: "nil metadata", metadata: nil, want: "Unknown"},
		{name: "nil value", metadata: map[string]any{"source": nil}, want: "Unknown"},
		{name: "numeric source", metadata: map[string]any{"source": float64(42)}, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Metadata: tt.metadata}
			assert.Equal(t, tt.want, doc.Source())
		})
	}
}

func TestDocument_Page(t *testing.T) {
	page, ok := Document{Metadata: map[string]any{"page": float64(3)}}.Page()
	assert.True(t, ok)
	assert.Equal(t, "3", page)

	_, ok = Document{Metadata: map[string]any{"source": "a"}}.Page()
	assert.False(t, ok)
}

func TestFormatMetadataValue(t *testing.T) {
	assert.Equal(t, "abc", FormatMetadataValue("abc"))
	assert.Equal(t, "7", FormatMetadataValue(7))
	assert.Equal(t, "7", FormatMetadataValue(int64(7)))
	assert.Equal(t, "7", FormatMetadataValue(float64(7)))
	assert.Equal(t, "2.5", FormatMetadataValue(2.5))
	assert.Equal(t, "True", FormatMetadataValue(true))
}

func TestDocument_MetadataFromJSON(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"id":"d1","content":"x","metadata":{"source":"a.txt","page":12}}`), &doc)
	require.NoError(t, err)

	page, ok := doc.Page()
	require.True(t, ok)
	assert.Equal(t, "12", page)
	assert.Equal(t, "a.txt", doc.Source())
}

// AnswerResult tests
func TestNewAnswerResult(t *testing.T) {
	result := NewAnswerResult(AnswerNoDocuments, nil)

	require.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"No relevant documents found.","sources":[]}`, string(data))
}
