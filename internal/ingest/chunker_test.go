package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphChunker_PacksParagraphs(t *testing.T) {
	c := NewParagraphChunker(30)
	content := "First paragraph.\n\nSecond one.\n\n\n   \nThird paragraph here."

	chunks := c.Chunk("notes.txt", content)

	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph.\n\nSecond one.", chunks[0].Text)
	assert.Equal(t, "Third paragraph here.", chunks[1].Text)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "notes.txt", ch.Source)
	}
}

func TestParagraphChunker_SplitsLongParagraph(t *testing.T) {
	c := NewParagraphChunker(20)
	content := strings.Repeat("word ", 30)

	chunks := c.Chunk("long.txt", content)

	require.NotEmpty(t, chunks)
	var rebuilt []string
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 20)
		rebuilt = append(rebuilt, strings.Fields(ch.Text)...)
	}
	assert.Len(t, rebuilt, 30)
}

func TestParagraphChunker_SplitsWithoutWhitespace(t *testing.T) {
	c := NewParagraphChunker(10)

	chunks := c.Chunk("x.txt", strings.Repeat("é", 25))

	require.Len(t, chunks, 3)
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 5, utf8.RuneCountInString(chunks[2].Text))
}

func TestParagraphChunker_Empty(t *testing.T) {
	c := NewParagraphChunker(0)

	assert.Empty(t, c.Chunk("empty.txt", "  \n\n \t "))
	assert.Equal(t, DefaultMaxChunkChars, c.MaxChars())
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("docs/a.txt", 0)

	assert.Equal(t, a, ChunkID("docs/a.txt", 0))
	assert.NotEqual(t, a, ChunkID("docs/a.txt", 1))
	assert.NotEqual(t, a, ChunkID("docs/b.txt", 0))

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
