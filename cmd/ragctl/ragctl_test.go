package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/rag-chat/app"
	"github.com/upb/rag-chat/config"
	"github.com/upb/rag-chat/internal/rag"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories/memory"
	"github.com/upb/rag-chat/services/chat"
	"github.com/upb/rag-chat/services/providers"
	"go.uber.org/zap"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Name() string { return "fixed" }

func (fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

// testLoader wires a shared in-memory index so index and ask see the same documents
func testLoader(index *memory.VectorRepository) dependencyLoader {
	return func(ctx context.Context) (*app.Dependencies, error) {
		logger := zap.NewNop()
		embedder := fixedEmbedder{}
		retriever := rag.NewVectorRetriever(embedder, index, rag.DefaultRetrievalOptions(), logger)
		return &app.Dependencies{
			Config: &config.Config{
				VectorStore: config.VectorStoreConfig{CollectionName: "rag_collection"},
			},
			Logger:   logger,
			Index:    index,
			Embedder: embedder,
			ChatService: chat.NewService(
				retriever,
				rag.NewPromptBuilder(rag.DefaultMaxDocChars),
				providers.UnconfiguredGenerator{Provider: "gemini"},
				chat.Config{},
				logger,
			),
		}, nil
	}
}

func execute(t *testing.T, load dependencyLoader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, load)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "First paragraph.\n\nSecond paragraph.")
	writeDoc(t, dir, "nested/b.md", "Nested document.")
	index := memory.NewVectorRepository()

	out, err := execute(t, testLoader(index), "index", filepath.Join(dir, "**", "*"), "--max-chars", "20")
	require.NoError(t, err)

	assert.Contains(t, out, "Indexing 2 files into rag_collection")
	assert.Contains(t, out, "Files indexed:  2")
	assert.Contains(t, out, "Chunks written: 3")

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexCommand_NoProgress(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Only paragraph.")

	out, err := execute(t, testLoader(memory.NewVectorRepository()),
		"index", filepath.Join(dir, "*.txt"), "--no-progress")
	require.NoError(t, err)
	assert.NotContains(t, out, "Embedding")
	assert.Contains(t, out, "Chunks written: 1")
}

func TestIndexCommand_NoMatches(t *testing.T) {
	_, err := execute(t, testLoader(memory.NewVectorRepository()),
		"index", filepath.Join(t.TempDir(), "*.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
}

func TestIndexCommand_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "text")

	_, err := execute(t, testLoader(memory.NewVectorRepository()),
		"index", filepath.Join(dir, "a.txt"), "--batch-size=0", "--max-chars=-1")
	require.Error(t, err)
	assert.Equal(t,
		"invalid options: BatchSize must be greater than 0; MaxChars must be greater than 0",
		err.Error())
}

func TestIndexCommand_LoaderError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "text")
	failing := func(context.Context) (*app.Dependencies, error) {
		return nil, errors.New("config validation failed")
	}

	_, err := execute(t, failing, "index", filepath.Join(dir, "a.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestAskCommand_EmptyIndex(t *testing.T) {
	out, err := execute(t, testLoader(memory.NewVectorRepository()), "ask", "What", "is", "RAG?")
	require.NoError(t, err)
	assert.Equal(t, models.AnswerNoDocuments+"\n", out)
}

func TestAskCommand_ListsSources(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "guide.txt", "RAG combines retrieval with generation.")
	index := memory.NewVectorRepository()
	load := testLoader(index)

	_, err := execute(t, load, "index", path, "--no-progress")
	require.NoError(t, err)

	out, err := execute(t, load, "ask", "What is RAG?")
	require.NoError(t, err)
	assert.Contains(t, out, models.AnswerNoGeneration)
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "Doc 1: "+path)
}

func TestAskCommand_JSON(t *testing.T) {
	out, err := execute(t, testLoader(memory.NewVectorRepository()), "ask", "hello", "--json")
	require.NoError(t, err)

	var answer models.AnswerResult
	require.NoError(t, json.Unmarshal([]byte(out), &answer))
	assert.Equal(t, models.AnswerNoDocuments, answer.Answer)
	assert.Empty(t, answer.Sources)
}

func TestAskCommand_BlankQuery(t *testing.T) {
	_, err := execute(t, testLoader(memory.NewVectorRepository()), "ask", "   ")
	require.Error(t, err)
	assert.Equal(t, "`query` field is required", err.Error())
}
