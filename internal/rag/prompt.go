package rag

import (
	"fmt"
	"strings"

	"github.com/upb/rag-chat/models"
)

// DefaultMaxDocChars caps each document's contribution to the prompt
const DefaultMaxDocChars = 800

const (
	promptPreamble = "You are a helpful assistant. Answer using ONLY the context below.\n\n"
	promptFooter   = "If the answer is not in the context, say so clearly.\n" +
		"Cite document numbers where you pull your facts.\n\n" +
		"Answer:"
)

// PromptBuilder assembles the grounding prompt. It is a pure function of its inputs.
type PromptBuilder struct {
	maxDocChars int
}

// NewPromptBuilder creates a builder that truncates documents to maxDocChars code points.
// A non-positive value falls back to DefaultMaxDocChars.
func NewPromptBuilder(maxDocChars int) *PromptBuilder {
	if maxDocChars <= 0 {
		maxDocChars = DefaultMaxDocChars
	}
	return &PromptBuilder{maxDocChars: maxDocChars}
}

// Build renders docs as numbered context blocks followed by the question
func (b *PromptBuilder) Build(query string, docs []models.Document) string {
	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[Doc %d – %s]\n%s", i+1, doc.Source(), b.excerpt(doc.Content))
	}

	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString(promptFooter)
	return sb.String()
}

// excerpt trims content, flattens newlines and cuts it to maxDocChars code points.
// Invalid UTF-8 is replaced with U+FFFD whether or not the text is cut.
func (b *PromptBuilder) excerpt(content string) string {
	text := strings.ToValidUTF8(content, "\uFFFD")
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	runes := []rune(text)
	if len(runes) > b.maxDocChars {
		return string(runes[:b.maxDocChars])
	}
	return text
}
