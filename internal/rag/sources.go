package rag

import (
	"fmt"

	"github.com/upb/rag-chat/models"
)

// FormatSources renders one citation per document, numbered like the prompt blocks:
// "Doc {i}: {source}" plus " (page {page})" when the document has a page.
func FormatSources(docs []models.Document) []string {
	sources := make([]string, len(docs))
	for i, doc := range docs {
		entry := fmt.Sprintf("Doc %d: %s", i+1, doc.Source())
		if page, ok := doc.Page(); ok {
			entry += fmt.Sprintf(" (page %s)", page)
		}
		sources[i] = entry
	}
	return sources
}
