// Package rag implements the retrieval-augmented generation core of the chat service.
//
// A Retriever embeds the question and asks a vector index for the closest documents,
// a PromptBuilder turns those documents into a numbered grounding prompt, and
// FormatSources renders the matching citation list. The numbering is shared: the
// document labelled [Doc i] in the prompt is always "Doc i" in the sources.
package rag
