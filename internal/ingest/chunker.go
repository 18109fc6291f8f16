package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultMaxChunkChars is the chunk size used when none is configured.
const DefaultMaxChunkChars = 1000

// Chunk is one piece of a source file ready to be embedded.
type Chunk struct {
	ID     string
	Source string
	Index  int
	Text   string
}

// ParagraphChunker splits text on blank lines and packs consecutive
// paragraphs into chunks of at most maxChars code points.
type ParagraphChunker struct {
	maxChars  int
	separator *regexp.Regexp
}

func NewParagraphChunker(maxChars int) *ParagraphChunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	return &ParagraphChunker{
		maxChars:  maxChars,
		separator: regexp.MustCompile(`\n\s*\n`),
	}
}

// MaxChars returns the chunk size limit.
func (c *ParagraphChunker) MaxChars() int {
	return c.maxChars
}

// Chunk splits content from source. IDs are derived from source and chunk
// position, so re-indexing the same file overwrites its previous chunks.
func (c *ParagraphChunker) Chunk(source, content string) []Chunk {
	var pieces []string
	for _, p := range c.separator.Split(content, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pieces = append(pieces, c.split(p)...)
	}

	var texts []string
	var current strings.Builder
	currentLen := 0
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if currentLen > 0 && currentLen+2+n > c.maxChars {
			texts = append(texts, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(p)
		currentLen += n
	}
	if currentLen > 0 {
		texts = append(texts, current.String())
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			ID:     ChunkID(source, i),
			Source: source,
			Index:  i,
			Text:   text,
		}
	}
	return chunks
}

// split breaks an oversized paragraph, preferring whitespace boundaries.
func (c *ParagraphChunker) split(p string) []string {
	runes := []rune(p)
	var out []string
	for len(runes) > c.maxChars {
		cut := c.maxChars
		for i := c.maxChars; i > c.maxChars/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if head := strings.TrimSpace(string(runes[:cut])); head != "" {
			out = append(out, head)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if tail := strings.TrimSpace(string(runes)); tail != "" {
		out = append(out, tail)
	}
	return out
}

// ChunkID returns the deterministic UUID for chunk index of source.
func ChunkID(source string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(index))).String()
}
