package models

// Fixed answers returned instead of generated text
const (
	AnswerNoDocuments  = "No relevant documents found."
	AnswerNoGeneration = "No response generated."
)

// AnswerResult is the payload returned for one chat query
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// NewAnswerResult creates an AnswerResult whose sources are never nil
func NewAnswerResult(answer string, sources []string) *AnswerResult {
	if sources == nil {
		sources = []string{}
	}
	return &AnswerResult{
		Answer:  answer,
		Sources: sources,
	}
}
