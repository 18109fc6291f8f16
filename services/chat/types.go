package chat

import (
	"time"

	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/services/providers"
)

// State is a stage of the answer pipeline
type State string

const (
	StateValidating State = "validating"
	StateRetrieving State = "retrieving"
	StateEmpty      State = "empty"
	StateGenerating State = "generating"
	StateFormatting State = "formatting"
	StateDone       State = "done"
	StateError      State = "error"
)

// GenerationOutcome records what the generator did. Empty and failed both surface as
// the same fallback answer but are logged differently.
type GenerationOutcome string

const (
	OutcomeOK      GenerationOutcome = "ok"
	OutcomeEmpty   GenerationOutcome = "empty"
	OutcomeFailed  GenerationOutcome = "failed"
	OutcomeSkipped GenerationOutcome = "skipped"
)

// Config holds the answer pipeline settings
type Config struct {
	// GenerationDelay is waited before each generator call
	GenerationDelay time.Duration

	// Generation is sent with every generator call
	Generation providers.GenerationConfig
}

// DefaultConfig returns a 100ms delay with the default sampling parameters
func DefaultConfig() Config {
	return Config{
		GenerationDelay: 100 * time.Millisecond,
		Generation:      providers.DefaultGenerationConfig(),
	}
}

// Result is the outcome of one question
type Result struct {
	// Answer is the payload returned to the client
	Answer *models.AnswerResult

	// Outcome of the generation step
	Outcome GenerationOutcome

	// DocumentCount is the number of documents used as context
	DocumentCount int

	// GenerationError is set when Outcome is OutcomeFailed
	GenerationError error

	// Latency of the whole pipeline
	Latency time.Duration
}
