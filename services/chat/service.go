package chat

import (
	"context"
	"strings"
	"time"

	"github.com/upb/rag-chat/internal/rag"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/services"
	"github.com/upb/rag-chat/services/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/upb/rag-chat/services/chat")

// Service answers questions from the indexed documents. It holds read-only
// collaborators and is safe for concurrent use.
type Service struct {
	retriever rag.Retriever
	prompts   *rag.PromptBuilder
	generator providers.Generator
	cfg       Config
	logger    *zap.Logger
}

// NewService creates a new chat service
func NewService(
	retriever rag.Retriever,
	prompts *rag.PromptBuilder,
	generator providers.Generator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer runs retrieval, prompting and generation for one question.
// Only an empty query and retrieval failures are errors; a failed or empty
// generation yields the fallback answer with the sources still attached.
func (s *Service) Answer(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "chat.Answer")
	defer span.End()

	// Step 1: validate
	s.transition(span, StateValidating)
	query = strings.TrimSpace(query)
	if query == "" {
		s.transition(span, StateError)
		return nil, services.ErrEmptyQuery
	}

	// Step 2: retrieve
	s.transition(span, StateRetrieving)
	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		s.transition(span, StateError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		s.logger.Error("retrieval failed", zap.Error(err))
		return nil, services.WrapUpstreamUnavailable(err)
	}
	span.SetAttributes(attribute.Int("chat.documents", len(docs)))

	if len(docs) == 0 {
		s.transition(span, StateEmpty)
		s.logger.Info("no relevant documents found")
		return &Result{
			Answer:  models.NewAnswerResult(models.AnswerNoDocuments, nil),
			Outcome: OutcomeSkipped,
			Latency: time.Since(start),
		}, nil
	}

	// Step 3: generate
	s.transition(span, StateGenerating)
	prompt := s.prompts.Build(query, docs)
	answer, outcome, genErr := s.generate(ctx, prompt)
	span.SetAttributes(attribute.String("chat.generation_outcome", string(outcome)))

	// Step 4: format
	s.transition(span, StateFormatting)
	result := &Result{
		Answer:          models.NewAnswerResult(answer, rag.FormatSources(docs)),
		Outcome:         outcome,
		DocumentCount:   len(docs),
		GenerationError: genErr,
		Latency:         time.Since(start),
	}

	s.transition(span, StateDone)
	s.logger.Info("question answered",
		zap.Int("documents", result.DocumentCount),
		zap.String("generation_outcome", string(outcome)),
		zap.Duration("latency", result.Latency))

	return result, nil
}

// generate calls the generator after the configured delay and maps its result to an
// answer. It never returns an answer-level error.
func (s *Service) generate(ctx context.Context, prompt string) (string, GenerationOutcome, error) {
	if err := s.wait(ctx); err != nil {
		s.logger.Warn("generation skipped", zap.Error(err))
		return models.AnswerNoGeneration, OutcomeFailed, err
	}

	ctx, span := tracer.Start(ctx, "chat.Generate", trace.WithAttributes(
		attribute.String("llm.provider", s.generator.Name()),
	))
	defer span.End()

	result, err := s.generator.Generate(ctx, prompt, s.cfg.Generation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.logger.Warn("generation failed",
			zap.String("provider", s.generator.Name()),
			zap.Bool("retryable", providers.IsRetryable(err)),
			zap.Error(err))
		return models.AnswerNoGeneration, OutcomeFailed, err
	}

	if result == nil || result.Text == "" {
		s.logger.Info("generator returned no text", zap.String("provider", s.generator.Name()))
		return models.AnswerNoGeneration, OutcomeEmpty, nil
	}

	span.SetAttributes(
		attribute.String("llm.model", result.Model),
		attribute.Int("llm.total_tokens", result.Usage.TotalTokens),
	)
	s.logger.Debug("generation completed",
		zap.String("provider", s.generator.Name()),
		zap.String("model", result.Model),
		zap.String("finish_reason", result.FinishReason),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.Duration("latency", result.Latency))

	return result.Text, OutcomeOK, nil
}

// wait sleeps for GenerationDelay or until ctx is done
func (s *Service) wait(ctx context.Context) error {
	if s.cfg.GenerationDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.cfg.GenerationDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) transition(span trace.Span, state State) {
	span.AddEvent(string(state))
	s.logger.Debug("chat pipeline state", zap.String("state", string(state)))
}
