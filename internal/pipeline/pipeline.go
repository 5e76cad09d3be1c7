// Package pipeline orchestrates the document processing stages: text
// extraction (with content caching), prompt construction, LLM invocation
// and validation with confidence scoring.
//
// Each call to Process handles one document synchronously. The Service
// holds no per-request state, so it may be used concurrently for
// independent documents; the content cache is the only shared resource and
// synchronizes itself. Cancellation is the caller's concern — pass a
// context with a deadline around the whole call.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"docextract/internal/extract"
	"docextract/internal/llm"
	"docextract/internal/logger"
	"docextract/internal/prompt"
	"docextract/internal/validate"
	"docextract/pkg/models"
)

// Options control one processing run.
type Options struct {
	// PromptOverride replaces the default instruction body when non-empty.
	PromptOverride string

	// Force bypasses the content cache and reprocesses the document.
	Force bool
}

// Service wires the pipeline stages together.
type Service struct {
	extractor     *extract.Extractor
	invoker       *llm.Invoker
	defaultPrompt string
	log           zerolog.Logger
}

// New constructs a pipeline service. defaultPrompt is the instruction body
// used when a run supplies no override.
func New(extractor *extract.Extractor, invoker *llm.Invoker, defaultPrompt string) *Service {
	return &Service{
		extractor:     extractor,
		invoker:       invoker,
		defaultPrompt: defaultPrompt,
		log:           logger.WithComponent("pipeline"),
	}
}

// Process runs the full pipeline for the file at path.
//
// Extraction failures abort with an error: without text there is nothing to
// extract fields from. LLM-stage failures do not abort — the returned
// result still carries the document text and metrics, with LLMError set and
// the raw model output preserved.
func (s *Service) Process(ctx context.Context, path string, opts Options) (*models.ProcessResult, error) {
	doc, extraction, err := s.extractor.Extract(ctx, path, opts.Force)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("path", path).
			Str("stage", "extract").
			Msg("Document processing failed")
		return nil, fmt.Errorf("processing %s: %w", path, err)
	}

	log := s.log.With().Str("document", doc.Hash).Logger()
	fullText := extraction.Text()

	result := &models.ProcessResult{
		Document: doc,
		Pages:    extraction.Pages,
		Text:     fullText,
		Metrics: models.Metrics{
			ScanTimeSec:     extraction.Duration.Seconds(),
			ConfidenceScore: extraction.Confidence,
		},
	}

	p := prompt.Build(opts.PromptOverride, s.defaultPrompt, fullText)
	outcome := s.invoker.Invoke(ctx, p)

	result.RawOutput = outcome.Raw
	result.Metrics.LLMTimeSec = outcome.Duration.Seconds()

	if outcome.Err != nil {
		// Partial result: the caller still gets the document text and
		// metrics. Only a summary message crosses the boundary.
		result.LLMError = summarize(outcome.Err)
		log.Warn().
			Err(outcome.Err).
			Str("stage", "llm").
			Msg("Field extraction degraded to partial result")
		return result, nil
	}

	result.Fields = validate.Normalize(outcome.Fields)
	result.FieldConfidence = validate.Score(fullText, result.Fields)

	low := 0
	for _, score := range result.FieldConfidence {
		if score <= validate.Low {
			low++
		}
	}
	if low > 0 {
		// Informational: some fields found no corroborating source text.
		log.Warn().
			Int("uncorroborated_fields", low).
			Int("total_fields", len(result.Fields)).
			Msg("Validation degraded, possible hallucinated fields")
	}

	log.Info().
		Int("fields", len(result.Fields)).
		Float64("scan_time_sec", result.Metrics.ScanTimeSec).
		Float64("llm_time_sec", result.Metrics.LLMTimeSec).
		Bool("from_cache", extraction.FromCache).
		Msg("Document processed")

	return result, nil
}

// summarize produces the short message exposed to callers in place of the
// full error chain.
func summarize(err error) string {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Err.Error()
	}
	return err.Error()
}
