// Package llm implements the extraction invoker: it dispatches a prompt to
// the completion provider, recovers the model's text output and interprets
// it as a JSON field set. Every failure mode — empty response, unparsable
// output, provider fault — is captured into the returned Outcome; Invoke
// never returns an error to the caller, so the pipeline can always hand
// back partial results.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// SamplingParams are the fixed, deterministic-leaning sampling settings
// used for extraction requests.
type SamplingParams struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// DefaultSamplingParams returns the extraction defaults: low randomness so
// identical documents produce near-identical field sets.
func DefaultSamplingParams(model string) SamplingParams {
	return SamplingParams{
		Model:       model,
		Temperature: 0.3,
		TopP:        0.9,
		MaxTokens:   1024,
	}
}

// Envelope is the provider response: the generated text plus token usage.
type Envelope struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Completer is the LLM capability contract. Implementations translate
// provider-specific faults into the package's error taxonomy.
type Completer interface {
	Complete(ctx context.Context, prompt string, params SamplingParams) (*Envelope, error)
}

// Outcome is the structured result of one invocation. Exactly one of
// Fields or Err is set; Raw always preserves whatever text the model
// returned so unparsable output is never lost.
type Outcome struct {
	// Fields is the parsed field set; nil when the invocation failed.
	Fields models.FieldSet

	// Raw is the unprocessed model output text.
	Raw string

	// Err classifies the failure (ErrEmptyResponse, ErrUnparsableOutput,
	// ErrProvider); nil on success.
	Err error

	// Duration is how long the provider call plus parsing took.
	Duration time.Duration

	// PromptTokens and CompletionTokens report provider token usage.
	PromptTokens     int
	CompletionTokens int
}

// Invoker sends prompts to a Completer and sanitizes the responses.
type Invoker struct {
	completer Completer
	params    SamplingParams
	log       zerolog.Logger
}

// NewInvoker constructs an Invoker with the given provider and sampling
// parameters.
func NewInvoker(completer Completer, params SamplingParams) *Invoker {
	return &Invoker{
		completer: completer,
		params:    params,
		log:       logger.WithComponent("llm"),
	}
}

// Invoke dispatches the prompt and interprets the response. Failures are
// reported through Outcome.Err, never raised.
func (in *Invoker) Invoke(ctx context.Context, prompt string) *Outcome {
	const op = "Invoke"
	start := time.Now()

	in.log.Debug().
		Int("prompt_length", len(prompt)).
		Str("model", in.params.Model).
		Float32("temperature", in.params.Temperature).
		Msg("Dispatching extraction prompt")

	envelope, err := in.completer.Complete(ctx, prompt, in.params)
	if err != nil {
		outcome := &Outcome{Duration: time.Since(start)}
		if errors.Is(err, ErrEmptyResponse) {
			outcome.Err = WrapLLMError(op, err, "")
		} else {
			outcome.Err = WrapLLMError(op, ErrProvider, err.Error())
		}
		in.log.Warn().Err(outcome.Err).Msg("Completion request failed")
		return outcome
	}

	outcome := &Outcome{
		Raw:              envelope.Text,
		Duration:         time.Since(start),
		PromptTokens:     envelope.PromptTokens,
		CompletionTokens: envelope.CompletionTokens,
	}

	if envelope.Text == "" {
		outcome.Err = NewLLMError(op, ErrEmptyResponse, "")
		in.log.Warn().Msg("Model returned no usable text")
		return outcome
	}

	fields, err := decodeFields(envelope.Text)
	if err != nil {
		outcome.Err = err
		in.log.Warn().
			Err(err).
			Str("raw", truncate(envelope.Text, 500)).
			Msg("Model output could not be parsed as JSON")
		return outcome
	}

	outcome.Fields = fields
	outcome.Duration = time.Since(start)

	in.log.Info().
		Int("fields", len(fields)).
		Int("prompt_tokens", envelope.PromptTokens).
		Int("completion_tokens", envelope.CompletionTokens).
		Dur("duration", outcome.Duration).
		Msg("Extraction completed")

	return outcome
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
