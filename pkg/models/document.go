// Package models defines the shared value types that flow through the
// document extraction pipeline.
package models

import "time"

// FileKind identifies the broad document category used to pick an
// extraction strategy.
type FileKind string

const (
	// KindImage covers raster image uploads (png, jpg, jpeg).
	KindImage FileKind = "image"

	// KindPDF covers PDF documents, with or without a native text layer.
	KindPDF FileKind = "pdf"

	// KindEmail covers RFC 822 email messages (.eml).
	KindEmail FileKind = "eml"
)

// Document identifies an uploaded file by the digest of its raw bytes.
// The hash is stable across re-uploads of identical content, which is what
// makes the content cache correct without any TTL.
type Document struct {
	// Hash is the hex-encoded SHA-256 digest of the file contents.
	Hash string `json:"hash"`

	// Path is the local filesystem path the document was read from.
	Path string `json:"path"`

	// Kind is the document category derived from the file extension.
	Kind FileKind `json:"kind"`
}

// ExtractionResult is the output of the text extraction stage: the ordered
// page texts plus an overall confidence estimate for the extraction.
type ExtractionResult struct {
	// Pages holds the extracted text of each page in document order.
	Pages []string `json:"pages"`

	// Confidence is a heuristic score in [0.0, 1.0]. Native PDF text and
	// email bodies are authoritative (1.0); OCR output carries the
	// engine-reported average or a fixed value below 1.0.
	Confidence float64 `json:"confidence"`

	// Duration is how long the extraction took. Zero for cache hits.
	Duration time.Duration `json:"duration"`

	// FromCache reports whether the result was served from the content cache.
	FromCache bool `json:"from_cache"`
}

// Text joins the page texts into the single string handed to the prompt
// builder and the confidence scorer.
func (r *ExtractionResult) Text() string {
	out := ""
	for i, p := range r.Pages {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

// FieldSet is the structured key/value output the LLM extracts from
// document text. Field names are chosen by the model, constrained only by
// the prompt rule to omit fields that are not present. Values are strings
// or numbers; a nil value means the model explicitly returned null.
type FieldSet map[string]any

// Confidence maps field names to heuristic confidence scores. For every
// FieldSet produced by the validator the key set of its Confidence map is
// exactly the key set of the FieldSet.
type Confidence map[string]float64

// Metrics carries the timing and confidence numbers reported alongside an
// extraction result.
type Metrics struct {
	ScanTimeSec     float64 `json:"scan_time_sec"`
	LLMTimeSec      float64 `json:"llm_time_sec"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ProcessResult is the end-to-end output of the pipeline for one document.
// LLM-stage failures do not abort processing: Fields is nil, LLMError holds
// a summary message and RawOutput preserves whatever the model returned, so
// the OCR text and metrics are always available to the caller.
type ProcessResult struct {
	Document Document `json:"document"`

	// Pages is the per-page extracted text.
	Pages []string `json:"pages"`

	// Text is the concatenated document text the LLM saw.
	Text string `json:"text"`

	// Fields holds the validated extraction output; nil when the LLM stage
	// failed.
	Fields FieldSet `json:"fields,omitempty"`

	// FieldConfidence scores each extracted field against the source text.
	FieldConfidence Confidence `json:"field_confidence,omitempty"`

	// RawOutput is the unparsed model output, kept for diagnostics and for
	// callers that want to inspect unparsable responses.
	RawOutput string `json:"raw_output,omitempty"`

	// LLMError is a summary message when the LLM stage failed; empty on
	// success.
	LLMError string `json:"llm_error,omitempty"`

	Metrics Metrics `json:"metrics"`
}
