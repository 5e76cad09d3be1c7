// Package ocr provides the OCR capability consumed by the text extractor.
//
// An Engine converts a raster image into text. Three backends satisfy the
// same contract: a local Tesseract engine and two Google Cloud services
// (Vision document text detection and Document AI OCR). The backend is
// selected once via configuration; the pipeline never branches on it.
//
// Required Environment Variables (cloud backends):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID
//
// The local backend needs a Tesseract installation with the language data
// for the documents being processed.
package ocr

import (
	"context"
	"fmt"

	"docextract/internal/config"
)

// MaxImageSizeBytes is the maximum image size accepted for recognition.
// Google Cloud Vision rejects payloads above 20MB for synchronous calls and
// the local engine inherits the same bound for symmetry.
const MaxImageSizeBytes = 20 * 1024 * 1024

// Engine is the OCR capability contract: raster image bytes in, text out.
type Engine interface {
	// Recognize extracts text from a single raster image (PNG or JPEG).
	Recognize(ctx context.Context, image []byte) (*Result, error)
}

// Result is the output of recognizing one image.
type Result struct {
	// Text is the recognized text in reading order.
	Text string `json:"text"`

	// Confidence is the engine-reported average confidence in [0.0, 1.0],
	// or zero when the engine does not report one.
	Confidence float64 `json:"confidence"`
}

// NewEngine constructs the configured OCR backend.
func NewEngine(ctx context.Context, cfg *config.Config) (Engine, error) {
	switch cfg.OCRBackend {
	case config.BackendTesseract:
		return NewTesseractEngine(), nil
	case config.BackendVision:
		return NewVisionEngine(ctx)
	case config.BackendDocumentAI:
		return NewDocumentAIEngine(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.DocumentAIProcessorID)
	default:
		return nil, fmt.Errorf("ocr: unknown backend %q", cfg.OCRBackend)
	}
}
