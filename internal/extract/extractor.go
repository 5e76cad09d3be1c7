// Package extract implements the text extraction stage of the pipeline.
//
// Given a file path it produces page-level text using the best available
// strategy: the content cache first, then the native PDF text layer, then
// rasterize-and-OCR as the fallback. The native-vs-scanned decision is made
// once per document, not per page: if any page carries native text the
// whole document is treated as native, mirroring the coarse policy of the
// original workflow. Mixed documents (some native pages, some scanned) are
// a known limitation.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/cache"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/pkg/models"
)

// DefaultOCRConfidence is the heuristic confidence assigned to OCR output
// when the engine does not report one. Below 1.0 to reflect OCR
// uncertainty; native text layers are authoritative and score 1.0.
const DefaultOCRConfidence = 0.85

// NativeTextReader reads the embedded text layer of a PDF, one string per
// page (empty for pages without text).
type NativeTextReader interface {
	ReadNativeText(path string) ([]string, error)
}

// PageRenderer rasterizes the pages of a PDF to encoded images.
type PageRenderer interface {
	RenderPages(path string) ([][]byte, error)
}

// Extractor turns files into page texts, consulting and maintaining the
// content cache. Safe for concurrent use across independent documents; the
// cache handles its own synchronization.
type Extractor struct {
	engine        ocr.Engine
	reader        NativeTextReader
	renderer      PageRenderer
	cache         *cache.Cache
	maxCacheFiles int
	log           zerolog.Logger
}

// New constructs an Extractor over the given capability providers.
func New(engine ocr.Engine, reader NativeTextReader, renderer PageRenderer, contentCache *cache.Cache, maxCacheFiles int) *Extractor {
	return &Extractor{
		engine:        engine,
		reader:        reader,
		renderer:      renderer,
		cache:         contentCache,
		maxCacheFiles: maxCacheFiles,
		log:           logger.WithComponent("extract"),
	}
}

// Identify computes the content hash and file kind for a path without
// running extraction.
func (e *Extractor) Identify(path string) (models.Document, error) {
	const op = "Identify"

	kind, err := fileKind(path)
	if err != nil {
		return models.Document{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, WrapExtractError(op, ErrUnreadableFile, err.Error())
	}

	sum := sha256.Sum256(data)
	return models.Document{
		Hash: hex.EncodeToString(sum[:]),
		Path: path,
		Kind: kind,
	}, nil
}

// Extract produces the page texts and confidence for the file at path.
// Cache hits return with zero duration. When force is set the cache is
// bypassed and the entry rewritten.
func (e *Extractor) Extract(ctx context.Context, path string, force bool) (models.Document, *models.ExtractionResult, error) {
	const op = "Extract"

	doc, err := e.Identify(path)
	if err != nil {
		return models.Document{}, nil, err
	}
	log := e.log.With().Str("document", doc.Hash).Str("kind", string(doc.Kind)).Logger()

	if !force {
		if entry, ok := e.cache.Get(doc.Hash); ok {
			log.Info().Msg("Extraction served from cache")
			return doc, &models.ExtractionResult{
				Pages:      entry.Pages,
				Confidence: entry.Confidence,
				FromCache:  true,
			}, nil
		}
	}

	start := time.Now()

	var pages []string
	var confidence float64

	switch doc.Kind {
	case models.KindPDF:
		pages, confidence, err = e.extractPDF(ctx, path, log)
	case models.KindImage:
		pages, confidence, err = e.extractImage(ctx, path)
	case models.KindEmail:
		pages, confidence, err = e.extractEmail(path)
	default:
		err = NewExtractError(op, ErrUnsupportedFormat, string(doc.Kind))
	}
	if err != nil {
		return doc, nil, WrapExtractError(op, err, filepath.Base(path))
	}
	if !hasText(pages) {
		return doc, nil, NewExtractError(op, ErrEmptyDocument, filepath.Base(path))
	}

	result := &models.ExtractionResult{
		Pages:      pages,
		Confidence: confidence,
		Duration:   time.Since(start),
	}

	if err := e.cache.Put(doc.Hash, &cache.Entry{Pages: pages, Confidence: confidence}); err != nil {
		log.Warn().Err(err).Msg("Failed to write cache entry")
	} else if err := e.cache.EnforceLimit(e.maxCacheFiles); err != nil {
		log.Warn().Err(err).Msg("Failed to enforce cache limit")
	}

	log.Info().
		Int("pages", len(pages)).
		Float64("confidence", confidence).
		Dur("duration", result.Duration).
		Msg("Extraction completed")

	return doc, result, nil
}

// extractPDF tries the native text layer first and falls back to
// rasterize-and-OCR when no page carries text.
func (e *Extractor) extractPDF(ctx context.Context, path string, log zerolog.Logger) ([]string, float64, error) {
	native, err := e.reader.ReadNativeText(path)
	if err != nil {
		// An unreadable text layer is not fatal; the raster path may still
		// succeed on documents with damaged structure.
		log.Warn().Err(err).Msg("Native text read failed, falling back to OCR")
	} else if hasText(native) {
		pages := make([]string, 0, len(native))
		for _, p := range native {
			if strings.TrimSpace(p) != "" {
				pages = append(pages, strings.TrimSpace(p))
			}
		}
		log.Debug().Int("pages", len(pages)).Msg("Using native PDF text layer")
		return pages, 1.0, nil
	}

	log.Debug().Msg("No native text layer, rasterizing for OCR")
	images, err := e.renderer.RenderPages(path)
	if err != nil {
		return nil, 0, WrapExtractError("extractPDF", ocr.ErrOCRFailed, "rasterization failed: "+err.Error())
	}

	return e.ocrPages(ctx, images)
}

// extractImage runs OCR directly on the uploaded image bytes.
func (e *Extractor) extractImage(ctx context.Context, path string) ([]string, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, WrapExtractError("extractImage", ErrUnreadableFile, err.Error())
	}
	return e.ocrPages(ctx, [][]byte{data})
}

// extractEmail reads the message text; no OCR uncertainty applies.
func (e *Extractor) extractEmail(path string) ([]string, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, WrapExtractError("extractEmail", ErrUnreadableFile, err.Error())
	}
	text, err := readEmailText(data)
	if err != nil {
		return nil, 0, err
	}
	return []string{text}, 1.0, nil
}

// ocrPages recognizes each image and averages engine-reported confidences.
// OCR engine failures propagate: with no text there is nothing downstream
// to extract, so the document aborts rather than degrades.
func (e *Extractor) ocrPages(ctx context.Context, images [][]byte) ([]string, float64, error) {
	const op = "ocrPages"

	pages := make([]string, 0, len(images))
	var confidenceSum float64
	var confidenceCount int

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, 0, WrapExtractError(op, err, "canceled during OCR")
		}

		result, err := e.engine.Recognize(ctx, img)
		if err != nil {
			return nil, 0, WrapExtractError(op, err, fmt.Sprintf("page %d", i+1))
		}
		pages = append(pages, result.Text)
		if result.Confidence > 0 {
			confidenceSum += result.Confidence
			confidenceCount++
		}
	}

	confidence := DefaultOCRConfidence
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}
	return pages, confidence, nil
}

// fileKind maps a file extension onto the extraction strategy.
func fileKind(path string) (models.FileKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return models.KindPDF, nil
	case ".png", ".jpg", ".jpeg":
		return models.KindImage, nil
	case ".eml":
		return models.KindEmail, nil
	default:
		return "", NewExtractError("fileKind", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
