package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docextract/internal/cache"
	"docextract/internal/config"
	"docextract/internal/extract"
	"docextract/internal/llm"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/internal/pdf"
	"docextract/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run the full extraction pipeline on a document",
	Long: `Process a document end-to-end: OCR or native text extraction (with
content-addressed caching), LLM field extraction, and per-field
confidence scoring against the source text.

OCR backend is selected via OCR_BACKEND (tesseract, vision, documentai).
The LLM stage requires OPENAI_API_KEY.`,
	Example: `  # Extract fields from an invoice
  docextract extract invoice.pdf

  # Custom extraction instructions
  docextract extract receipt.jpg --prompt "Extract merchant, total and date."

  # Reprocess ignoring the cache, write JSON to a file
  docextract extract invoice.pdf --force -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("prompt", "p", "", "Override the default extraction instructions")
	extractCmd.Flags().BoolP("force", "f", false, "Bypass the content cache and reprocess")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	promptOverride, _ := cmd.Flags().GetString("prompt")
	force, _ := cmd.Flags().GetBool("force")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	filePath := args[0]
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("cannot access %s: %w", filePath, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	service, err := buildPipeline(cmd, cfg, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", filePath).
		Bool("force", force).
		Str("backend", cfg.OCRBackend).
		Msg("Starting document processing")

	result, err := service.Process(ctx, filePath, pipeline.Options{
		PromptOverride: promptOverride,
		Force:          force,
	})
	if err != nil {
		return describeExtractionError(err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().Str("output", outputPath).Int("bytes", len(data)).Msg("Result written")
		return nil
	}

	fmt.Println(string(data))
	return nil
}

// buildPipeline wires the capability providers selected by configuration
// into a pipeline service.
func buildPipeline(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) (*pipeline.Service, error) {
	contentCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	engine, err := ocr.NewEngine(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR backend %q: %w", cfg.OCRBackend, err)
	}

	kit := pdf.Kit{}
	extractor := extract.New(engine, kit, kit, contentCache, cfg.MaxCacheFiles)

	completer, err := llm.NewOpenAICompleter()
	if err != nil {
		return nil, err
	}
	params := llm.DefaultSamplingParams(cfg.OpenAIModel)
	params.Temperature = cfg.OpenAITemperature
	invoker := llm.NewInvoker(completer, params)

	log.Debug().Str("model", cfg.OpenAIModel).Msg("Pipeline assembled")
	return pipeline.New(extractor, invoker, cfg.Prompt()), nil
}

// describeExtractionError maps pipeline failures onto user-facing messages.
func describeExtractionError(err error) error {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file type (supported: pdf, png, jpg, jpeg, eml): %w", err)
	case errors.Is(err, extract.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document: %w", err)
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS: %w", err)
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR failed; check backend availability and credentials: %w", err)
	default:
		return err
	}
}
