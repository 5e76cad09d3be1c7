package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docextract/internal/cache"
	"docextract/internal/config"
	"docextract/internal/extract"
	"docextract/internal/logger"
	"docextract/internal/ocr"
	"docextract/internal/pdf"
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Extract text from a document without invoking the LLM",
	Long: `Run only the text extraction stage: native PDF text layer when
present, OCR fallback otherwise. Results are cached by content hash, so
scanning the same bytes twice is served from the cache.`,
	Example: `  # Extract text to stdout
  docextract scan invoice.pdf

  # JSON output with page and confidence metadata
  docextract scan scan.png --json -o scan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// scanOutput is the JSON output structure when --json is used.
type scanOutput struct {
	Hash       string   `json:"hash"`
	FileName   string   `json:"file_name"`
	Pages      []string `json:"pages"`
	PageCount  int      `json:"page_count"`
	Confidence float64  `json:"confidence"`
	FromCache  bool     `json:"from_cache"`
	ScanTime   string   `json:"scan_time"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().Bool("json", false, "Output as JSON with metadata")
	scanCmd.Flags().BoolP("force", "f", false, "Bypass the content cache")
	scanCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	force, _ := cmd.Flags().GetBool("force")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	filePath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	contentCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}
	engine, err := ocr.NewEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create OCR backend %q: %w", cfg.OCRBackend, err)
	}
	kit := pdf.Kit{}
	extractor := extract.New(engine, kit, kit, contentCache, cfg.MaxCacheFiles)

	start := time.Now()
	doc, result, err := extractor.Extract(ctx, filePath, force)
	if err != nil {
		return describeExtractionError(err)
	}

	log.Info().
		Str("document", doc.Hash).
		Int("pages", len(result.Pages)).
		Float64("confidence", result.Confidence).
		Bool("from_cache", result.FromCache).
		Dur("duration", time.Since(start)).
		Msg("Scan completed")

	var data []byte
	if jsonOutput {
		data, err = json.MarshalIndent(scanOutput{
			Hash:       doc.Hash,
			FileName:   filepath.Base(filePath),
			Pages:      result.Pages,
			PageCount:  len(result.Pages),
			Confidence: result.Confidence,
			FromCache:  result.FromCache,
			ScanTime:   result.Duration.String(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		data = []byte(strings.Join(result.Pages, "\n\n"))
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	fmt.Println(string(data))
	return nil
}
