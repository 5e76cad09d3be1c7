package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docextract/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "docextract - extract structured fields from documents with OCR and an LLM",
	Long: `docextract digitizes documents: it runs OCR (or reads the native PDF
text layer) to obtain text, then asks a language model to extract
structured JSON fields from that text, scoring each field against the
source for confidence.

Supported inputs: pdf, png, jpg, jpeg, eml.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("docextract executed")

		fmt.Println("docextract - document field extraction")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// signalContext creates a context with the given timeout that is also
// canceled on SIGINT/SIGTERM so in-flight OCR and LLM calls stop promptly.
func signalContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
