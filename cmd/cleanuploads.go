package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docextract/internal/config"
	"docextract/internal/uploads"
)

var cleanUploadsCmd = &cobra.Command{
	Use:   "clean-uploads",
	Short: "Delete stale files from the upload directory",
	Long: `Remove document files older than the retention window from the
configured upload directory. Processed uploads accumulate there; this
keeps the directory from growing without bound.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThanMins, _ := cmd.Flags().GetInt("older-than")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		maxAge := time.Duration(olderThanMins) * time.Minute
		if olderThanMins <= 0 {
			maxAge = uploads.DefaultMaxAge
		}

		removed, err := uploads.Clean(cfg.UploadDir, maxAge)
		if err != nil {
			return fmt.Errorf("failed to clean uploads: %w", err)
		}

		fmt.Printf("Removed %d stale file(s) from %s\n", removed, cfg.UploadDir)
		return nil
	},
}

func init() {
	cleanUploadsCmd.Flags().Int("older-than", 30, "Delete files older than this many minutes")
	rootCmd.AddCommand(cleanUploadsCmd)
}
