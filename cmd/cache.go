package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docextract/internal/cache"
	"docextract/internal/config"
	"docextract/internal/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the OCR content cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Evict the oldest cache entries down to the configured bound",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("cache-cmd")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		contentCache, err := cache.New(cfg.CacheDir)
		if err != nil {
			return err
		}
		if err := contentCache.EnforceLimit(cfg.MaxCacheFiles); err != nil {
			return err
		}

		count, err := contentCache.Len()
		if err != nil {
			return err
		}
		log.Info().Int("entries", count).Int("limit", cfg.MaxCacheFiles).Msg("Cache bound enforced")
		fmt.Printf("Cache contains %d entries (limit %d)\n", count, cfg.MaxCacheFiles)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached extraction result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		contentCache, err := cache.New(cfg.CacheDir)
		if err != nil {
			return err
		}
		if err := contentCache.Purge(); err != nil {
			return err
		}
		fmt.Println("Cache purged")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
