// Package uploads maintains the upload staging directory: processed files
// accumulate there and are swept once they are older than a retention
// window.
package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"docextract/internal/logger"
)

// DefaultMaxAge is the retention window for uploaded files.
const DefaultMaxAge = 30 * time.Minute

// Clean removes document files (pdf, png, jpg, jpeg, eml) older than maxAge
// from dir and returns how many were deleted. Individual deletion failures
// are logged and skipped; only a directory read failure is fatal.
func Clean(dir string, maxAge time.Duration) (int, error) {
	log := logger.WithComponent("uploads")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !staleCandidate(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to delete stale upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", dir).Msg("Stale uploads cleaned")
	}
	return removed, nil
}

func staleCandidate(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".eml":
		return true
	default:
		return false
	}
}
