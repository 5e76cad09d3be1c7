// Package cache implements the content-addressed OCR result cache.
//
// Entries are flat JSON files on disk, one per content hash, so a process
// restart preserves the cache. Correctness depends on content-hash identity
// alone: identical bytes always map to the same entry, so concurrent writes
// for the same hash are idempotent and there is no TTL. The population is
// bounded; once it exceeds the configured limit the oldest entries (by file
// modification time) are evicted first.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
)

// ErrCacheCorruption marks an entry that exists on disk but cannot be
// decoded. It is informational: Get treats corruption as a miss.
var ErrCacheCorruption = errors.New("cache entry is corrupted")

// Entry is the persisted form of an extraction result.
type Entry struct {
	Pages      []string `json:"pages"`
	Confidence float64  `json:"confidence"`
}

// Cache is a bounded, disk-backed map from content hash to Entry.
// Safe for concurrent use.
type Cache struct {
	dir string
	mu  sync.Mutex
	log zerolog.Logger
}

// New creates the cache directory if needed and returns a Cache over it.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}
	return &Cache{
		dir: dir,
		log: logger.WithComponent("cache"),
	}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the entry for the given content hash. A missing, unreadable
// or corrupted entry is reported as a miss, never as a failure; corrupted
// files are removed so the slot can be rewritten.
func (c *Cache) Get(hash string) (*Entry, bool) {
	path := c.entryPath(hash)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("hash", hash).Msg("Cache entry unreadable, treating as miss")
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn().
			Err(ErrCacheCorruption).
			Str("hash", hash).
			Str("detail", err.Error()).
			Msg("Cache entry corrupted, treating as miss")
		c.mu.Lock()
		_ = os.Remove(path)
		c.mu.Unlock()
		return nil, false
	}

	return &entry, true
}

// Put persists the entry under the given content hash. The write goes
// through a temp file and rename so concurrent readers never observe a
// partially written entry.
func (c *Cache) Put(hash string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode entry %s: %w", hash, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.dir, hash+".*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write entry %s: %w", hash, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close entry %s: %w", hash, err)
	}
	if err := os.Rename(tmpName, c.entryPath(hash)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: store entry %s: %w", hash, err)
	}

	c.log.Debug().Str("hash", hash).Int("bytes", len(data)).Msg("Cache entry stored")
	return nil
}

// EnforceLimit deletes the oldest entries (by modification time) until the
// population is at most maxEntries.
func (c *Cache) EnforceLimit(maxEntries int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.list()
	if err != nil {
		return err
	}
	if len(entries) <= maxEntries {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})

	evict := entries[:len(entries)-maxEntries]
	for _, e := range evict {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache: evict %s: %w", e.path, err)
		}
	}

	c.log.Info().
		Int("evicted", len(evict)).
		Int("remaining", maxEntries).
		Msg("Cache limit enforced")
	return nil
}

// Purge removes every entry from the cache.
func (c *Cache) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.list()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache: purge %s: %w", e.path, err)
		}
	}

	c.log.Info().Int("removed", len(entries)).Msg("Cache purged")
	return nil
}

// Len reports the current number of entries.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.list()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

type fileInfo struct {
	path    string
	modTime time.Time
}

func (c *Cache) list() ([]fileInfo, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: read directory %s: %w", c.dir, err)
	}

	var out []fileInfo
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, fileInfo{
			path:    filepath.Join(c.dir, de.Name()),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}
