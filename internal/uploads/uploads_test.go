package uploads

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestCleanRemovesOnlyStaleDocuments(t *testing.T) {
	dir := t.TempDir()
	stale := writeAged(t, dir, "old.pdf", time.Hour)
	fresh := writeAged(t, dir, "new.png", time.Minute)

	removed, err := Clean(dir, DefaultMaxAge)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file was deleted")
	}
}

func TestCleanIgnoresNonDocumentFiles(t *testing.T) {
	dir := t.TempDir()
	other := writeAged(t, dir, "notes.txt", 2*time.Hour)

	removed, err := Clean(dir, DefaultMaxAge)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-document file was deleted")
	}
}

func TestCleanSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested.pdf")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stamp := time.Now().Add(-time.Hour)
	if err := os.Chtimes(sub, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := Clean(dir, DefaultMaxAge)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Error("directory was removed")
	}
}

func TestCleanMissingDirectoryFails(t *testing.T) {
	if _, err := Clean(filepath.Join(t.TempDir(), "absent"), DefaultMaxAge); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
