package config

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OCR_BACKEND", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
		"DOCUMENT_AI_PROCESSOR_ID", "OPENAI_API_KEY", "OPENAI_MODEL",
		"OPENAI_TEMPERATURE", "CACHE_DIR", "MAX_CACHE_FILES", "UPLOAD_DIR",
		"ALLOWED_EXTENSIONS", "DEFAULT_PROMPT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCRBackend != BackendTesseract {
		t.Errorf("OCRBackend = %q, want tesseract default", cfg.OCRBackend)
	}
	if cfg.MaxCacheFiles != 10 {
		t.Errorf("MaxCacheFiles = %d, want 10", cfg.MaxCacheFiles)
	}
	if cfg.OpenAITemperature != 0.3 {
		t.Errorf("OpenAITemperature = %v, want 0.3", cfg.OpenAITemperature)
	}
	if cfg.Prompt() != DefaultPrompt {
		t.Error("Prompt() should fall back to DefaultPrompt")
	}
	want := []string{"pdf", "png", "jpg", "jpeg", "eml"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("AllowedExtensions = %v, want %v", cfg.AllowedExtensions, want)
	}
	for i, ext := range want {
		if cfg.AllowedExtensions[i] != ext {
			t.Errorf("AllowedExtensions[%d] = %q, want %q", i, cfg.AllowedExtensions[i], ext)
		}
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_BACKEND", "easyocr")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OCR_BACKEND") {
		t.Fatalf("err = %v, want OCR_BACKEND validation failure", err)
	}
}

func TestLoadCloudBackendRequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_BACKEND", BackendVision)

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GOOGLE_CLOUD_PROJECT") {
		t.Fatalf("err = %v, want missing project failure", err)
	}

	t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with project set: %v", err)
	}
}

func TestLoadDocumentAIRequiresProcessor(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_BACKEND", BackendDocumentAI)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DOCUMENT_AI_PROCESSOR_ID") {
		t.Fatalf("err = %v, want missing processor failure", err)
	}
}

func TestLoadRejectsNonPositiveCacheBound(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_CACHE_FILES", "0")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MAX_CACHE_FILES") {
		t.Fatalf("err = %v, want cache bound validation failure", err)
	}
}

func TestPromptOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_PROMPT", "Extract only totals.")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt() != "Extract only totals." {
		t.Errorf("Prompt() = %q, want configured override", cfg.Prompt())
	}
}

func TestAllowed(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, ext := range []string{"pdf", ".PDF", "jpeg", ".eml"} {
		if !cfg.Allowed(ext) {
			t.Errorf("Allowed(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"xlsx", ".docx", ""} {
		if cfg.Allowed(ext) {
			t.Errorf("Allowed(%q) = true, want false", ext)
		}
	}
}
