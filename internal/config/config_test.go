package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.OCREngine != "paddle" {
		t.Errorf("OCREngine = %q, want paddle", cfg.OCREngine)
	}
	if cfg.DefaultMaxTokens != 512 {
		t.Errorf("DefaultMaxTokens = %d, want 512", cfg.DefaultMaxTokens)
	}
	if cfg.DefaultResizeMax != 1200 {
		t.Errorf("DefaultResizeMax = %d, want 1200", cfg.DefaultResizeMax)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 10MiB", cfg.MaxUploadBytes)
	}
	if cfg.Retention != 168*time.Hour {
		t.Errorf("Retention = %v, want 168h", cfg.Retention)
	}
	if cfg.AuthRequired {
		t.Error("AuthRequired should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("OCR_ENGINE", "tesseract")
	t.Setenv("DEFAULT_MAX_TOKENS", "1024")
	t.Setenv("MAX_UPLOAD_MB", "25")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("INFER_TIMEOUT_SECONDS", "30")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.OCREngine != "tesseract" {
		t.Errorf("OCREngine = %q, want tesseract", cfg.OCREngine)
	}
	if cfg.DefaultMaxTokens != 1024 {
		t.Errorf("DefaultMaxTokens = %d, want 1024", cfg.DefaultMaxTokens)
	}
	if cfg.MaxUploadBytes != 25*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 25MiB", cfg.MaxUploadBytes)
	}
	if !cfg.AuthRequired {
		t.Error("AuthRequired = false, want true")
	}
	if cfg.InferTimeout != 30*time.Second {
		t.Errorf("InferTimeout = %v, want 30s", cfg.InferTimeout)
	}
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("AUTH_REQUIRED", "maybe")

	cfg := Load()

	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want default on bad input", cfg.MaxUploadBytes)
	}
	if cfg.AuthRequired {
		t.Error("AuthRequired should fall back to default on bad input")
	}
}

func TestArchiveConfigured(t *testing.T) {
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")

	if !Load().ArchiveConfigured() {
		t.Error("ArchiveConfigured = false with full S3 settings")
	}

	t.Setenv("S3_ENABLED", "false")
	if Load().ArchiveConfigured() {
		t.Error("ArchiveConfigured = true with S3 disabled")
	}
}
