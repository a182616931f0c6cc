package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("R2_BUCKET_NAME", "assets")
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.GeminiModel != "gemini-2.5-flash-image" {
		t.Fatalf("GeminiModel mismatch: got %q", cfg.GeminiModel)
	}
	if cfg.VeoModel != "veo-2.0-generate-001" {
		t.Fatalf("VeoModel mismatch: got %q", cfg.VeoModel)
	}
	if cfg.FirecrawlBaseURL != "https://api.firecrawl.dev/v1" {
		t.Fatalf("FirecrawlBaseURL mismatch: got %q", cfg.FirecrawlBaseURL)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("MaxUploadBytes mismatch: got %d", cfg.MaxUploadBytes)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("HTTPReadTimeout mismatch: got %v", cfg.HTTPReadTimeout)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("R2_BUCKET_NAME", "assets")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRequiresBucketName(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("R2_BUCKET_NAME", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing R2_BUCKET_NAME")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("R2_BUCKET_NAME", "assets")
	t.Setenv("PORT", "1919")
	t.Setenv("VEO_MODEL", "veo-3.0-generate-001")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "1919" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.VeoModel != "veo-3.0-generate-001" {
		t.Fatalf("VeoModel mismatch: got %q", cfg.VeoModel)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("MaxUploadBytes mismatch: got %d", cfg.MaxUploadBytes)
	}
}
