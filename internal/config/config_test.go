package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("JOB_RETENTION_SECONDS", "")
	t.Setenv("EXTRACT_MAX_INPUT_BYTES", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NATSSubject != "bills.stages" {
		t.Fatalf("expected default subject bills.stages, got %q", cfg.NATSSubject)
	}
	if cfg.JobRetentionSeconds != 500 {
		t.Fatalf("expected default retention 500, got %d", cfg.JobRetentionSeconds)
	}
	if cfg.ExtractMaxInputBytes != 131072 {
		t.Fatalf("expected default extract input limit 131072, got %d", cfg.ExtractMaxInputBytes)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("JOB_RETENTION_SECONDS", "60")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JobRetentionSeconds != 60 {
		t.Fatalf("expected retention 60, got %d", cfg.JobRetentionSeconds)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadAppliesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_port: \"8080\"\nopenai_model: gpt-test\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected api port 8080 from file, got %q", cfg.APIPort)
	}
	if cfg.OpenAIModel != "gpt-test" {
		t.Fatalf("expected model override from file, got %q", cfg.OpenAIModel)
	}
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_port: [unclosed"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}
