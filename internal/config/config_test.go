package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendFile {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendFile)
	}
	if cfg.MaxWrongAttempts != 5 {
		t.Errorf("MaxWrongAttempts = %d, want 5", cfg.MaxWrongAttempts)
	}
	if cfg.ExtractionDuration() != time.Minute {
		t.Errorf("ExtractionDuration = %v, want 1m", cfg.ExtractionDuration())
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "libsql")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("EXTRACTION_SECONDS", "90")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendLibSQL || cfg.LogLevel != slog.LevelDebug || !cfg.SeedDemo {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ExtractionDuration() != 90*time.Second {
		t.Errorf("ExtractionDuration = %v", cfg.ExtractionDuration())
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown backend", "STORE_BACKEND", "postgres"},
		{"zero attempts", "MAX_WRONG_ATTEMPTS", "0"},
		{"zero extraction", "EXTRACTION_SECONDS", "0"},
		{"not a number", "MAX_WRONG_ATTEMPTS", "five"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}
