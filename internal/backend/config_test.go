package backend_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/patentbot/internal/backend"
	"github.com/JaimeStill/patentbot/pkg/retry"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg backend.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		if cfg.BaseURL != "http://localhost:8000" {
			t.Errorf("base_url = %s", cfg.BaseURL)
		}
		if cfg.TimeoutDuration() != 15*time.Minute {
			t.Errorf("timeout = %v", cfg.TimeoutDuration())
		}
		if cfg.StreamChunkSize != 1024 {
			t.Errorf("stream_chunk_size = %d", cfg.StreamChunkSize)
		}
		if cfg.Retry.MaxAttempts != 3 {
			t.Errorf("retry.max_attempts = %d", cfg.Retry.MaxAttempts)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_BACKEND_URL", "https://oa.example.com")
		t.Setenv("TEST_BACKEND_TIMEOUT", "2m")
		t.Setenv("TEST_BACKEND_ATTEMPTS", "5")

		var cfg backend.Config
		err := cfg.Finalize(&backend.Env{
			BaseURL: "TEST_BACKEND_URL",
			Timeout: "TEST_BACKEND_TIMEOUT",
			Retry:   &retry.Env{MaxAttempts: "TEST_BACKEND_ATTEMPTS"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.BaseURL != "https://oa.example.com" || cfg.TimeoutDuration() != 2*time.Minute {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Retry.MaxAttempts != 5 {
			t.Errorf("retry.max_attempts = %d", cfg.Retry.MaxAttempts)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []backend.Config{
			{BaseURL: "not a url"},
			{Timeout: "forever"},
			{Timeout: "0s"},
			{Timeout: "-5m"},
			{RateLimit: -1},
		}
		for _, cfg := range tests {
			if err := cfg.Finalize(nil); err == nil {
				t.Errorf("expected error for %+v", cfg)
			}
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := backend.Config{BaseURL: "http://a", Timeout: "1m", Retry: retry.Policy{MaxAttempts: 2}}
	base.Merge(&backend.Config{Timeout: "3m", Retry: retry.Policy{MaxAttempts: 4}})

	if base.BaseURL != "http://a" || base.Timeout != "3m" || base.Retry.MaxAttempts != 4 {
		t.Errorf("merged = %+v", base)
	}
}
