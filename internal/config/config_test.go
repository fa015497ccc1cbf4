package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/patentbot/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "2h"

[database]
host = "localhost"
port = 5432
name = "patentbot"
user = "patentbot"
password = "patentbot"

[storage]
container_name = "case-documents"
connection_string = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

[api]
base_path = "/api"
max_upload_size = "25MB"

[api.pagination]
default_page_size = 25
max_page_size = 50

[backend]
base_url = "http://claims.internal:8000"
timeout = "10m"
stream_chunk_size = 2048

[backend.retry]
max_attempts = 5

[auth]
enabled = false
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[backend]
base_url = "https://claims.example.com"
`

// minimalConfig holds only the fields without defaults.
const minimalConfig = `
[database]
user = "patentbot"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.User != "patentbot" {
		t.Errorf("database user: got %s", cfg.Database.User)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("default page size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 25*1024*1024 {
		t.Errorf("max upload size: got %d", got)
	}
	if cfg.Backend.BaseURL != "http://claims.internal:8000" {
		t.Errorf("backend base url: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutDuration() != 10*time.Minute {
		t.Errorf("backend timeout: got %v", cfg.Backend.TimeoutDuration())
	}
	if cfg.Backend.StreamChunkSize != 2048 {
		t.Errorf("stream chunk size: got %d", cfg.Backend.StreamChunkSize)
	}
	if cfg.Backend.Retry.MaxAttempts != 5 {
		t.Errorf("retry attempts: got %d", cfg.Backend.Retry.MaxAttempts)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	t.Chdir(dir)
	t.Setenv(config.EnvPatentbotEnv, "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("database host: got %s, want prodhost", cfg.Database.Host)
	}
	if cfg.Backend.BaseURL != "https://claims.example.com" {
		t.Errorf("backend base url: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.StreamChunkSize != 2048 {
		t.Errorf("overlay cleared stream chunk size: got %d", cfg.Backend.StreamChunkSize)
	}
	if cfg.Env() != "prod" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	t.Setenv("PATENTBOT_SERVER_PORT", "7070")
	t.Setenv("PATENTBOT_DB_HOST", "envhost")
	t.Setenv("PATENTBOT_BACKEND_BASE_URL", "http://env-backend:8000")
	t.Setenv("PATENTBOT_BACKEND_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("PATENTBOT_API_PROGRESS_TTL", "10m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Host != "envhost" {
		t.Errorf("database host: got %s", cfg.Database.Host)
	}
	if cfg.Backend.BaseURL != "http://env-backend:8000" {
		t.Errorf("backend base url: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Retry.MaxAttempts != 2 {
		t.Errorf("retry attempts: got %d", cfg.Backend.Retry.MaxAttempts)
	}
	if cfg.API.ProgressTTLDuration() != 10*time.Minute {
		t.Errorf("progress ttl: got %v", cfg.API.ProgressTTLDuration())
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, minimalConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("server addr: got %s", cfg.Server.Addr())
	}
	if cfg.Server.HeaderTimeoutDuration() != 10*time.Second {
		t.Errorf("header timeout: got %v", cfg.Server.HeaderTimeoutDuration())
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("base path: got %s", cfg.API.BasePath)
	}
	if cfg.API.MaxUploadSizeBytes() != 100*1024*1024 {
		t.Errorf("max upload size: got %d", cfg.API.MaxUploadSizeBytes())
	}
	if cfg.API.ProgressTTLDuration() != time.Hour {
		t.Errorf("progress ttl: got %v", cfg.API.ProgressTTLDuration())
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("backend base url: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.StreamChunkSize != 1024 {
		t.Errorf("stream chunk size: got %d", cfg.Backend.StreamChunkSize)
	}
	if cfg.Auth.Enabled || cfg.Auth.OperatorClaim != "sub" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}
	if cfg.Telemetry.Active() {
		t.Error("telemetry active by default")
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PATENTBOT_DB_USER", "patentbot")
	t.Setenv("PATENTBOT_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Database.Name != "patentbot" {
		t.Errorf("database name: got %s", cfg.Database.Name)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"malformed toml", `[server`},
		{"bad shutdown timeout", "shutdown_timeout = \"soon\"\n" + minimalConfig},
		{"bad port", minimalConfig + "\n[server]\nport = 70000\n"},
		{"bad upload size", minimalConfig + "\n[api]\nmax_upload_size = \"lots\"\n"},
		{"bad progress ttl", minimalConfig + "\n[api]\nprogress_ttl = \"-1m\"\n"},
		{"bad backend url", minimalConfig + "\n[backend]\nbase_url = \"not a url\"\n"},
		{"zero backend timeout", minimalConfig + "\n[backend]\ntimeout = \"0s\"\n"},
		{"auth without issuer", minimalConfig + "\n[auth]\nenabled = true\n"},
		{"missing database user", "[storage]\nconnection_string = \"conn\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.config)
			t.Chdir(dir)

			if _, err := config.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnvDefault(t *testing.T) {
	t.Setenv(config.EnvPatentbotEnv, "")
	cfg := &config.Config{}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}
