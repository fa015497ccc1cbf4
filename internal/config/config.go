package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/patentbot/internal/backend"
	"github.com/JaimeStill/patentbot/pkg/auth"
	"github.com/JaimeStill/patentbot/pkg/database"
	"github.com/JaimeStill/patentbot/pkg/retry"
	"github.com/JaimeStill/patentbot/pkg/storage"
	"github.com/JaimeStill/patentbot/pkg/telemetry"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPatentbotEnv             = "PATENTBOT_ENV"
	EnvPatentbotShutdownTimeout = "PATENTBOT_SHUTDOWN_TIMEOUT"
	EnvPatentbotVersion         = "PATENTBOT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PATENTBOT_DB_HOST",
	Port:            "PATENTBOT_DB_PORT",
	Name:            "PATENTBOT_DB_NAME",
	User:            "PATENTBOT_DB_USER",
	Password:        "PATENTBOT_DB_PASSWORD",
	SSLMode:         "PATENTBOT_DB_SSL_MODE",
	MaxOpenConns:    "PATENTBOT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PATENTBOT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PATENTBOT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PATENTBOT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PATENTBOT_STORAGE_CONTAINER_NAME",
	ConnectionString: "PATENTBOT_STORAGE_CONNECTION_STRING",
	AccountURL:       "PATENTBOT_STORAGE_ACCOUNT_URL",
}

var backendEnv = &backend.Env{
	BaseURL:         "PATENTBOT_BACKEND_BASE_URL",
	Timeout:         "PATENTBOT_BACKEND_TIMEOUT",
	StreamChunkSize: "PATENTBOT_BACKEND_STREAM_CHUNK_SIZE",
	RateLimit:       "PATENTBOT_BACKEND_RATE_LIMIT",
	RateBurst:       "PATENTBOT_BACKEND_RATE_BURST",
	Retry: &retry.Env{
		MaxAttempts:     "PATENTBOT_BACKEND_RETRY_MAX_ATTEMPTS",
		InitialInterval: "PATENTBOT_BACKEND_RETRY_INITIAL_INTERVAL",
		MaxInterval:     "PATENTBOT_BACKEND_RETRY_MAX_INTERVAL",
	},
}

var authEnv = &auth.Env{
	Enabled:       "PATENTBOT_AUTH_ENABLED",
	IssuerURL:     "PATENTBOT_AUTH_ISSUER_URL",
	ClientID:      "PATENTBOT_AUTH_CLIENT_ID",
	OperatorClaim: "PATENTBOT_AUTH_OPERATOR_CLAIM",
}

var telemetryEnv = &telemetry.Env{
	Enabled:     "PATENTBOT_TELEMETRY_ENABLED",
	Endpoint:    "PATENTBOT_TELEMETRY_ENDPOINT",
	ServiceName: "PATENTBOT_TELEMETRY_SERVICE_NAME",
	SampleRatio: "PATENTBOT_TELEMETRY_SAMPLE_RATIO",
}

// Config is the root configuration for the patentbot service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Backend         backend.Config   `toml:"backend"`
	Auth            auth.Config      `toml:"auth"`
	Telemetry       telemetry.Config `toml:"telemetry"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the PATENTBOT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPatentbotEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Backend.Merge(&overlay.Backend)
	c.Auth.Merge(&overlay.Auth)
	c.Telemetry.Merge(&overlay.Telemetry)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Backend.Finalize(backendEnv); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Telemetry.Finalize(telemetryEnv); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPatentbotShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPatentbotVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPatentbotEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
