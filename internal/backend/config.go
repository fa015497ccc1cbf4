package backend

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/patentbot/pkg/retry"
)

// Config holds connection settings for the remote processing service.
type Config struct {
	BaseURL         string       `toml:"base_url"`
	Timeout         string       `toml:"timeout"`
	StreamChunkSize int          `toml:"stream_chunk_size"`
	RateLimit       float64      `toml:"rate_limit"`
	RateBurst       int          `toml:"rate_burst"`
	Retry           retry.Policy `toml:"retry"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL         string
	Timeout         string
	StreamChunkSize string
	RateLimit       string
	RateBurst       string
	Retry           *retry.Env
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	var retryEnv *retry.Env
	if env != nil {
		c.loadEnv(env)
		retryEnv = env.Retry
	}
	if err := c.Retry.Finalize(retryEnv); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.StreamChunkSize != 0 {
		c.StreamChunkSize = overlay.StreamChunkSize
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.RateBurst != 0 {
		c.RateBurst = overlay.RateBurst
	}
	c.Retry.Merge(&overlay.Retry)
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout == "" {
		c.Timeout = "15m"
	}
	if c.StreamChunkSize == 0 {
		c.StreamChunkSize = 1024
	}
	if c.RateLimit == 0 {
		c.RateLimit = 2
	}
	if c.RateBurst == 0 {
		c.RateBurst = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.StreamChunkSize != "" {
		if v := os.Getenv(env.StreamChunkSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.StreamChunkSize = n
			}
		}
	}
	if env.RateLimit != "" {
		if v := os.Getenv(env.RateLimit); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.RateLimit = f
			}
		}
	}
	if env.RateBurst != "" {
		if v := os.Getenv(env.RateBurst); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RateBurst = n
			}
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.StreamChunkSize < 1 {
		return fmt.Errorf("stream_chunk_size must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be positive")
	}
	return nil
}
