package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds OpenAPI metadata for spec generation. ServerURL is the
// address clients should call, for deployments behind a proxy; when empty
// the document lists the API base path.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	Title       string
	Description string
	ServerURL   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Server returns the server entry for the document.
func (c *Config) Server(basePath string) string {
	if c.ServerURL != "" {
		return c.ServerURL
	}
	return basePath
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.ServerURL != "" {
		c.ServerURL = overlay.ServerURL
	}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "Patentbot API"
	}
	if c.Description == "" {
		c.Description = "Office-action response drafting: case pipeline and claim-by-claim rejection resolution."
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	if env.Title != "" {
		if v := os.Getenv(env.Title); v != "" {
			c.Title = v
		}
	}
	if env.Description != "" {
		if v := os.Getenv(env.Description); v != "" {
			c.Description = v
		}
	}
	if env.ServerURL != "" {
		if v := os.Getenv(env.ServerURL); v != "" {
			c.ServerURL = v
		}
	}
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return nil
	}
	c.ServerURL = strings.TrimSuffix(c.ServerURL, "/")
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server_url: %q", c.ServerURL)
	}
	return nil
}
