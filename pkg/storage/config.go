package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Config holds Azure Blob Storage connection parameters. Either a connection
// string (shared key, e.g. Azurite) or an account URL authenticated through
// the default Azure credential chain must be provided.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "case-documents"
	}
}

func (c *Config) loadEnv(env *Env) {
	for dst, key := range map[*string]string{
		&c.ContainerName:    env.ContainerName,
		&c.ConnectionString: env.ConnectionString,
		&c.AccountURL:       env.AccountURL,
	} {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return errors.New("container_name required")
	}
	if c.ConnectionString == "" && c.AccountURL == "" {
		return errors.New("connection_string or account_url required")
	}
	if c.AccountURL != "" {
		if _, err := url.ParseRequestURI(c.AccountURL); err != nil {
			return fmt.Errorf("invalid account_url: %w", err)
		}
	}
	return nil
}
