package auth

import (
	"errors"
	"os"
	"strconv"
)

// Config controls bearer-token authentication of API requests.
type Config struct {
	Enabled       bool   `toml:"enabled"`
	IssuerURL     string `toml:"issuer_url"`
	ClientID      string `toml:"client_id"`
	OperatorClaim string `toml:"operator_claim"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled       string
	IssuerURL     string
	ClientID      string
	OperatorClaim string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.OperatorClaim != "" {
		c.OperatorClaim = overlay.OperatorClaim
	}
}

func (c *Config) loadDefaults() {
	if c.OperatorClaim == "" {
		c.OperatorClaim = "sub"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.IssuerURL != "" {
		if v := os.Getenv(env.IssuerURL); v != "" {
			c.IssuerURL = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.OperatorClaim != "" {
		if v := os.Getenv(env.OperatorClaim); v != "" {
			c.OperatorClaim = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.IssuerURL == "" {
		return errors.New("issuer_url required when auth is enabled")
	}
	if c.ClientID == "" {
		return errors.New("client_id required when auth is enabled")
	}
	return nil
}
