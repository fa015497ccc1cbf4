package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/patentbot/pkg/formatting"
	"github.com/JaimeStill/patentbot/pkg/middleware"
	"github.com/JaimeStill/patentbot/pkg/openapi"
	"github.com/JaimeStill/patentbot/pkg/pagination"
)

const (
	EnvAPIBasePath      = "PATENTBOT_API_BASE_PATH"
	EnvAPIMaxUploadSize = "PATENTBOT_API_MAX_UPLOAD_SIZE"
	EnvAPIProgressTTL   = "PATENTBOT_API_PROGRESS_TTL"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PATENTBOT_CORS_ENABLED",
	Origins:          "PATENTBOT_CORS_ORIGINS",
	AllowedMethods:   "PATENTBOT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PATENTBOT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PATENTBOT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PATENTBOT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PATENTBOT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PATENTBOT_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "PATENTBOT_OPENAPI_TITLE",
	Description: "PATENTBOT_OPENAPI_DESCRIPTION",
	ServerURL:   "PATENTBOT_OPENAPI_SERVER_URL",
}

// APIConfig holds API routing, upload limits, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	ProgressTTL   string                `toml:"progress_ttl"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// ProgressTTLDuration returns how long run progress logs are kept.
func (c *APIConfig) ProgressTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.ProgressTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.ProgressTTL != "" {
		c.ProgressTTL = overlay.ProgressTTL
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.ProgressTTL == "" {
		c.ProgressTTL = "1h"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvAPIProgressTTL); v != "" {
		c.ProgressTTL = v
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	d, err := time.ParseDuration(c.ProgressTTL)
	if err != nil {
		return fmt.Errorf("invalid progress_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("progress_ttl must be positive")
	}
	return nil
}
