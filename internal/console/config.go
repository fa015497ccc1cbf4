package console

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JaimeStill/patentbot/pkg/retry"
)

// Viper keys read by ConfigFrom.
const (
	KeyBaseURL      = "api.base_url"
	KeyToken        = "api.token"
	KeyTimeout      = "api.timeout"
	KeyMaxAttempts  = "retry.max_attempts"
	KeyInitialRetry = "retry.initial_interval"
	KeyMaxRetry     = "retry.max_interval"
)

// Config connects the console to a patentbot API.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   retry.Policy
}

// SetDefaults registers the default values of every console key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, "http://localhost:8080/api")
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyMaxAttempts, 3)
	v.SetDefault(KeyInitialRetry, "500ms")
	v.SetDefault(KeyMaxRetry, "5s")
}

// ConfigFrom reads and validates the console config from v.
func ConfigFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		BaseURL: strings.TrimSuffix(v.GetString(KeyBaseURL), "/"),
		Token:   v.GetString(KeyToken),
		Timeout: v.GetDuration(KeyTimeout),
		Retry: retry.Policy{
			MaxAttempts:     v.GetInt(KeyMaxAttempts),
			InitialInterval: v.GetString(KeyInitialRetry),
			MaxInterval:     v.GetString(KeyMaxRetry),
		},
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, fmt.Errorf("invalid %s %q", KeyBaseURL, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return cfg, fmt.Errorf("%s must be positive", KeyTimeout)
	}
	if err := cfg.Retry.Finalize(nil); err != nil {
		return cfg, fmt.Errorf("retry: %w", err)
	}

	return cfg, nil
}
