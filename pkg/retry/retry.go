// Package retry runs operations with exponential backoff, retrying only the
// failures a caller classifies as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds retry attempts and the delay between them.
type Policy struct {
	MaxAttempts     int    `toml:"max_attempts"`
	InitialInterval string `toml:"initial_interval"`
	MaxInterval     string `toml:"max_interval"`
}

// Env maps policy fields to environment variable names for override injection.
type Env struct {
	MaxAttempts     string
	InitialInterval string
	MaxInterval     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (p *Policy) Finalize(env *Env) error {
	p.loadDefaults()
	if env != nil {
		p.loadEnv(env)
	}
	return p.validate()
}

// Merge overwrites non-zero fields from overlay.
func (p *Policy) Merge(overlay *Policy) {
	if overlay.MaxAttempts != 0 {
		p.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.InitialInterval != "" {
		p.InitialInterval = overlay.InitialInterval
	}
	if overlay.MaxInterval != "" {
		p.MaxInterval = overlay.MaxInterval
	}
}

// InitialIntervalDuration returns InitialInterval as a time.Duration.
func (p *Policy) InitialIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(p.InitialInterval)
	return d
}

// MaxIntervalDuration returns MaxInterval as a time.Duration.
func (p *Policy) MaxIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(p.MaxInterval)
	return d
}

func (p *Policy) loadDefaults() {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.InitialInterval == "" {
		p.InitialInterval = "1s"
	}
	if p.MaxInterval == "" {
		p.MaxInterval = "30s"
	}
}

func (p *Policy) loadEnv(env *Env) {
	if env.MaxAttempts != "" {
		if v := os.Getenv(env.MaxAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				p.MaxAttempts = n
			}
		}
	}
	if env.InitialInterval != "" {
		if v := os.Getenv(env.InitialInterval); v != "" {
			p.InitialInterval = v
		}
	}
	if env.MaxInterval != "" {
		if v := os.Getenv(env.MaxInterval); v != "" {
			p.MaxInterval = v
		}
	}
}

func (p *Policy) validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	initial, err := time.ParseDuration(p.InitialInterval)
	if err != nil {
		return fmt.Errorf("invalid initial_interval: %w", err)
	}
	maxInterval, err := time.ParseDuration(p.MaxInterval)
	if err != nil {
		return fmt.Errorf("invalid max_interval: %w", err)
	}
	if initial > maxInterval {
		return fmt.Errorf("initial_interval cannot exceed max_interval")
	}
	return nil
}

// Classifier reports whether err is transient and worth another attempt.
type Classifier func(err error) bool

// Notify is called before each retry with the failed attempt's error and the upcoming delay.
type Notify func(err error, delay time.Duration)

// Do runs op until it succeeds, fails with an error the classifier rejects,
// exhausts the policy's attempts, or ctx is done. The last error is returned
// unwrapped.
func Do[T any](ctx context.Context, p Policy, op func() (T, error), retryable Classifier, notify Notify) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialIntervalDuration()
	b.MaxInterval = p.MaxIntervalDuration()

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(p.MaxAttempts, 1))),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(notify)))
	}

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)

	// the final attempt can return before Retry unwraps a permanent error
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return v, err
}

// IsContextError reports whether err came from context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
