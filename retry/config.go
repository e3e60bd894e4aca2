// Package retry retries transient model backend failures with exponential
// backoff and jitter.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts (default: 3).
	// The initial request counts as attempt 1.
	MaxAttempts int `koanf:"max_attempts"`

	// InitialDelay is the base delay before the first retry (default: 500ms).
	InitialDelay time.Duration `koanf:"initial_delay"`

	// MaxDelay caps the delay between retries (default: 10s).
	MaxDelay time.Duration `koanf:"max_delay"`

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64 `koanf:"multiplier"`

	// Jitter adds randomness to prevent thundering herd (default: 0.1 = 10%).
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64 `koanf:"jitter"`
}

// DefaultConfig returns the default retry configuration: 3 attempts,
// 500ms initial delay doubling up to 10s, 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Enabled reports whether the config allows more than one attempt.
func (c Config) Enabled() bool {
	return c.MaxAttempts > 1
}

// Delay calculates the delay for a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 + jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	mult := c.Multiplier
	if mult <= 0 {
		mult = 1
	}

	delay := float64(c.InitialDelay) * math.Pow(mult, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
