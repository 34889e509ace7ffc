// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/dmdm/stoma-go/internal/config"
)

// RetryConfig configures the bounded exponential backoff shared by the
// analyser and indexer when they call out to the extraction and search
// services.
type RetryConfig struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	JitterFactor    float64
	RetryableErrors []string
}

// DefaultRetryConfig returns sensible defaults for the extraction/search
// round trips: a handful of retries on transient network and 5xx errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.1,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"429",
			"500",
			"502",
			"503",
			"504",
			"temporarily unavailable",
			"too many requests",
			"ECONNREFUSED",
			"ETIMEDOUT",
			"ECONNRESET",
		},
	}
}

// RetryConfigFromConfig maps the config file's retry section onto a
// RetryConfig, keeping the transient-error substring list fixed.
func RetryConfigFromConfig(c config.RetryConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	if c.MaxRetries > 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	if c.BaseDelay > 0 {
		cfg.BaseDelay = c.BaseDelay
	}
	if c.MaxDelay > 0 {
		cfg.MaxDelay = c.MaxDelay
	}
	if c.JitterFactor > 0 {
		cfg.JitterFactor = c.JitterFactor
	}
	return cfg
}

// Retryer runs an operation with exponential backoff and jitter, bailing
// out immediately on errors it doesn't recognize as transient.
type Retryer struct {
	config RetryConfig
}

func NewRetryer(cfg RetryConfig) *Retryer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.JitterFactor <= 0 {
		cfg.JitterFactor = 0.1
	}
	return &Retryer{config: cfg}
}

// Do executes fn, retrying transient failures with backoff. A permanent
// (non-transient) error is returned on the first attempt.
func (r *Retryer) Do(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.isRetryable(err) {
			slog.Debug("non-retryable error", "operation", operation, "error", err)
			return err
		}

		if attempt >= r.config.MaxRetries {
			slog.Warn("max retries exceeded", "operation", operation, "attempts", attempt+1, "error", err)
			return &RetryError{Operation: operation, Attempts: attempt + 1, LastError: err, IsExhausted: true}
		}

		delay := r.calculateDelay(attempt)
		slog.Debug("retrying operation", "operation", operation, "attempt", attempt+1,
			"max_attempts", r.config.MaxRetries+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (r *Retryer) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retryErr *RetryError
	if errors.As(err, &retryErr) && retryErr.IsExhausted {
		return false
	}

	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range r.config.RetryableErrors {
		if strings.Contains(errStr, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func (r *Retryer) calculateDelay(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * r.config.BaseDelay

	jitter := time.Duration(rand.Float64() * float64(delay) * r.config.JitterFactor)
	if rand.Float64() < 0.5 {
		delay -= jitter
	} else {
		delay += jitter
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

// RetryError wraps the last error after all retry attempts were exhausted.
type RetryError struct {
	Operation   string
	Attempts    int
	LastError   error
	IsExhausted bool
}

func (e *RetryError) Error() string {
	if e.IsExhausted {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.LastError)
	}
	return fmt.Sprintf("%s failed (attempt %d): %v", e.Operation, e.Attempts, e.LastError)
}

func (e *RetryError) Unwrap() error { return e.LastError }

// IsRetryExhausted reports whether err is a RetryError produced after the
// retry budget ran out.
func IsRetryExhausted(err error) bool {
	var retryErr *RetryError
	return errors.As(err, &retryErr) && retryErr.IsExhausted
}
