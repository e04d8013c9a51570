package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries).
	MaxRetries int
	// InitialDelay is the initial delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases after each retry.
	Multiplier float64
	// Jitter is the maximum random jitter to add (as a percentage of delay, 0-1).
	Jitter float64
}

// DefaultRetryConfig returns the defaults used for store operations.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// ConnectRetryConfig returns the retry policy used while a backing service
// is still starting, as happens under docker compose.
func ConnectRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

// Retry executes a function with exponential backoff retry.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	_, err := RetryWithResult(ctx, config, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult executes a function that returns a value with retry.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return result, err
		}

		// Don't sleep after the last attempt
		if attempt == config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(calculateDelay(config, attempt)):
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", config.MaxRetries, lastErr)
}

// calculateDelay calculates the delay for a given attempt with jitter.
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter > 0 {
		jitterAmount := delay * config.Jitter * rand.Float64()
		if rand.Float64() < 0.5 {
			delay -= jitterAmount
		} else {
			delay += jitterAmount
		}
	}

	return time.Duration(delay)
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"timeout",
	"temporary failure",
	"too many clients",
	"the database system is starting up",
	"i/o timeout",
	"no such host",
	"network is unreachable",
	"broken pipe",
}

// isRetryable reports whether err looks transient. Missing records, domain
// errors and context errors are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
