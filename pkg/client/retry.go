package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiload_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiload_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first one.
	// Values <= 1 disable retrying.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential wait between attempts.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns a single-attempt configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    1,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// retryWithBackoff runs fn until it succeeds, returns a non-retriable error,
// the attempts are used up, or ctx is done.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	if cfg.MaxAttempts <= 1 {
		return fn()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialBackoff
	exp.MaxInterval = cfg.MaxBackoff
	exp.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(cfg.MaxAttempts-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return nil
		}
		if !shouldRetry(classOf(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		class := string(classOf(err))
		retriesTotal.WithLabelValues(class).Inc()
		logger.Warn().
			Err(err).
			Str("error_class", class).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")
	}

	err := backoff.RetryNotify(op, bo, notify)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctxErr)
	}

	class := classOf(err)
	if !shouldRetry(class) {
		return err
	}

	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Warn().
		Str("error_class", string(class)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, err)
}
