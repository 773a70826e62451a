// Package retry provides a bounded retry executor with exponential backoff.
//
// Whether a failure is retried is decided by its error category: only
// categories whose recovery strategy is retry_with_backoff (connection
// loss, resource exhaustion) are attempted again. Credential and
// permission failures propagate immediately; retrying cannot change
// their outcome.
//
// Limitation: the executor cannot tell a failure to execute from a
// failure to report. A non-idempotent statement that succeeded server-side
// but lost its acknowledgement WILL be re-executed. Callers must only
// wrap idempotent operations.
package retry

import (
	"context"
	"time"

	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/logger"
)

// Policy configures the retry executor. The zero value is not usable;
// construct with New or Default.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap for the exponential backoff
	Log         *logger.Logger
}

// Default returns the policy used when the caller does not supply one:
// three attempts, 250ms base delay, 5s cap.
func Default() Policy {
	return New(3, 250*time.Millisecond)
}

// New builds a Policy with the given attempt budget and base delay.
func New(maxAttempts int, baseDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    5 * time.Second,
		Log:         logger.Nop(),
	}
}

// Do invokes op until it succeeds, the error is not retryable, or the
// attempt budget is exhausted. It returns the number of attempts made
// and the last error (nil on success).
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	log := p.Log
	if log == nil {
		log = logger.Nop()
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return attempt, nil
		}

		category := errs.Classify(err)
		if errs.RecoveryFor(category) != errs.RetryWithBackoff {
			return attempt, err
		}
		if attempt >= p.MaxAttempts {
			return attempt, err
		}

		delay := p.backoff(attempt)
		log.Debugf("attempt %d/%d failed (%s), retrying in %s", attempt, p.MaxAttempts, category, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return attempt, err
		}
	}
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, int, error) {
	var result T
	attempts, err := p.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, attempts, err
}

// backoff returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
