package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Retryable marks an error as eligible for the retry policy (service
// unavailable, session expired, transient, I/O, timeout).
// GraphSource implementations should wrap classified-retryable failures
// with this so Retrier.Do knows to retry rather than propagate immediately.
type Retryable struct {
	Cause error
}

func (r *Retryable) Error() string { return r.Cause.Error() }
func (r *Retryable) Unwrap() error { return r.Cause }

// AsRetryable wraps err as retryable. A nil err yields a nil error.
func AsRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &Retryable{Cause: err}
}

func isRetryable(err error) bool {
	var r *Retryable
	return errors.As(err, &r)
}

// Retrier wraps every database call with exponential backoff plus jitter
// and a circuit breaker. It does not log intermediate attempts, only a
// single consolidated line on final give-up.
type Retrier struct {
	maxRetries    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	queryTimeout  time.Duration
	breaker       *Breaker
	logger        Logger
	rand          func() float64
}

// NewRetrier constructs a Retrier from the export configuration. The
// breaker's failure threshold and open duration are fixed constants here
// rather than additional user-facing knobs.
func NewRetrier(cfg Config, logger Logger) *Retrier {
	return &Retrier{
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		maxRetryDelay: cfg.MaxRetryDelay,
		queryTimeout:  cfg.QueryTimeout,
		breaker:       NewBreaker(5, 30*time.Second),
		logger:        logger,
		rand:          rand.Float64,
	}
}

// Do invokes fn, retrying on Retryable failures up to maxRetries times with
// backoff `retry_delay * 2^attempt`, clamped at maxRetryDelay, plus uniform
// jitter in [0, delay/4]. Non-retryable failures propagate immediately.
// Breaker state is checked once per attempt, inside the same call as the
// post-update.
func (r *Retrier) Do(ctx context.Context, call func(ctx context.Context) error) error {
	var firstErr, lastErr error
	var totalDelay time.Duration

	for attempt := 0; ; attempt++ {
		if err := r.breaker.Allow(); err != nil {
			return err
		}

		err := r.callWithDeadline(ctx, call)
		if err == nil {
			r.breaker.RecordSuccess()
			return nil
		}

		r.breaker.RecordFailure()

		if firstErr == nil {
			firstErr = err
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt >= r.maxRetries {
			break
		}

		delay := r.backoff(attempt)
		totalDelay += delay

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logger.Printf("export: retry exhausted after %d attempts (first cause: %v, last cause: %v, total delay: %s)",
		r.maxRetries+1, firstErr, lastErr, totalDelay)

	return fmt.Errorf("%w: %v", ErrConnection, lastErr)
}

// callWithDeadline applies the per-call query timeout to a single
// attempt. A zero timeout means no deadline beyond the caller's own
// context.
func (r *Retrier) callWithDeadline(ctx context.Context, call func(ctx context.Context) error) error {
	if r.queryTimeout <= 0 {
		return call(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	return call(attemptCtx)
}

// backoff computes retry_delay_ms * 2^attempt, clamped at max_retry_delay_ms,
// plus uniform jitter in [0, delay/4], the same attempt-indexed doubling
// shape as emergent-company-emergent's vertex client calculateBackoff.
func (r *Retrier) backoff(attempt int) time.Duration {
	delay := float64(r.retryDelay) * math.Pow(2, float64(attempt))
	if max := float64(r.maxRetryDelay); delay > max {
		delay = max
	}
	jitter := r.rand() * delay / 4
	return time.Duration(delay + jitter)
}
