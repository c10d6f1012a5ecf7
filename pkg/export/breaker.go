package export

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit-breaker states.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// requiredHalfOpenSuccesses is the number of consecutive successes needed in
// HalfOpen before the breaker closes again.
const requiredHalfOpenSuccesses = 3

// Breaker is the failure-threshold circuit breaker wrapping database calls.
// Each Retrier owns one Breaker, so its state is shared by every call made
// through that Retrier (one export run); it is not shared between Retriers
// or across the process. All transitions are serialized by a single mutex,
// with state reads happening inside the same critical section as the
// pre-check and post-update.
type Breaker struct {
	mu sync.Mutex

	state               BreakerState
	openUntil           time.Time
	consecutiveFailures int
	halfOpenSuccesses   int

	failureThreshold int
	openDuration     time.Duration
	now              func() time.Time
}

// NewBreaker constructs a Breaker in the Closed state.
func NewBreaker(failureThreshold int, openDuration time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed, transitioning Open->HalfOpen if
// the open window has expired. Returns ErrBreakerOpen if the call must
// short-circuit without contacting the database.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Before(b.openUntil) {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.halfOpenSuccesses = 0
		return nil
	default:
		return nil
	}
}

// RecordSuccess registers a successful call, closing the breaker once
// enough consecutive HalfOpen successes have accumulated.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= requiredHalfOpenSuccesses {
			b.state = BreakerClosed
			b.consecutiveFailures = 0
			b.halfOpenSuccesses = 0
		}
	case BreakerClosed:
		b.consecutiveFailures = 0
	}
}

// RecordFailure registers a failed call. In HalfOpen, any failure
// immediately re-opens the breaker. In Closed, the breaker
// opens once failureThreshold consecutive failures accrue.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.open()
	case BreakerClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openUntil = b.now().Add(b.openDuration)
	b.consecutiveFailures = 0
	b.halfOpenSuccesses = 0
}

// State returns the current breaker state (for Progress/Stats reporting).
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
