package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	require.Equal(t, BreakerClosed, b.State())

	require.NoError(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	require.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreakerHalfOpenRequiresConsecutiveSuccesses(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Allow()) // transitions Open -> HalfOpen
	require.Equal(t, BreakerHalfOpen, b.State())

	b.RecordSuccess()
	b.RecordSuccess()
	require.Equal(t, BreakerHalfOpen, b.State(), "not enough successes yet")

	b.RecordSuccess()
	require.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Allow())
	b.RecordFailure()
	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
}

func TestBreakerNonConsecutiveFailuresDoNotOpen(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	require.NoError(t, b.Allow())
	b.RecordFailure()
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	require.NoError(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, BreakerClosed, b.State())
}
