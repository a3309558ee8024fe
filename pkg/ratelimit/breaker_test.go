package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute, 1)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, Closed, b.CurrentState())
	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())

	err := b.Allow()
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.ErrCircuitOpen))
}

func TestBreakerHalfOpensAfterResetTimeout(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond, 1)
	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow())
	assert.Equal(t, HalfOpen, b.CurrentState())
}

func TestBreakerClosesAfterHalfOpenSuccesses(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond, 2)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.CurrentState())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.CurrentState())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond, 2)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())
}

func TestBreakerCallWrapsOutcome(t *testing.T) {
	b := NewBreaker(1, time.Minute, 1)
	boom := errors.New("boom")

	err := b.Call(func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Open, b.CurrentState())

	err = b.Call(func() error { return nil })
	assert.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.ErrCircuitOpen))
}
