package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsWithoutSleepOnFirstTry(t *testing.T) {
	calls := 0
	sched := BackoffSchedule{Initial: time.Hour, Max: time.Hour, Multiplier: 2, Attempts: 3}

	err := Retry(context.Background(), sched, nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterAllAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	sched := BackoffSchedule{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2, Attempts: 3}

	err := Retry(context.Background(), sched, nil, func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsEarlyWhenShouldRetryReturnsFalse(t *testing.T) {
	calls := 0
	boom := errors.New("not retryable")
	sched := BackoffSchedule{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 2, Attempts: 5}

	err := Retry(context.Background(), sched, func(error) bool { return false }, func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	sched := BackoffSchedule{Initial: time.Hour, Max: time.Hour, Multiplier: 2, Attempts: 3}
	calls := 0

	err := Retry(ctx, sched, nil, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
