package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTryConsumeRespectsCapacity(t *testing.T) {
	b := NewBucket(2, 0)
	assert.True(t, b.TryConsume(1))
	assert.True(t, b.TryConsume(1))
	assert.False(t, b.TryConsume(1))
}

func TestBucketRefillsOverTime(t *testing.T) {
	b := NewBucket(1, 100) // 100 tokens/sec
	require.True(t, b.TryConsume(1))
	require.False(t, b.TryConsume(1))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.TryConsume(1))
}

func TestBucketConsumeBlocksThenSucceeds(t *testing.T) {
	b := NewBucket(1, 50) // refills 1 token every 20ms
	require.True(t, b.TryConsume(1))

	start := time.Now()
	err := b.Consume(context.Background(), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestBucketConsumeTimesOut(t *testing.T) {
	b := NewBucket(1, 0.01) // effectively never refills within the test window
	require.True(t, b.TryConsume(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Consume(ctx, 1)
	assert.Error(t, err)
}
