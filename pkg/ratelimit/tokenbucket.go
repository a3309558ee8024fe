// Package ratelimit implements the core's resource guards (C9): a
// continuous-refill token bucket, a sliding-window limiter, and a circuit
// breaker (spec §4.9). Grounded on
// IAmSoThirsty-Project-AI/octoreflex/internal/budget/token_bucket.go's
// mutex-guarded counter plus atomic lifetime counters, generalized from a
// periodic full-refill bucket (cost-model keyed by escalation state) to a
// continuous per-second refill keyed by Consume(n), as spec §4.9 requires
// ("capacity, refillPerSec").
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Bucket is a thread-safe, continuously-refilling token bucket.
type Bucket struct {
	mu           sync.Mutex
	capacity     float64
	tokens       float64
	refillPerSec float64
	lastRefill   time.Time

	consumedTotal atomic.Uint64
}

// NewBucket creates a full bucket of capacity tokens that refills at
// refillPerSec tokens/second, capped at capacity.
func NewBucket(capacity int, refillPerSec float64) *Bucket {
	return &Bucket{
		capacity:     float64(capacity),
		tokens:       float64(capacity),
		refillPerSec: refillPerSec,
		lastRefill:   time.Now(),
	}
}

// refillLocked tops up tokens for elapsed wall-clock time. Caller holds mu.
func (b *Bucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillPerSec
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// TryConsume attempts to take n tokens without blocking. Returns true if
// they were available.
func (b *Bucket) TryConsume(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	if b.tokens < float64(n) {
		return false
	}
	b.tokens -= float64(n)
	b.consumedTotal.Add(uint64(n))
	return true
}

// Consume blocks cooperatively until n tokens are available, the refill
// schedule can satisfy them, or ctx is done — whichever comes first (spec
// §4.9/§5: "blocks (cooperative) until refill or timeout"). Returns
// coreerr.ErrTimeout if ctx is cancelled first.
func (b *Bucket) Consume(ctx context.Context, n int) error {
	for {
		if b.TryConsume(n) {
			return nil
		}

		wait := b.waitFor(n)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return coreerr.Wrap(coreerr.ErrTimeout, "RATE_LIMIT_WAIT", "", ctx.Err())
		}
	}
}

// waitFor estimates how long until n tokens will be available, given the
// configured refill rate. Never returns less than a small positive
// duration so Consume always makes progress.
func (b *Bucket) waitFor(n int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	deficit := float64(n) - b.tokens
	if deficit <= 0 || b.refillPerSec <= 0 {
		return time.Millisecond
	}
	secs := deficit / b.refillPerSec
	return time.Duration(secs * float64(time.Second))
}

// Remaining reports the current token count (fractional tokens truncated).
func (b *Bucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	return int(b.tokens)
}

// Capacity returns the bucket's maximum token count.
func (b *Bucket) Capacity() int { return int(b.capacity) }

// ConsumedTotal returns the lifetime total of tokens consumed.
func (b *Bucket) ConsumedTotal() uint64 { return b.consumedTotal.Load() }
