package ratelimit

import (
	"sync"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// State is one of the circuit breaker's three states (spec §4.9).
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker is a fault-isolation state machine: Closed → Open after
// failureThreshold consecutive failures, Open → HalfOpen after
// resetTimeout, HalfOpen → Closed after halfOpenRequests consecutive
// successes, else back to Open (spec §4.9/§8 property 6).
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration
	halfOpenRequests int

	state           State
	consecFailures  int
	consecSuccesses int
	openedAt        time.Time
}

// NewBreaker builds a Breaker starting Closed.
func NewBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenRequests int) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		halfOpenRequests: halfOpenRequests,
		state:            Closed,
	}
}

// Allow reports whether a call may proceed, transitioning Open → HalfOpen
// once resetTimeout has elapsed. Calls while Open fail fast with
// coreerr.ErrCircuitOpen without invoking the downstream (spec §8
// property 6).
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if time.Since(b.openedAt) >= b.resetTimeout {
			b.state = HalfOpen
			b.consecSuccesses = 0
			return nil
		}
		return coreerr.New(coreerr.ErrCircuitOpen, "CIRCUIT_OPEN", "circuit breaker is open", "")
	default:
		return nil
	}
}

// RecordSuccess reports a successful call, closing the breaker once
// halfOpenRequests consecutive successes have been observed while
// HalfOpen.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecFailures = 0
	switch b.state {
	case HalfOpen:
		b.consecSuccesses++
		if b.consecSuccesses >= b.halfOpenRequests {
			b.state = Closed
			b.consecSuccesses = 0
		}
	case Closed:
		// no-op
	}
}

// RecordFailure reports a failed call, opening the breaker either after
// failureThreshold consecutive failures while Closed, or immediately on
// any failure while HalfOpen (a probe that fails sends it back to Open).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.open()
	case Closed:
		b.consecFailures++
		if b.consecFailures >= b.failureThreshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.state = Open
	b.openedAt = time.Now()
	b.consecFailures = 0
	b.consecSuccesses = 0
}

// CurrentState returns the breaker's current state, without performing the
// Open → HalfOpen timeout check Allow does.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call runs fn if the breaker allows it, recording the outcome. It is the
// convenience wrapper most callers should use instead of Allow +
// RecordSuccess/RecordFailure directly.
func (b *Breaker) Call(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}
