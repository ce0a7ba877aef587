// Package analysis grades submitted repositories with an LLM, guarded by
// timeouts, bounded retries and a circuit breaker per upstream service.
package analysis

import (
	"errors"
	"sync"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/observability"
)

// ErrBreakerOpen is returned when calls are being shed.
var ErrBreakerOpen = errors.New("circuit breaker open")

// Breaker states.
const (
	stateClosed = iota
	stateOpen
	stateHalfOpen
)

// Breaker is a minimal circuit breaker. After maxFailures consecutive
// failures it opens for cooldown, then allows a single probe call.
type Breaker struct {
	mu          sync.Mutex
	name        string
	maxFailures int
	cooldown    time.Duration

	state    int
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker returns a closed breaker for the named service.
func NewBreaker(name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	b := &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
	observability.CircuitBreakerState.WithLabelValues(name).Set(float64(stateClosed))
	return b
}

// Allow reports whether a call may proceed. Transitions open to half-open
// once the cooldown elapses.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.setState(stateHalfOpen)
			return true
		}
		return false
	default: // half-open: a probe is already in flight
		return false
	}
}

// Success records a successful call and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.setState(stateClosed)
}

// Failure records a failed call, opening the breaker at the threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.openedAt = b.now()
		b.setState(stateOpen)
		return
	}

	b.failures++
	if b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.setState(stateOpen)
	}
}

func (b *Breaker) setState(state int) {
	if b.state == state {
		return
	}
	b.state = state
	observability.CircuitBreakerState.WithLabelValues(b.name).Set(float64(state))
}
