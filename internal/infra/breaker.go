package infra

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState is the breaker's position.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // requests flow normally
	CircuitOpen                         // requests rejected until the cooldown passes
	CircuitHalfOpen                     // a bounded number of trial requests allowed
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker fails fast once the wiki API has produced a run of
// consecutive failures. After a cooldown it admits a bounded number of
// trial requests; one success closes the circuit, one failure reopens it.
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration
	maxTrials int
	now       func() time.Time // swapped out in tests

	mu          sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time
	trials      int
}

// NewCircuitBreaker returns a breaker that opens after 5 consecutive
// failures, cools down for 30 seconds, then admits 2 trial requests.
func NewCircuitBreaker() *CircuitBreaker {
	return NewCircuitBreakerWithConfig(5, 30*time.Second, 2)
}

// NewCircuitBreakerWithConfig returns a breaker with explicit limits.
func NewCircuitBreakerWithConfig(threshold int, cooldown time.Duration, maxTrials int) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		maxTrials: maxTrials,
		now:       time.Now,
	}
}

// Allow reports whether a request may proceed, moving the breaker from
// open to half-open once the cooldown has passed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) <= cb.cooldown {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.trials = 0
		fallthrough
	case CircuitHalfOpen:
		if cb.trials >= cb.maxTrials {
			return false
		}
		cb.trials++
		return true
	default:
		return true
	}
}

// RecordSuccess resets the failure run and closes a half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.trials = 0
	}
}

// RecordFailure extends the failure run, opening the circuit at the
// threshold. A half-open circuit reopens on any failure.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.threshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.trials = 0
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot for error reporting and logging.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:            cb.state.String(),
		ConsecutiveFails: cb.failures,
		LastFailure:      cb.lastFailure,
	}
}

// CircuitBreakerStats is a point-in-time view of the breaker.
type CircuitBreakerStats struct {
	State            string    `json:"state"`
	ConsecutiveFails int       `json:"consecutive_failures"`
	LastFailure      time.Time `json:"last_failure,omitempty"`
}

// ErrCircuitOpen is returned instead of attempting a request while the
// circuit is open.
type ErrCircuitOpen struct {
	State    string
	RetryAt  time.Time
	Failures int
}

func (e ErrCircuitOpen) Error() string {
	return fmt.Sprintf("wiki API circuit %s after %d consecutive failures, retry after %s",
		e.State, e.Failures, e.RetryAt.Format(time.RFC3339))
}
