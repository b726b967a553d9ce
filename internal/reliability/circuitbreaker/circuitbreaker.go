// Package circuitbreaker fast-fails calls to a dependency that keeps
// erroring, instead of stacking retries on a network that is down.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips open after failureThreshold consecutive failures.
// After the cooldown it admits probe requests half-open; successThreshold
// consecutive probe successes close it again, any probe failure reopens it.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	openedAt         time.Time
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	onStateChange    func(from, to State)
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(failureThreshold, successThreshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
	}
}

// SetStateChangeCallback registers a callback invoked on every transition.
// The callback runs with the breaker lock held; keep it cheap.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// AllowRequest reports whether a call may proceed, moving an open breaker to
// half-open once the cooldown has elapsed.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) > cb.cooldown {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	}
	return false
}

// RecordSuccess feeds back a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure feeds back a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.openedAt = time.Now()
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

// GetState returns the current position.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transition moves to a new state and resets the counters. Caller holds the
// lock.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}
