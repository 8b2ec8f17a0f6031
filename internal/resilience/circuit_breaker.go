// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package resilience provides the circuit breaker guarding remote roster
// fetches and refresh runs. A flapping roster host should degrade to
// "serve the last good snapshot", not hammer the upstream on every
// request.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	tdlog "github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/metrics"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// clock abstracts time operations for testability.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type eventKind int

const (
	eventAttempt eventKind = iota
	eventFailure
)

type event struct {
	at   time.Time
	kind eventKind
}

// CircuitBreaker trips when enough technical failures accumulate inside
// a sliding window. It refuses to trip below minAttempts so a single
// failed probe on a quiet instance does not open the circuit.
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	state            State
	events           []event
	failureThreshold int
	minAttempts      int
	window           time.Duration
	resetTimeout     time.Duration
	halfOpenNeeded   int
	halfOpenStreak   int
	openedAt         time.Time
	clock            clock
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

func WithClock(c clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// WithHalfOpenSuccessThreshold sets how many consecutive successful
// probes are required before a half-open circuit closes again.
func WithHalfOpenSuccessThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.halfOpenNeeded = n
		}
	}
}

// NewCircuitBreaker creates a breaker named for metrics and logs.
func NewCircuitBreaker(name string, failureThreshold, minAttempts int, window, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	if minAttempts <= 0 {
		minAttempts = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: failureThreshold,
		minAttempts:      minAttempts,
		window:           window,
		resetTimeout:     resetTimeout,
		halfOpenNeeded:   1,
		clock:            realClock{},
	}

	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetCircuitBreakerState(cb.name, string(cb.state))
	return cb
}

// Execute runs fn behind the breaker. Context cancellation is not
// counted as a failure: an operator hitting Ctrl-C says nothing about
// upstream health.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.AllowRequest() {
		return ErrCircuitOpen
	}
	cb.RecordAttempt()

	err := fn()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			cb.RecordTechnicalFailure()
		}
		return err
	}

	cb.RecordSuccess()
	return nil
}

// AllowRequest reports whether a request may proceed, moving an expired
// open circuit to half-open.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.prune()

	switch cb.state {
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) > cb.resetTimeout {
			cb.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		// closed or half-open
		return true
	}
}

// RecordAttempt adds an attempt to the sliding window.
func (cb *CircuitBreaker) RecordAttempt() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.events = append(cb.events, event{at: cb.clock.Now(), kind: eventAttempt})
	cb.prune()
}

// RecordSuccess records a successful call. In half-open state it counts
// toward the close threshold.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.halfOpenStreak++
		if cb.halfOpenStreak >= cb.halfOpenNeeded {
			cb.events = nil
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordTechnicalFailure records an upstream failure and trips the
// circuit when the windowed failure count crosses the threshold.
func (cb *CircuitBreaker) RecordTechnicalFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		metrics.RecordCircuitBreakerTrip(cb.name, "half_open_failure")
		cb.transitionTo(StateOpen)
		return
	}

	cb.events = append(cb.events, event{at: cb.clock.Now(), kind: eventFailure})
	cb.prune()

	if cb.state != StateClosed {
		return
	}

	attempts, failures := 0, 0
	for _, ev := range cb.events {
		switch ev.kind {
		case eventAttempt:
			attempts++
		case eventFailure:
			failures++
		}
	}

	if failures >= cb.failureThreshold && attempts >= cb.minAttempts {
		metrics.RecordCircuitBreakerTrip(cb.name, "threshold_exceeded")
		cb.transitionTo(StateOpen)
	}
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// prune drops events older than the window. Caller must hold the lock.
func (cb *CircuitBreaker) prune() {
	cutoff := cb.clock.Now().Add(-cb.window)
	keep := cb.events[:0]
	for _, ev := range cb.events {
		if !ev.at.Before(cutoff) {
			keep = append(keep, ev)
		}
	}
	cb.events = keep
}

// transitionTo switches state and updates metrics. Caller must hold the lock.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}
	prev := cb.state
	cb.state = newState
	switch newState {
	case StateOpen:
		cb.openedAt = cb.clock.Now()
	case StateHalfOpen:
		cb.halfOpenStreak = 0
	}
	metrics.SetCircuitBreakerState(cb.name, string(newState))

	logger := tdlog.WithComponent("resilience")
	evt := logger.Info()
	if newState == StateOpen {
		evt = logger.Warn()
	}
	evt.
		Str("breaker", cb.name).
		Str("from", string(prev)).
		Str("to", string(newState)).
		Msg("circuit breaker state change")
}
