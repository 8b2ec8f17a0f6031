// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

func TestCircuitBreaker_SlidingWindowPruning(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 5, 10*time.Second, 30*time.Second, WithClock(clock))

	for i := 0; i < 10; i++ {
		cb.RecordAttempt()
		clock.now = clock.now.Add(1 * time.Second)
	}

	assert.Equal(t, 10, len(cb.events))

	// Move time beyond some events
	clock.now = clock.now.Add(5 * time.Second)
	cb.AllowRequest() // Triggers prune

	// Cutoff is now - 10s. events were [T0, T1, ... T9].
	// now is T0+15. Cutoff is T0+5.
	// events [T0..T4] should be pruned.
	assert.Equal(t, 5, len(cb.events))
}

func TestCircuitBreaker_TechnicalFailureTrigger(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	// Threshold 3, MinAttempts 5
	cb := NewCircuitBreaker("test", 3, 5, 60*time.Second, 30*time.Second, WithClock(clock))

	// 1. Two failures: stays CLOSED (not enough failures, not enough attempts)
	cb.RecordAttempt()
	cb.RecordTechnicalFailure()
	cb.RecordAttempt()
	cb.RecordTechnicalFailure()
	assert.Equal(t, StateClosed, cb.GetState())

	// 2. More attempts to reach minAttempts=5
	cb.RecordAttempt()
	cb.RecordAttempt()
	cb.RecordAttempt()
	assert.Equal(t, StateClosed, cb.GetState())

	// 3. Third failure trips to OPEN
	cb.RecordTechnicalFailure()
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_SuccessIsNotAFailure(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 2, 2, 60*time.Second, 30*time.Second, WithClock(clock))

	cb.RecordAttempt()
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.GetState())

	cb.RecordAttempt()
	cb.RecordTechnicalFailure()
	assert.Equal(t, StateClosed, cb.GetState(), "only 1 failure; threshold is 2")
}

func TestCircuitBreaker_HalfOpenBehavior(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 1, 60*time.Second, 10*time.Second, WithClock(clock), WithHalfOpenSuccessThreshold(2))

	// 1. Trip it
	cb.RecordAttempt()
	cb.RecordTechnicalFailure()
	assert.Equal(t, StateOpen, cb.GetState())

	// 2. Wait for reset timeout
	clock.now = clock.now.Add(11 * time.Second)
	assert.True(t, cb.AllowRequest(), "should allow in half-open")
	assert.Equal(t, StateHalfOpen, cb.GetState())

	// 3. One success; stays HALF_OPEN (need 2)
	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.GetState())

	// 4. One failure in HALF_OPEN reopens immediately
	cb.RecordTechnicalFailure()
	assert.Equal(t, StateOpen, cb.GetState())

	// 5. Recover again
	clock.now = clock.now.Add(11 * time.Second)
	cb.AllowRequest()
	assert.Equal(t, StateHalfOpen, cb.GetState())

	// 6. Two successes close it
	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_BoundedMemory(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 5, 60*time.Second, 30*time.Second, WithClock(clock))

	for i := 0; i < 600; i++ {
		cb.RecordAttempt()
		clock.now = clock.now.Add(1 * time.Second)
	}

	// Prune runs on every RecordAttempt; only the last window remains.
	assert.LessOrEqual(t, len(cb.events), 61)
}

func TestCircuitBreaker_Execute(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 1, 60*time.Second, 10*time.Second, WithClock(clock))

	upstreamErr := errors.New("connection refused")
	err := cb.Execute(func() error { return upstreamErr })
	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, StateOpen, cb.GetState())

	// Open circuit short-circuits without invoking fn.
	called := false
	err = cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	// After the reset timeout a successful probe closes it.
	clock.now = clock.now.Add(11 * time.Second)
	err = cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_CancellationNotCounted(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 1, 60*time.Second, 10*time.Second, WithClock(clock))

	err := cb.Execute(func() error {
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState(), "cancellation must not trip the breaker")
}
