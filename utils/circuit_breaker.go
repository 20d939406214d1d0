package utils

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when calls are being rejected without
// reaching the dependency.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "closed"
}

// CircuitBreaker guards one outbound dependency. A run of consecutive
// failures opens it; while open every call fails fast with ErrBreakerOpen.
// After the cooldown a single probe call is let through: success closes
// the breaker, failure reopens it for another cooldown.
type CircuitBreaker struct {
	name             string
	failureThreshold uint32
	cooldown         time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    uint32
	openedAt    time.Time
	probeActive bool
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: 5,
		cooldown:         30 * time.Second,
	}
}

func (cb *CircuitBreaker) Execute(ctx context.Context, call func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cb.allow(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.record(false)
			panic(r)
		}
	}()

	result, err := call()
	cb.record(err == nil)
	return result, err
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if time.Since(cb.openedAt) < cb.cooldown {
			return ErrBreakerOpen
		}
		cb.state = BreakerHalfOpen
		cb.probeActive = true
		slog.Info("circuit breaker half-open", "breaker", cb.name)
		return nil
	case BreakerHalfOpen:
		// One probe at a time.
		if cb.probeActive {
			return ErrBreakerOpen
		}
		cb.probeActive = true
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probeActive = false

	if success {
		if cb.state != BreakerClosed {
			slog.Info("circuit breaker closed", "breaker", cb.name)
		}
		cb.state = BreakerClosed
		cb.failures = 0
		return
	}

	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openedAt = time.Now()
	cb.failures = 0
	slog.Warn("circuit breaker open", "breaker", cb.name, "cooldown", cb.cooldown)
}
