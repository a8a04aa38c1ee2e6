package payments

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"
)

// CircuitState is the breaker's position.
type CircuitState int32

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// CircuitBreaker protects the payment gateway from being hammered
// while it is down. Failures are counted atomically; state transitions
// happen under the mutex.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       CircuitState
	lastFailure time.Time

	failureCount atomic.Uint32

	failureThreshold uint32
	timeout          time.Duration
}

func NewCircuitBreaker(failureThreshold int, timeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: uint32(failureThreshold),
		timeout:          timeout,
	}
	metrics.CircuitBreakerState.Set(0)
	return cb
}

// CanExecute reports whether a call may go out. An open breaker moves
// to half-open once the cooldown has elapsed, letting a single probe
// through.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.timeout {
			cb.setState(StateHalfOpen)
			logger.GetDefault().Info("circuit breaker transitioning to half-open")
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess resets the failure count and closes the breaker after
// a successful half-open probe.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount.Store(0)
	if cb.state == StateHalfOpen {
		cb.setState(StateClosed)
		logger.GetDefault().Info("circuit breaker closed after successful probe")
	}
}

// RecordFailure bumps the failure count and opens the breaker when the
// threshold is hit, or immediately when a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	count := cb.failureCount.Add(1)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		if count >= cb.failureThreshold {
			cb.setState(StateOpen)
			logger.GetDefault().Warn("circuit breaker opened",
				"failure_count", count, "threshold", cb.failureThreshold)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
		logger.GetDefault().Warn("circuit breaker reopened after failed probe")
	}
}

// State returns the current position without mutating it.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns consecutive failures since the last success.
func (cb *CircuitBreaker) FailureCount() uint32 {
	return cb.failureCount.Load()
}

func (cb *CircuitBreaker) setState(state CircuitState) {
	cb.state = state
	switch state {
	case StateClosed:
		metrics.CircuitBreakerState.Set(0)
	case StateHalfOpen:
		metrics.CircuitBreakerState.Set(1)
	case StateOpen:
		metrics.CircuitBreakerState.Set(2)
	}
}
