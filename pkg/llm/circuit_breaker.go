package llm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed means requests flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the provider looks down and requests fail fast.
	CircuitOpen
	// CircuitHalfOpen means one trial request is in flight.
	CircuitHalfOpen
)

// String returns a human-readable string for the circuit state.
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

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive outage failures before the circuit trips.
	Threshold int
	// ResetAfter is how long the circuit stays open before a trial is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig trips after 5 outage failures and allows a trial after 30s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker stops staff from waiting on a provider that is clearly down.
// Only outage-type failures (unreachable, 5xx, rate limits) count toward the
// threshold; a rejected prompt or bad key says nothing about availability.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = DefaultCircuitBreakerConfig().Threshold
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow returns nil if a request may proceed. An open circuit moves to
// half-open once ResetAfter has passed and lets exactly one trial through.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		since := cb.now().Sub(cb.lastFailure)
		if since > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return &Error{
			Type:    ErrorTypeUnavailable,
			Message: fmt.Sprintf("provider appears to be down (failed %d times, last failure %v ago)", cb.consecutiveFails, since.Round(time.Second)),
			Cause:   apperrors.ErrAIUnavailable,
		}
	default:
		return &Error{
			Type:    ErrorTypeUnavailable,
			Message: "waiting for provider recovery trial",
			Cause:   apperrors.ErrAIUnavailable,
		}
	}
}

// Record updates the breaker with the outcome of a request that Allow admitted.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !isOutage(err) {
		cb.consecutiveFails = 0
		cb.state = CircuitClosed
		return
	}

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// isOutage reports whether err suggests the provider itself is unavailable.
func isOutage(err error) bool {
	if err == nil {
		return false
	}
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		return false
	}
	switch llmErr.Type {
	case ErrorTypeEndpoint, ErrorTypeRateLimited:
		return true
	default:
		return false
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ConsecutiveFailures returns the current count of consecutive outage failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFails
}
