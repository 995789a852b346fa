package resilience

import (
	"errors"
	"log/slog"
)

// RetryBudget wraps a single breaker-guarded callable with a bounded number
// of immediate retries. CSML has no multi-provider failover concept — an
// `extension(name=…)` call always targets exactly one registered extension
// by name, per spec.md §4.5 — so unlike the teacher's FallbackGroup there is
// no second provider to fail over to. RetryBudget exists to absorb a single
// extension's transient failure (a flaky MCP round-trip) without hammering
// it once its breaker has tripped.
//
// RetryBudget is safe for concurrent use.
type RetryBudget struct {
	name        string
	breaker     *CircuitBreaker
	maxAttempts int
}

// NewRetryBudget creates a RetryBudget guarding a single named callable.
// maxAttempts <= 0 defaults to 1 (no retry beyond the breaker-guarded call
// itself).
func NewRetryBudget(name string, maxAttempts int, cfg CircuitBreakerConfig) *RetryBudget {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	cfg.Name = name
	return &RetryBudget{
		name:        name,
		breaker:     NewCircuitBreaker(cfg),
		maxAttempts: maxAttempts,
	}
}

// Execute runs fn through the breaker, making at most maxAttempts attempts
// in all as long as the breaker stays closed. A breaker-open result stops retrying
// immediately rather than burning the rest of the budget against a callable
// already known to be down.
func (rb *RetryBudget) Execute(fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= rb.maxAttempts; attempt++ {
		err := rb.breaker.Execute(fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			break
		}
		if attempt < rb.maxAttempts {
			slog.Warn("extension call failed, retrying",
				"name", rb.name, "attempt", attempt, "error", err)
		}
	}
	return lastErr
}

// Breaker exposes the underlying [CircuitBreaker], so a caller can report
// its state (e.g. on a health/readiness endpoint) without re-deriving it.
func (rb *RetryBudget) Breaker() *CircuitBreaker {
	return rb.breaker
}
