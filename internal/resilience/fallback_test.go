package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestRetryBudget_SuccessFirstAttempt(t *testing.T) {
	rb := NewRetryBudget("ext", 3, CircuitBreakerConfig{MaxFailures: 5})

	calls := 0
	err := rb.Execute(func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryBudget_RetriesTransientFailure(t *testing.T) {
	rb := NewRetryBudget("ext", 3, CircuitBreakerConfig{MaxFailures: 5})

	calls := 0
	err := rb.Execute(func() error {
		calls++
		if calls < 2 {
			return errTest
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestRetryBudget_ExhaustsBudget(t *testing.T) {
	rb := NewRetryBudget("ext", 3, CircuitBreakerConfig{MaxFailures: 5})

	calls := 0
	err := rb.Execute(func() error {
		calls++
		return errTest
	})
	if !errors.Is(err, errTest) {
		t.Fatalf("err = %v, want errTest", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (maxAttempts)", calls)
	}
}

func TestRetryBudget_StopsRetryingOnOpenBreaker(t *testing.T) {
	rb := NewRetryBudget("ext", 5, CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Hour,
	})

	calls := 0
	err := rb.Execute(func() error {
		calls++
		return errTest
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// MaxFailures=1 opens the breaker after the first failed attempt, so the
	// remaining budget should not be spent hammering a known-down callable.
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (breaker should short-circuit remaining attempts)", calls)
	}
	if rb.Breaker().State() != StateOpen {
		t.Fatalf("breaker state = %v, want StateOpen", rb.Breaker().State())
	}
}
