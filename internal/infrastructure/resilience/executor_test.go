package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryOnlyConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(retryOnlyConfig(3))

	attempts := 0
	errFlaky := errors.New("flaky provider")
	err := exec.Execute(context.Background(), "rerank", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errFlaky
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errFlaky),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnNonRetryableFailure(t *testing.T) {
	exec := NewExecutor(retryOnlyConfig(3))

	attempts := 0
	errBadRequest := errors.New("bad request")
	err := exec.Execute(context.Background(), "serper_search", func(context.Context) error {
		attempts++
		return errBadRequest
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("expected original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsWhenContextCancelled(t *testing.T) {
	exec := NewExecutor(retryOnlyConfig(5))

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	errFlaky := errors.New("flaky")
	err := exec.Execute(ctx, "publish", func(context.Context) error {
		attempts++
		cancel()
		return errFlaky
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last error after cancellation, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected no retry after cancellation, got %d attempts", attempts)
	}
}

func TestExecuteOpensBreakerAfterRepeatedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         1,
		BreakerEnabled:          true,
		BreakerMinRequests:      3,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	errDown := errors.New("down")
	classify := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var lastErr error
	for i := 0; i < 5; i++ {
		lastErr = exec.Execute(context.Background(), "model_step", func(context.Context) error {
			return errDown
		}, classify)
	}
	if !IsCircuitOpen(lastErr) {
		t.Fatalf("expected open circuit after repeated failures, got %v", lastErr)
	}

	calls := 0
	lastErr = exec.Execute(context.Background(), "model_step", func(context.Context) error {
		calls++
		return nil
	}, classify)
	if !IsCircuitOpen(lastErr) {
		t.Fatalf("expected short-circuit while open, got %v", lastErr)
	}
	if calls != 0 {
		t.Fatalf("expected callback skipped while open, got %d calls", calls)
	}
}

func TestExecuteIsolatesBreakersPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	classify := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	errDown := errors.New("down")
	for i := 0; i < 4; i++ {
		_ = exec.Execute(context.Background(), "rerank", func(context.Context) error {
			return errDown
		}, classify)
	}

	err := exec.Execute(context.Background(), "serper_search", func(context.Context) error {
		return nil
	}, classify)
	if err != nil {
		t.Fatalf("expected healthy operation unaffected, got %v", err)
	}
}
