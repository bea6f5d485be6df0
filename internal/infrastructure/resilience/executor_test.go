package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	return cfg
}

func retryAll(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func retryNone(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteSucceedsFirstTry(t *testing.T) {
	e := NewExecutor(testConfig())
	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if err != nil || calls != 1 {
		t.Errorf("err=%v calls=%d", err, calls)
	}
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	e := NewExecutor(testConfig())
	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	e := NewExecutor(testConfig())
	calls := 0
	wantErr := errors.New("permanent")
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	}, retryNone)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 3
	e := NewExecutor(cfg)

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("always failing")
	}, retryAll)
	if err == nil {
		t.Fatal("exhausted retries reported success")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	e := NewExecutor(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("callback ran %d times on a dead context", calls)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	e := NewExecutor(cfg)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		e.Execute(context.Background(), "flaky", fail, retryAll)
	}

	err := e.Execute(context.Background(), "flaky", fail, retryAll)
	if !IsCircuitOpen(err) {
		t.Errorf("err = %v, want open circuit", err)
	}
}

func TestBreakerIsPerOperation(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 2
	e := NewExecutor(cfg)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		e.Execute(context.Background(), "broken", fail, retryAll)
	}

	calls := 0
	err := e.Execute(context.Background(), "healthy", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if err != nil || calls != 1 {
		t.Errorf("healthy operation affected by sibling breaker: err=%v calls=%d", err, calls)
	}
}

func TestIgnoredFailuresDoNotTripBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 2
	e := NewExecutor(cfg)

	ignore := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	fail := func(context.Context) error { return errors.New("client mistake") }
	for i := 0; i < 5; i++ {
		e.Execute(context.Background(), "op", fail, ignore)
	}

	calls := 0
	if err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, ignore); err != nil || calls != 1 {
		t.Errorf("breaker tripped on ignored failures: err=%v calls=%d", err, calls)
	}
}
