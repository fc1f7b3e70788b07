package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "lcscraper/pkg/errors"
)

// recordingWait records requested delays without sleeping
type recordingWait struct {
	delays []time.Duration
}

func (r *recordingWait) wait(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		if delay < 140*time.Millisecond || delay > 260*time.Millisecond {
			t.Fatalf("Delay %v outside jitter bounds", delay)
		}
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 5 * time.Minute}
	for attempt := 1; attempt <= 6; attempt++ {
		if d := backoff.NextDelay(attempt); d != 5*time.Minute {
			t.Errorf("Attempt %d: expected 5m, got %v", attempt, d)
		}
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	rec := &recordingWait{}

	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		Context:     context.Background(),
		Wait:        rec.wait,
	})

	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(rec.delays) != 2 {
		t.Errorf("Expected 2 waits, got %d", len(rec.delays))
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	rec := &recordingWait{}
	cause := errs.New(errs.ErrorTypeServerError, "bad gateway")

	err := Do(func() error {
		attempts++
		return cause
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		Context:     context.Background(),
		Wait:        rec.wait,
	})

	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(rec.delays) != 2 {
		t.Errorf("Expected no wait after the last attempt, got %d waits", len(rec.delays))
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := errs.FromStatusCode(404, "unknown endpoint")

	err := Do(func() error {
		attempts++
		return notFound
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		Context:     context.Background(),
		Wait:        (&recordingWait{}).wait,
	})

	if err != notFound {
		t.Errorf("Expected not found error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 50 * time.Millisecond},
		Context:     ctx,
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestErrorTypeBackoffSelectsByType(t *testing.T) {
	etb := NewErrorTypeBackoff()
	rec := &recordingWait{}
	results := []error{
		errs.FromStatusCode(429, "slow down"),
		errs.FromStatusCode(503, "unavailable"),
		nil,
	}
	i := 0

	err := Do(func() error {
		e := results[i]
		i++
		return e
	}, &Config{
		MaxAttempts: 3,
		Backoff:     etb,
		Context:     context.Background(),
		Wait:        rec.wait,
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(rec.delays) != 2 {
		t.Fatalf("Expected 2 waits, got %d", len(rec.delays))
	}
	// rate limit: 30s +/- 30%; server error at attempt 2: 10s +/- 10%
	if rec.delays[0] < 21*time.Second || rec.delays[0] > 39*time.Second {
		t.Errorf("Unexpected rate limit delay %v", rec.delays[0])
	}
	if rec.delays[1] < 9*time.Second || rec.delays[1] > 11*time.Second {
		t.Errorf("Unexpected server error delay %v", rec.delays[1])
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		Context:     context.Background(),
		Wait:        (&recordingWait{}).wait,
	})

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly after cancellation")
	}
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Zero wait should return nil, got %v", err)
	}
}
