package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})
	cfg := r.Config()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2", cfg.Multiplier)
	}
	if cfg.RetryIf == nil {
		t.Error("RetryIf default not set")
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Execute() = %v after %d calls, want nil after 1", err, calls)
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Execute() = %v after %d calls, want nil after 3", err, calls)
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, ErrMaxRetriesExceeded) || !errors.Is(err, errTransient) {
		t.Errorf("Execute() error = %v, want ErrMaxRetriesExceeded wrapping the last error", err)
	}
}

func TestRetry_RetryIf(t *testing.T) {
	permanent := errors.New("permanent")
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, permanent) },
	})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err != permanent {
		t.Errorf("Execute() error = %v, want the unwrapped permanent error", err)
	}
}

func TestRetry_PermanentOnLastAttempt(t *testing.T) {
	permanent := errors.New("permanent")
	r := NewRetry(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, permanent) },
	})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return permanent
	})
	if err != permanent {
		t.Errorf("Execute() error = %v, want %v", err, permanent)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var attempts []int
	var delays []time.Duration
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errTransient
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
	if len(delays) == 2 && delays[1] <= delays[0] {
		t.Errorf("exponential delays did not grow: %v", delays)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error {
			return errTransient
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute() did not return after cancellation")
	}
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: 10 * time.Millisecond, max: 25 * time.Millisecond}

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("NextBackOff() #%d = %v, want %v", i+1, got, w)
		}
	}
	b.Reset()
	if got := b.NextBackOff(); got != 10*time.Millisecond {
		t.Errorf("after Reset NextBackOff() = %v", got)
	}
}

func TestRetry_Strategies(t *testing.T) {
	for _, s := range []BackoffStrategy{BackoffExponential, BackoffLinear, BackoffConstant} {
		t.Run(s.String(), func(t *testing.T) {
			r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Strategy: s, Jitter: true})
			calls := 0
			err := r.Execute(context.Background(), func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errTransient
				}
				return nil
			})
			if err != nil || calls != 3 {
				t.Errorf("Execute() = %v after %d calls", err, calls)
			}
		})
	}
}
