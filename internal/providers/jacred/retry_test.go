package jacred

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"
)

func TestRetryStopsOnNonTransient(t *testing.T) {
	policy := retryPolicy{attempts: 3, initialDelay: time.Millisecond, maxDelay: time.Millisecond}
	calls := 0
	err := policy.run(context.Background(), func() error {
		calls++
		return fmt.Errorf("jacred HTTP 500: boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-transient error, got %d", calls)
	}
}

func TestRetryRecoversFromTransient(t *testing.T) {
	policy := retryPolicy{attempts: 3, initialDelay: time.Millisecond, maxDelay: time.Millisecond}
	calls := 0
	err := policy.run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return io.ErrUnexpectedEOF
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	policy := retryPolicy{attempts: 5, initialDelay: 50 * time.Millisecond, maxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.run(ctx, func() error {
		calls++
		return io.EOF
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTransient(t *testing.T) {
	if transient(fmt.Errorf("jacred HTTP 404: not found")) {
		t.Error("HTTP status errors must not be retried")
	}
	if !transient(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused should be transient")
	}
	if transient(context.Canceled) {
		t.Error("cancellation is not transient")
	}
}
