package jacred

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

// retryPolicy drives exponential backoff for index requests. Public
// jacred mirrors flap often enough that a couple of retries is the
// difference between a result and an error message to the user.
type retryPolicy struct {
	attempts     int
	initialDelay time.Duration
	maxDelay     time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:     3,
		initialDelay: 400 * time.Millisecond,
		maxDelay:     3 * time.Second,
	}
}

// run invokes fn until it succeeds, returns a non-transient error, or
// attempts run out. Delay doubles between attempts with ±25% jitter.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	if p.attempts <= 0 {
		p.attempts = 1
	}

	var lastErr error
	delay := p.initialDelay
	for attempt := 0; attempt < p.attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !transient(lastErr) {
			return lastErr
		}
		if attempt == p.attempts-1 {
			break
		}

		jittered := time.Duration(float64(delay) * (0.75 + rand.Float64()*0.5))
		if jittered > p.maxDelay {
			jittered = p.maxDelay
		}
		timer := time.NewTimer(jittered)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
	return lastErr
}

func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused")
}
