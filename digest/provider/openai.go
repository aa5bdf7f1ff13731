// Package provider adapts external services to the digest collaborator interfaces.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryPolicy lists the waits before each retry, by failure class. A call is attempted once more
// than the longer list.
type RetryPolicy struct {
	RateLimitWaits   []time.Duration
	ServerErrorWaits []time.Duration
}

// DefaultRetryPolicy backs off long enough to clear a per-minute rate-limit window.
var DefaultRetryPolicy = RetryPolicy{
	RateLimitWaits:   []time.Duration{65 * time.Second, 100 * time.Second},
	ServerErrorWaits: []time.Duration{5 * time.Second, 30 * time.Second},
}

// NoRetry makes every call exactly once.
var NoRetry = RetryPolicy{}

// CallWithRetry runs fn, retrying rate-limit and server errors per p. Waits honour ctx.
func CallWithRetry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := max(len(p.RateLimitWaits), len(p.ServerErrorWaits)) + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		var waits []time.Duration
		switch {
		case isRateLimitError(err):
			waits = p.RateLimitWaits
		case isServerError(err):
			waits = p.ServerErrorWaits
		default:
			return zero, err
		}
		if attempt >= len(waits) {
			return zero, err
		}

		t := time.NewTimer(waits[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-t.C:
		}
	}
	return zero, fmt.Errorf("failed after %d attempts due to upstream API issues", maxAttempts)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
