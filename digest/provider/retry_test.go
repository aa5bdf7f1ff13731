package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimitWaits:   []time.Duration{time.Millisecond, time.Millisecond},
		ServerErrorWaits: []time.Duration{time.Millisecond},
	}
}

func TestCallWithRetry_RetriesRateLimits(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := CallWithRetry(t.Context(), fastPolicy(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("POST /v1/responses: 429 Too Many Requests")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestCallWithRetry_GivesUpAfterPolicy(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := CallWithRetry(t.Context(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("500 Internal Server Error")
	})
	require.ErrorContains(t, err, "500")
	assert.Equal(t, 2, calls)
}

func TestCallWithRetry_OtherErrorsAreFinal(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := CallWithRetry(t.Context(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("400 Bad Request: invalid schema")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallWithRetry_HonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	p := RetryPolicy{RateLimitWaits: []time.Duration{time.Hour}}

	calls := 0
	_, err := CallWithRetry(ctx, p, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("rate limit reached")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg        string
		rateLimit  bool
		serverSide bool
	}{
		{"429 Too Many Requests", true, false},
		{"Rate limit reached for gpt-5-mini", true, false},
		{"502 Bad Gateway", false, true},
		{"503 Service Unavailable", false, true},
		{"server_error: try again", false, true},
		{"401 Unauthorized", false, false},
	}
	for _, tc := range cases {
		err := errors.New(tc.msg)
		assert.Equal(t, tc.rateLimit, isRateLimitError(err), tc.msg)
		assert.Equal(t, tc.serverSide, isServerError(err), tc.msg)
	}
	assert.False(t, isRateLimitError(nil))
	assert.False(t, isServerError(nil))
}
