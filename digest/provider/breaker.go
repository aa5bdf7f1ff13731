package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// BreakerConfig tunes the circuit breaker around the generative collaborator.
type BreakerConfig struct {
	Name string
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "generative",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerCompleter fails fast with gobreaker.ErrOpenState while the upstream keeps failing.
// Context cancellation does not count as an upstream failure.
type BreakerCompleter struct {
	next digest.Completer
	cb   *gobreaker.CircuitBreaker[string]
}

var _ digest.Completer = (*BreakerCompleter)(nil)

func NewBreakerCompleter(next digest.Completer, cfg BreakerConfig, log zerolog.Logger) *BreakerCompleter {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return &BreakerCompleter{next: next, cb: cb}
}

func (b *BreakerCompleter) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, req)
	})
}

// State reports the breaker state.
func (b *BreakerCompleter) State() gobreaker.State { return b.cb.State() }
