package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// NewLimiter returns a token bucket of rps requests per second. rps <= 0 means unlimited.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, burst))
}

// RateLimitedCompleter waits for a token before every call.
type RateLimitedCompleter struct {
	next    digest.Completer
	limiter *rate.Limiter
}

func NewRateLimitedCompleter(next digest.Completer, l *rate.Limiter) *RateLimitedCompleter {
	return &RateLimitedCompleter{next: next, limiter: l}
}

func (c *RateLimitedCompleter) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}

// RateLimitedEmbedder waits for a token before every batch.
type RateLimitedEmbedder struct {
	next    digest.Embedder
	limiter *rate.Limiter
}

func NewRateLimitedEmbedder(next digest.Embedder, l *rate.Limiter) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{next: next, limiter: l}
}

func (e *RateLimitedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.EmbedBatch(ctx, texts)
}

// RateLimitedClassifier waits for a token before every batch.
type RateLimitedClassifier struct {
	next    digest.SentimentClassifier
	limiter *rate.Limiter
}

func NewRateLimitedClassifier(next digest.SentimentClassifier, l *rate.Limiter) *RateLimitedClassifier {
	return &RateLimitedClassifier{next: next, limiter: l}
}

func (c *RateLimitedClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]digest.Label, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.ClassifyBatch(ctx, texts)
}

var (
	_ digest.Completer           = (*RateLimitedCompleter)(nil)
	_ digest.Embedder            = (*RateLimitedEmbedder)(nil)
	_ digest.SentimentClassifier = (*RateLimitedClassifier)(nil)
)
