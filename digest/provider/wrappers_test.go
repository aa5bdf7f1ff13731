package provider

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

type stubCompleter struct {
	mu    sync.Mutex
	reqs  []digest.CompletionRequest
	reply string
	err   error
}

func (s *stubCompleter) Complete(_ context.Context, req digest.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.reply, s.err
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

// lengthEmbedder returns [len(text)] and records every text it embeds.
type lengthEmbedder struct {
	seen []string
}

func (e *lengthEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	e.seen = append(e.seen, texts...)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t))}
	}
	return out, nil
}

func TestCachedEmbedder_OnlyEmbedsMisses(t *testing.T) {
	t.Parallel()

	next := &lengthEmbedder{}
	c, err := NewCachedEmbedder(next, 16)
	require.NoError(t, err)

	got, err := c.EmbedBatch(t.Context(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}}, got)

	got, err = c.EmbedBatch(t.Context(), []string{"bb", "ccc", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}, {3}, {1}}, got)
	assert.Equal(t, []string{"a", "bb", "ccc"}, next.seen)
	assert.Equal(t, 3, c.Len())

	_, err = c.EmbedBatch(t.Context(), []string{"ccc"})
	require.NoError(t, err)
	assert.Len(t, next.seen, 3)
}

func TestCachedEmbedder_RejectsBadSize(t *testing.T) {
	t.Parallel()

	_, err := NewCachedEmbedder(&lengthEmbedder{}, 0)
	require.Error(t, err)
}

func TestCompleterClassifier(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: ` {"labels": ["POSITIVE", "neg", "mixed"]} `}
	c := NewCompleterClassifier(stub)

	got, err := c.ClassifyBatch(t.Context(), []string{"Loved it.", "Dull.", "It was a film."})
	require.NoError(t, err)
	assert.Equal(t, []digest.Label{digest.LabelPositive, digest.LabelNegative, digest.LabelNeutral}, got)

	require.Len(t, stub.reqs, 1)
	req := stub.reqs[0]
	assert.Equal(t, "SentimentLabels", req.Name)
	assert.NotNil(t, req.Schema)
	assert.Equal(t, `["Loved it.","Dull.","It was a film."]`, req.Prompt)

	_, err = c.ClassifyBatch(t.Context(), []string{"only one"})
	require.ErrorIs(t, err, digest.ErrCountMismatch)

	empty, err := c.ClassifyBatch(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 2, stub.calls())
}

func TestCompleterClassifier_Errors(t *testing.T) {
	t.Parallel()

	upstream := errors.New("boom")
	_, err := NewCompleterClassifier(&stubCompleter{err: upstream}).ClassifyBatch(t.Context(), []string{"x"})
	require.ErrorIs(t, err, upstream)

	_, err = NewCompleterClassifier(&stubCompleter{reply: "not json"}).ClassifyBatch(t.Context(), []string{"x"})
	require.ErrorContains(t, err, "decode labels")
}

func TestBreakerCompleter_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{err: errors.New("503 Service Unavailable")}
	cfg := DefaultBreakerConfig()
	cfg.Timeout = time.Hour
	b := NewBreakerCompleter(stub, cfg, zerolog.Nop())

	for range 5 {
		_, err := b.Complete(t.Context(), digest.CompletionRequest{})
		require.ErrorContains(t, err, "503")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(t.Context(), digest.CompletionRequest{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, stub.calls())
}

func TestBreakerCompleter_IgnoresCancellation(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{err: context.Canceled}
	b := NewBreakerCompleter(stub, DefaultBreakerConfig(), zerolog.Nop())

	for range 10 {
		_, err := b.Complete(t.Context(), digest.CompletionRequest{})
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerCompleter_LogsStateChange(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 1
	b := NewBreakerCompleter(&stubCompleter{err: errors.New("500")}, cfg, zerolog.New(&buf))

	_, _ = b.Complete(t.Context(), digest.CompletionRequest{})
	assert.Contains(t, buf.String(), `"to":"open"`)
}

func TestRateLimitedWrappers(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: "ok"}
	c := NewRateLimitedCompleter(stub, NewLimiter(0, 0))
	got, err := c.Complete(t.Context(), digest.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = c.Complete(ctx, digest.CompletionRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stub.calls())

	next := &lengthEmbedder{}
	e := NewRateLimitedEmbedder(next, NewLimiter(1000, 10))
	vecs, err := e.EmbedBatch(t.Context(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}}, vecs)

	cls := NewRateLimitedClassifier(NewCompleterClassifier(&stubCompleter{reply: `{"labels":["NEGATIVE"]}`}), NewLimiter(1000, 10))
	labels, err := cls.ClassifyBatch(t.Context(), []string{"meh"})
	require.NoError(t, err)
	assert.Equal(t, []digest.Label{digest.LabelNegative}, labels)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	assert.True(t, NewLimiter(0, 0).Allow())
	l := NewLimiter(1, 0)
	assert.Equal(t, 1, l.Burst())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
