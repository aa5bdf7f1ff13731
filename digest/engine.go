// Package digest turns a subject's ratings and discussion posts into a bounded summary: an
// overall paragraph, pros and cons, a sentiment breakdown and representative quotes.
//
// Two strategies share the output shape. The extractive path segments texts into sentences,
// scores them against the corpus centroid, picks a diverse subset with maximal marginal relevance
// and labels it with a sentiment classifier; it is cached until the corpus structure changes. The
// generative path packs texts into bounded chunks, summarizes them concurrently with a language
// model and merges the partial results; it is cached for a fixed TTL.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theimaginaryfoundation/review-digest/digest/metrics"
)

// ErrNoCollector is returned by New when Deps.Collector is nil.
var ErrNoCollector = errors.New("digest: collector is required")

// Deps are the engine's collaborators. Only Collector is mandatory; each path checks its own
// collaborators when it runs. HashCache and TTLCache must be distinct stores, and a nil store
// disables that discipline.
type Deps struct {
	Collector  Collector
	Embedder   Embedder
	Classifier SentimentClassifier
	Completer  Completer

	HashCache Store
	TTLCache  Store

	Logger *zerolog.Logger
	Now    func() time.Time
}

// Engine is the summarization façade. It is safe for concurrent use; two concurrent requests for
// the same subject may both compute and the later cache write wins.
type Engine struct {
	collector Collector
	hashCache Store
	ttlCache  Store

	extractor *Extractor
	reducer   *Reducer

	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

// New validates opts and wires the engine.
func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Collector == nil {
		return nil, ErrNoCollector
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	log := zerolog.Nop()
	if deps.Logger != nil {
		log = *deps.Logger
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		collector: deps.Collector,
		hashCache: deps.HashCache,
		ttlCache:  deps.TTLCache,
		extractor: NewExtractor(deps.Embedder, deps.Classifier, opts, now),
		reducer:   NewReducer(deps.Completer, opts),
		opts:      opts,
		log:       log.With().Str("component", "digest").Logger(),
		now:       now,
	}, nil
}

// Options returns the defaulted options the engine runs with.
func (e *Engine) Options() Options { return e.opts }

// Summarize runs the configured strategy for subjectID.
func (e *Engine) Summarize(ctx context.Context, subjectID string) (Summary, error) {
	if e.opts.Strategy == StrategyGenerative {
		return e.SummarizeGenerative(ctx, subjectID)
	}
	return e.SummarizeExtractive(ctx, subjectID)
}

// SummarizeExtractive returns the cached extractive summary when the corpus hash is unchanged and
// recomputes it otherwise. A corpus without text yields an empty summary without any
// collaborator call.
func (e *Engine) SummarizeExtractive(ctx context.Context, subjectID string) (Summary, error) {
	log := e.requestLogger(subjectID, StrategyExtractive)

	items, err := e.collect(ctx, subjectID)
	if err != nil {
		return Summary{}, err
	}
	if !hasContent(items) {
		log.Debug().Int("items", len(items)).Msg("no content to summarize")
		return emptySummary(""), nil
	}

	hash := CorpusHash(items)
	if entry, ok := e.lookup(ctx, log, e.hashCache, metrics.DisciplineHash, subjectID); ok {
		if entry.Hash == hash {
			metrics.CacheRequests.WithLabelValues(metrics.DisciplineHash, "hit").Inc()
			log.Debug().Str("hash", hash).Msg("cache hit")
			return entry.Summary, nil
		}
		metrics.CacheRequests.WithLabelValues(metrics.DisciplineHash, "stale").Inc()
	}

	start := time.Now()
	out, err := e.extractor.Summarize(ctx, items)
	if err != nil {
		log.Error().Err(err).Msg("extractive summarization failed")
		return Summary{}, fmt.Errorf("summarize %s: %w", subjectID, err)
	}
	out.Hash = hash
	e.observe(log, StrategyExtractive, start, len(items))

	e.store(ctx, log, e.hashCache, metrics.DisciplineHash, subjectID, Entry{Summary: out, Hash: hash})
	return out, nil
}

// SummarizeGenerative returns the cached generative summary until the clock passes its expiry, then
// reruns the whole collect → chunk → map → reduce pipeline. The empty-corpus result is cached too.
func (e *Engine) SummarizeGenerative(ctx context.Context, subjectID string) (Summary, error) {
	log := e.requestLogger(subjectID, StrategyGenerative)

	if entry, ok := e.lookup(ctx, log, e.ttlCache, metrics.DisciplineTTL, subjectID); ok {
		if !e.now().After(entry.ExpiresAt) {
			metrics.CacheRequests.WithLabelValues(metrics.DisciplineTTL, "hit").Inc()
			log.Debug().Time("expires_at", entry.ExpiresAt).Msg("cache hit")
			return entry.Summary, nil
		}
		metrics.CacheRequests.WithLabelValues(metrics.DisciplineTTL, "stale").Inc()
	}

	items, err := e.collect(ctx, subjectID)
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	if !hasContent(items) {
		log.Debug().Int("items", len(items)).Msg("no content to summarize")
		out = emptySummary(EmptyOverall)
	} else {
		start := time.Now()
		out, err = e.reducer.Summarize(ctx, items)
		if err != nil {
			log.Error().Err(err).Msg("generative summarization failed")
			return Summary{}, fmt.Errorf("summarize %s: %w", subjectID, err)
		}
		e.observe(log, StrategyGenerative, start, len(items))
	}

	e.store(ctx, log, e.ttlCache, metrics.DisciplineTTL, subjectID, Entry{
		Summary:   out,
		ExpiresAt: e.now().Add(e.opts.TTL),
	})
	return out, nil
}

// Invalidate drops subjectID from both caches.
func (e *Engine) Invalidate(ctx context.Context, subjectID string) error {
	var errs []error
	for _, s := range []Store{e.hashCache, e.ttlCache} {
		if s == nil {
			continue
		}
		if err := s.Invalidate(ctx, subjectID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalidate %s: %w", subjectID, err)
	}
	return nil
}

func (e *Engine) requestLogger(subjectID string, s Strategy) zerolog.Logger {
	return e.log.With().
		Str("run_id", uuid.NewString()).
		Str("subject_id", subjectID).
		Str("strategy", string(s)).
		Logger()
}

func (e *Engine) collect(ctx context.Context, subjectID string) ([]SourceItem, error) {
	items, err := e.collector.Collect(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", subjectID, err)
	}
	return items, nil
}

// lookup reads the store and treats a failure as a miss.
func (e *Engine) lookup(ctx context.Context, log zerolog.Logger, s Store, discipline, subjectID string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	entry, ok, err := s.Get(ctx, subjectID)
	if err != nil {
		metrics.CacheRequests.WithLabelValues(discipline, "error").Inc()
		log.Warn().Err(err).Str("discipline", discipline).Msg("cache read failed; recomputing")
		return Entry{}, false
	}
	if !ok {
		metrics.CacheRequests.WithLabelValues(discipline, "miss").Inc()
	}
	return entry, ok
}

func (e *Engine) store(ctx context.Context, log zerolog.Logger, s Store, discipline, subjectID string, entry Entry) {
	if s == nil {
		return
	}
	if err := s.Set(ctx, subjectID, entry); err != nil {
		metrics.CacheWriteErrors.WithLabelValues(discipline).Inc()
		log.Warn().Err(err).Str("discipline", discipline).Msg("cache write failed")
	}
}

func (e *Engine) observe(log zerolog.Logger, s Strategy, start time.Time, items int) {
	elapsed := time.Since(start)
	metrics.SummarizeDuration.WithLabelValues(string(s)).Observe(elapsed.Seconds())
	log.Info().Int("items", items).Dur("elapsed", elapsed).Msg("summary computed")
}

func hasContent(items []SourceItem) bool {
	for _, it := range items {
		if it.HasText() {
			return true
		}
	}
	return false
}
