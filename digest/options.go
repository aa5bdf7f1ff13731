package digest

import (
	"errors"
	"fmt"
	"time"
)

// Strategy selects which summarization path Engine.Summarize runs.
type Strategy string

const (
	StrategyExtractive Strategy = "extractive"
	StrategyGenerative Strategy = "generative"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyExtractive, StrategyGenerative:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyExtractive, StrategyGenerative)
}

// Generative-path defaults.
const (
	DefaultChunkChars  = 4000
	DefaultReduceMax   = 8
	DefaultQuoteMax    = 5
	DefaultTTL         = time.Hour
	DefaultConcurrency = 6
	DefaultBatchSize   = 32
)

// Options tunes both summarization paths. Start from DefaultOptions: zero counts, sizes and
// durations fall back to the defaults, but Lambda and TagBoost are used verbatim because 0 is a
// meaningful value for both.
type Options struct {
	Strategy Strategy

	// Extractive path.
	K                  int
	Lambda             float64
	ProsMax            int
	ConsMax            int
	TagBoost           float64
	SentimentSampleCap int
	MinUnitChars       int
	MaxUnitChars       int

	// Generative path.
	ChunkChars        int
	ReduceMax         int
	QuoteMax          int
	TTL               time.Duration
	ChunkInstructions string

	// Concurrency caps in-flight collaborator calls per request; BatchSize caps texts per
	// embedding or classification call.
	Concurrency int
	BatchSize   int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Strategy:           StrategyExtractive,
		K:                  DefaultK,
		Lambda:             DefaultLambda,
		ProsMax:            DefaultProsMax,
		ConsMax:            DefaultConsMax,
		TagBoost:           DefaultTagBoost,
		SentimentSampleCap: DefaultSentimentSampleCap,
		MinUnitChars:       DefaultMinUnitChars,
		MaxUnitChars:       DefaultMaxUnitChars,
		ChunkChars:         DefaultChunkChars,
		ReduceMax:          DefaultReduceMax,
		QuoteMax:           DefaultQuoteMax,
		TTL:                DefaultTTL,
		ChunkInstructions:  ComposeChunkInstructions(""),
		Concurrency:        DefaultConcurrency,
		BatchSize:          DefaultBatchSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Strategy == "" {
		o.Strategy = d.Strategy
	}
	if o.K == 0 {
		o.K = d.K
	}
	if o.ProsMax == 0 {
		o.ProsMax = d.ProsMax
	}
	if o.ConsMax == 0 {
		o.ConsMax = d.ConsMax
	}
	if o.SentimentSampleCap == 0 {
		o.SentimentSampleCap = d.SentimentSampleCap
	}
	if o.MinUnitChars == 0 {
		o.MinUnitChars = d.MinUnitChars
	}
	if o.MaxUnitChars == 0 {
		o.MaxUnitChars = d.MaxUnitChars
	}
	if o.ChunkChars == 0 {
		o.ChunkChars = d.ChunkChars
	}
	if o.ReduceMax == 0 {
		o.ReduceMax = d.ReduceMax
	}
	if o.QuoteMax == 0 {
		o.QuoteMax = d.QuoteMax
	}
	if o.TTL == 0 {
		o.TTL = d.TTL
	}
	if o.ChunkInstructions == "" {
		o.ChunkInstructions = d.ChunkInstructions
	}
	if o.Concurrency == 0 {
		o.Concurrency = d.Concurrency
	}
	if o.BatchSize == 0 {
		o.BatchSize = d.BatchSize
	}
	return o
}

// Validate rejects out-of-range options. It is called on the defaulted options.
func (o Options) Validate() error {
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	if o.K < 0 || o.ProsMax < 0 || o.ConsMax < 0 || o.ReduceMax < 0 || o.QuoteMax < 0 {
		return errors.New("k, pros-max, cons-max, reduce-max and quote-max must be >= 0")
	}
	if o.Lambda < 0 || o.Lambda > 1 {
		return errors.New("lambda must be within [0, 1]")
	}
	if o.TagBoost < 0 {
		return errors.New("tag-boost must be >= 0")
	}
	if o.MinUnitChars < 0 || o.MaxUnitChars < o.MinUnitChars {
		return errors.New("unit char bounds must satisfy 0 <= min <= max")
	}
	if o.ChunkChars < 0 || o.SentimentSampleCap < 0 {
		return errors.New("chunk-chars and sentiment-sample-cap must be >= 0")
	}
	if o.TTL < 0 {
		return errors.New("ttl must be >= 0")
	}
	if o.Concurrency < 0 || o.BatchSize < 0 {
		return errors.New("concurrency and batch-size must be >= 0")
	}
	return nil
}
