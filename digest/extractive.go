package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDimensionMismatch is returned when the embedder yields vectors of differing length within one
// request.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const (
	collaboratorEmbedding = "embedding"
	collaboratorSentiment = "sentiment"
)

// Extractor runs the extractive path: segment → score → select → classify.
type Extractor struct {
	embedder   Embedder
	classifier SentimentClassifier
	opts       Options
	now        func() time.Time
}

// NewExtractor builds an Extractor. A nil now uses time.Now.
func NewExtractor(e Embedder, c SentimentClassifier, opts Options, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{embedder: e, classifier: c, opts: opts.withDefaults(), now: now}
}

// Summarize builds an extractive summary of items. The Hash field is left for the caller.
func (x *Extractor) Summarize(ctx context.Context, items []SourceItem) (Summary, error) {
	if x.embedder == nil || x.classifier == nil {
		return Summary{}, errors.New("extractor: embedder and classifier are required")
	}

	units := SegmentItems(items, x.opts.MinUnitChars, x.opts.MaxUnitChars)
	if len(units) == 0 {
		return emptySummary(""), nil
	}
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}

	vecs, err := x.embed(ctx, texts)
	if err != nil {
		return Summary{}, err
	}

	scores := CombinedScores(units, items, vecs, x.now(), x.opts.TagBoost)
	picked := SelectMMR(vecs, scores, x.opts.K, x.opts.Lambda)

	sample := texts
	if x.opts.SentimentSampleCap > 0 && len(sample) > x.opts.SentimentSampleCap {
		sample = sample[:x.opts.SentimentSampleCap]
	}
	sampleLabels, err := x.classify(ctx, sample)
	if err != nil {
		return Summary{}, err
	}

	selected := make([]string, len(picked))
	for i, idx := range picked {
		selected[i] = texts[idx]
	}
	selectedLabels, err := x.classify(ctx, selected)
	if err != nil {
		return Summary{}, err
	}

	pros, cons := SplitProsCons(selected, selectedLabels, x.opts.ProsMax, x.opts.ConsMax)
	return Summary{
		Overall: BuildOverall(selected, selectedLabels),
		Pros:    pros,
		Cons:    cons,
		Stats:   TallyLabels(sampleLabels),
		Quotes:  selected,
	}, nil
}

func (x *Extractor) embed(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := mapBatches(ctx, collaboratorEmbedding, texts, x.opts.BatchSize, x.opts.Concurrency, x.embedder.EmbedBatch)
	if err != nil {
		return nil, fmt.Errorf("embed units: %w", err)
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("unit %d has %d dimensions, want %d: %w", i, len(v), dim, ErrDimensionMismatch)
		}
	}
	return vecs, nil
}

func (x *Extractor) classify(ctx context.Context, texts []string) ([]Label, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	labels, err := mapBatches(ctx, collaboratorSentiment, texts, x.opts.BatchSize, x.opts.Concurrency, x.classifier.ClassifyBatch)
	if err != nil {
		return nil, fmt.Errorf("classify %d units: %w", len(texts), err)
	}
	for i, l := range labels {
		labels[i] = NormalizeLabel(strings.TrimSpace(string(l)))
	}
	return labels, nil
}
