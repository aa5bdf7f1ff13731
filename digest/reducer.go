package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/theimaginaryfoundation/review-digest/digest/metrics"
)

const collaboratorGenerative = "generative"

// Reducer summarizes a corpus through the generative collaborator: size-bounded chunks are
// summarized concurrently, merged, and finished with one overview paragraph.
type Reducer struct {
	completer Completer
	opts      Options
}

// NewReducer builds a Reducer. opts are defaulted.
func NewReducer(c Completer, opts Options) *Reducer {
	return &Reducer{completer: c, opts: opts.withDefaults()}
}

// Summarize runs chunk → map → reduce → final pass. Any chunk failure fails the whole call.
func (r *Reducer) Summarize(ctx context.Context, items []SourceItem) (Summary, error) {
	if r.completer == nil {
		return Summary{}, errors.New("reducer: completer is nil")
	}

	chunks := BuildChunks(items, r.opts.ChunkChars)
	metrics.ChunksPerRequest.Observe(float64(len(chunks)))

	parts, err := r.mapChunks(ctx, chunks)
	if err != nil {
		return Summary{}, err
	}

	nonEmpty := 0
	for _, it := range items {
		if it.HasText() {
			nonEmpty++
		}
	}
	out := Reduce(parts, nonEmpty, r.opts.ReduceMax, r.opts.QuoteMax)

	overall, err := r.overall(ctx, out)
	if err != nil {
		return Summary{}, err
	}
	out.Overall = overall
	return out, nil
}

func (r *Reducer) mapChunks(ctx context.Context, chunks []string) ([]ChunkSummary, error) {
	parts := make([]ChunkSummary, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			raw, err := r.completer.Complete(gctx, CompletionRequest{
				Name:         "ChunkSummary",
				Instructions: r.opts.ChunkInstructions,
				Prompt:       chunk,
				Schema:       chunkSummarySchema,
			})
			if err != nil {
				metrics.CollaboratorCalls.WithLabelValues(collaboratorGenerative, "error").Inc()
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			res := ParseChunkSummary(raw)
			if !res.OK() {
				metrics.CollaboratorCalls.WithLabelValues(collaboratorGenerative, "malformed").Inc()
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), res.Err)
			}
			metrics.CollaboratorCalls.WithLabelValues(collaboratorGenerative, "ok").Inc()
			parts[i] = res.Summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// Reduce merges chunk summaries: pros and cons are unioned (trimmed, case-sensitive) up to
// listMax each, stats are summed, and up to quoteMax quotes are kept in chunk order. When the
// summed total is zero, fallbackTotal (the number of non-empty source texts) is used instead.
func Reduce(parts []ChunkSummary, fallbackTotal, listMax, quoteMax int) Summary {
	out := Summary{Pros: []string{}, Cons: []string{}, Quotes: []string{}}
	prosSeen := map[string]struct{}{}
	consSeen := map[string]struct{}{}

	for _, p := range parts {
		out.Pros = unionTrimmed(out.Pros, p.Pros, prosSeen, listMax)
		out.Cons = unionTrimmed(out.Cons, p.Cons, consSeen, listMax)
		if p.Stats != nil {
			out.Stats.Positive += p.Stats.Positive
			out.Stats.Neutral += p.Stats.Neutral
			out.Stats.Negative += p.Stats.Negative
			out.Stats.Total += p.Stats.Total
		}
		for _, q := range p.Quotes {
			if len(out.Quotes) >= quoteMax {
				break
			}
			if q = strings.TrimSpace(q); q != "" {
				out.Quotes = append(out.Quotes, q)
			}
		}
	}

	if out.Stats.Total == 0 {
		out.Stats.Total = fallbackTotal
	}
	out.Stats = out.Stats.WithPercents()
	return out
}

func unionTrimmed(dst, in []string, seen map[string]struct{}, max int) []string {
	for _, s := range in {
		if len(dst) >= max {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

type overallInput struct {
	Pros   []string       `json:"pros"`
	Cons   []string       `json:"cons"`
	Stats  SentimentStats `json:"stats"`
	Quotes []string       `json:"quotes"`
}

func (r *Reducer) overall(ctx context.Context, s Summary) (string, error) {
	payload, err := json.Marshal(overallInput{Pros: s.Pros, Cons: s.Cons, Stats: s.Stats, Quotes: s.Quotes})
	if err != nil {
		return "", fmt.Errorf("marshal overall input: %w", err)
	}
	text, err := r.completer.Complete(ctx, CompletionRequest{
		Name:         "Overall",
		Instructions: overallInstructions,
		Prompt:       string(payload),
	})
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues(collaboratorGenerative, "error").Inc()
		return "", fmt.Errorf("overall paragraph: %w", err)
	}
	metrics.CollaboratorCalls.WithLabelValues(collaboratorGenerative, "ok").Inc()
	if text = strings.TrimSpace(text); text == "" {
		return FallbackOverall, nil
	}
	return text, nil
}
