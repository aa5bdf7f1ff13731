package provider

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// CachedEmbedder memoizes vectors by text in a bounded LRU, so repeated sentences across
// requests (and re-summarizations of a grown corpus) only embed the new ones.
type CachedEmbedder struct {
	next  digest.Embedder
	cache *lru.Cache[string, []float64]
}

var _ digest.Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(next digest.Embedder, size int) (*CachedEmbedder, error) {
	c, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: c}, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("got %d vectors for %d texts: %w", len(vecs), len(missing), digest.ErrCountMismatch)
	}
	for j, v := range vecs {
		out[missingIdx[j]] = v
		c.cache.Add(missing[j], v)
	}
	return out, nil
}

// Len reports the number of memoized vectors.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
