package digest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// letterEmbedder maps a text onto its 26 letter counts.
type letterEmbedder struct {
	calls atomic.Int64
	texts atomic.Int64
}

func (e *letterEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	e.calls.Add(1)
	e.texts.Add(int64(len(texts)))
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

var (
	positiveWords = []string{"great", "strong", "loved", "beautiful", "brilliant"}
	negativeWords = []string{"rushed", "boring", "dull", "weak", "bad"}
)

type keywordClassifier struct {
	calls atomic.Int64
}

func (c *keywordClassifier) ClassifyBatch(_ context.Context, texts []string) ([]Label, error) {
	c.calls.Add(1)
	out := make([]Label, len(texts))
	for i, t := range texts {
		out[i] = keywordLabel(t)
	}
	return out, nil
}

func keywordLabel(t string) Label {
	lower := strings.ToLower(t)
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			return LabelNegative
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			return LabelPositive
		}
	}
	return LabelNeutral
}

type scriptedCompleter struct {
	mu    sync.Mutex
	reqs  []CompletionRequest
	reply func(CompletionRequest) (string, error)
}

func (c *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	c.mu.Lock()
	c.reqs = append(c.reqs, req)
	c.mu.Unlock()
	return c.reply(req)
}

func (c *scriptedCompleter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.reqs {
		if name == "" || r.Name == name {
			n++
		}
	}
	return n
}

const validChunkJSON = `{"pros":["Strong lead"],"cons":["Rushed ending"],"stats":{"positive":1,"neutral":0,"negative":1,"total":2},"quotes":["Great pacing"]}`

type memStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	getErr  error
	setErr  error
	sets    int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]Entry{}}
}

func (s *memStore) Get(_ context.Context, id string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Entry{}, false, s.getErr
	}
	e, ok := s.entries[id]
	return e, ok, nil
}

func (s *memStore) Set(_ context.Context, id string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[id] = e
	return nil
}

func (s *memStore) Invalidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

type staticCollector struct {
	mu    sync.Mutex
	items map[string][]SourceItem
	calls int
}

func (c *staticCollector) Collect(_ context.Context, id string) ([]SourceItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	out := make([]SourceItem, len(c.items[id]))
	copy(out, c.items[id])
	return out, nil
}

func (c *staticCollector) set(id string, items []SourceItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = items
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
