// Package source provides digest.Collector implementations that read a stored feedback corpus.
package source

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// Corpus is the on-disk JSON shape: {"subjects": {"<id>": [item, ...]}}.
type Corpus struct {
	Subjects map[string][]digest.SourceItem `json:"subjects"`
}

// FileCollector serves subjects from a corpus loaded into memory.
type FileCollector struct {
	subjects map[string][]digest.SourceItem
}

var _ digest.Collector = (*FileCollector)(nil)

// LoadFile reads and validates a corpus file.
func LoadFile(path string) (*FileCollector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var c Corpus
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return NewFileCollector(c)
}

// NewFileCollector validates kinds and drops repeated ids (first occurrence wins). An empty
// kind is read as a post.
func NewFileCollector(c Corpus) (*FileCollector, error) {
	subjects := make(map[string][]digest.SourceItem, len(c.Subjects))
	for subject, items := range c.Subjects {
		seen := make(map[string]struct{}, len(items))
		out := make([]digest.SourceItem, 0, len(items))
		for i, it := range items {
			switch it.Kind {
			case digest.KindRating, digest.KindPost:
			case "":
				it.Kind = digest.KindPost
			default:
				return nil, fmt.Errorf("subject %s item %d: unknown kind %q", subject, i, it.Kind)
			}
			if it.ID != "" {
				key := string(it.Kind) + "/" + it.ID
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, it)
		}
		subjects[subject] = out
	}
	return &FileCollector{subjects: subjects}, nil
}

// Collect returns a copy of the subject's items; an unknown subject has none.
func (f *FileCollector) Collect(_ context.Context, subjectID string) ([]digest.SourceItem, error) {
	items := f.subjects[subjectID]
	out := make([]digest.SourceItem, len(items))
	copy(out, items)
	return out, nil
}

// Subjects lists the subject ids in the corpus.
func (f *FileCollector) Subjects() []string {
	out := make([]string, 0, len(f.subjects))
	for id := range f.subjects {
		out = append(out, id)
	}
	return out
}
