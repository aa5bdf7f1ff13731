package digest

import (
	"math"
	"strings"
)

// SourceKind distinguishes the two kinds of raw feedback the engine reads.
type SourceKind string

const (
	KindRating SourceKind = "rating"
	KindPost   SourceKind = "post"
)

// SourceItem is one piece of raw feedback about a subject. The engine never mutates it.
type SourceItem struct {
	ID   string     `json:"id"`
	Kind SourceKind `json:"kind"`
	Text string     `json:"text"`

	// Stars is the numeric rating score (ratings only).
	Stars float64 `json:"stars,omitempty"`

	// Votes is the helpfulness signal (ratings only).
	Votes int `json:"votes,omitempty"`

	// Tags are free-text labels attached to a rating. Posts carry none.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is an ISO-8601 timestamp; empty or unparsable values fall back to DefaultAgeDays.
	CreatedAt string `json:"created_at,omitempty"`
}

// HasText reports whether the item carries any non-whitespace text.
func (s SourceItem) HasText() bool {
	return strings.TrimSpace(s.Text) != ""
}

// Unit is one sentence-like span of a SourceItem's text.
type Unit struct {
	Text string
	// Source indexes the SourceItem slice the unit was segmented from.
	Source int
}

// Label is the three-way sentiment label returned by the classifier.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNeutral  Label = "NEUTRAL"
	LabelNegative Label = "NEGATIVE"
)

// NormalizeLabel maps classifier output variants onto the three canonical labels.
func NormalizeLabel(raw string) Label {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POSITIVE", "POS", "LABEL_2":
		return LabelPositive
	case "NEGATIVE", "NEG", "LABEL_0":
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// SentimentStats holds label counts and their rounded percentages.
type SentimentStats struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`

	PositivePercent int `json:"positive_percent"`
	NeutralPercent  int `json:"neutral_percent"`
	NegativePercent int `json:"negative_percent"`
}

// WithPercents returns a copy with the *Percent fields derived from the counts over Total.
func (s SentimentStats) WithPercents() SentimentStats {
	s.PositivePercent = percent(s.Positive, s.Total)
	s.NeutralPercent = percent(s.Neutral, s.Total)
	s.NegativePercent = percent(s.Negative, s.Total)
	return s
}

func percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

// Summary is the digest produced for one subject.
type Summary struct {
	Overall string         `json:"overall"`
	Pros    []string       `json:"pros"`
	Cons    []string       `json:"cons"`
	Stats   SentimentStats `json:"stats"`
	Quotes  []string       `json:"quotes"`

	// Hash fingerprints the corpus the summary was built from (extractive path only).
	Hash string `json:"hash,omitempty"`
}

func emptySummary(overall string) Summary {
	return Summary{
		Overall: overall,
		Pros:    []string{},
		Cons:    []string{},
		Quotes:  []string{},
	}
}

// ChunkStats are the label counts a generative collaborator reports for one chunk.
type ChunkStats struct {
	Positive int `json:"positive" validate:"min=0"`
	Neutral  int `json:"neutral" validate:"min=0"`
	Negative int `json:"negative" validate:"min=0"`
	Total    int `json:"total" validate:"min=0"`
}

// ChunkSummary is the partial structured result for one chunk in the generative path.
type ChunkSummary struct {
	Pros   []string    `json:"pros" validate:"required"`
	Cons   []string    `json:"cons" validate:"required"`
	Stats  *ChunkStats `json:"stats" validate:"required"`
	Quotes []string    `json:"quotes" validate:"required,min=1,max=3"`
}
