package digest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestAgeDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		createdAt string
		want      float64
	}{
		{"same day clamps to one", testNow.Add(-2 * time.Hour).Format(time.RFC3339), 1},
		{"future clamps to one", testNow.Add(48 * time.Hour).Format(time.RFC3339), 1},
		{"nine days", testNow.Add(-9 * 24 * time.Hour).Format(time.RFC3339), 9},
		{"date only", "2026-10-14", 4.5},
		{"sql timestamp", "2026-10-08 12:00:00", 10},
		{"missing", "", DefaultAgeDays},
		{"garbage", "last tuesday", DefaultAgeDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, AgeDays(tt.createdAt, testNow), 1e-9)
		})
	}
}

func TestWeight(t *testing.T) {
	t.Parallel()

	today := testNow.Format(time.RFC3339)
	base := SourceItem{Kind: KindRating, CreatedAt: today}

	assert.InDelta(t, 0.75, Weight(base, "anything", testNow, DefaultTagBoost), 1e-12)

	voted := base
	voted.Votes = 9
	assert.InDelta(t, 1.5, Weight(voted, "anything", testNow, DefaultTagBoost), 1e-12)

	negative := base
	negative.Votes = -5
	assert.InDelta(t, 0.75, Weight(negative, "anything", testNow, DefaultTagBoost), 1e-12)

	old := base
	old.CreatedAt = testNow.Add(-4 * 24 * time.Hour).Format(time.RFC3339)
	assert.InDelta(t, 0.375, Weight(old, "anything", testNow, DefaultTagBoost), 1e-12)

	undated := base
	undated.CreatedAt = ""
	assert.InDelta(t, 0.75/math.Sqrt(30), Weight(undated, "anything", testNow, DefaultTagBoost), 1e-12)
}

func TestWeight_TagBoost(t *testing.T) {
	t.Parallel()

	rating := SourceItem{Kind: KindRating, Tags: []string{" Pacing "}, CreatedAt: testNow.Format(time.RFC3339)}
	assert.InDelta(t, 0.75*1.10, Weight(rating, "Great PACING throughout.", testNow, DefaultTagBoost), 1e-12)
	assert.InDelta(t, 0.75, Weight(rating, "Great acting throughout.", testNow, DefaultTagBoost), 1e-12)
	assert.InDelta(t, 0.75*1.25, Weight(rating, "Great pacing throughout.", testNow, 0.25), 1e-12)

	post := rating
	post.Kind = KindPost
	assert.InDelta(t, 0.75, Weight(post, "Great pacing throughout.", testNow, DefaultTagBoost), 1e-12)
}

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1, Cosine([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-6)

	zero := Cosine([]float64{0, 0}, []float64{0, 0})
	assert.False(t, math.IsNaN(zero))
	assert.Equal(t, 0.0, zero)
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCentroidAndCoverage(t *testing.T) {
	t.Parallel()

	vecs := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	assert.Equal(t, []float64{2.0 / 3, 2.0 / 3}, Centroid(vecs))
	assert.Nil(t, Centroid(nil))

	cov := Coverage(vecs)
	require.Len(t, cov, 3)
	assert.InDelta(t, 1, cov[2], 1e-6)
	assert.InDelta(t, cov[0], cov[1], 1e-12)
	assert.Less(t, cov[0], cov[2])
}

func TestCombinedScores_TagBoostedSentenceScoresHigher(t *testing.T) {
	t.Parallel()

	text := "Great pacing and strong lead performance. The ending felt rushed though."
	tagged := []SourceItem{{
		ID:        "r1",
		Kind:      KindRating,
		Text:      text,
		Votes:     10,
		Tags:      []string{"pacing"},
		CreatedAt: testNow.Format(time.RFC3339),
	}}
	untagged := []SourceItem{tagged[0]}
	untagged[0].Tags = nil

	units := SegmentItems(tagged, DefaultMinUnitChars, DefaultMaxUnitChars)
	require.Len(t, units, 2)

	vecs, err := (&letterEmbedder{}).EmbedBatch(t.Context(), []string{units[0].Text, units[1].Text})
	require.NoError(t, err)

	with := CombinedScores(units, tagged, vecs, testNow, DefaultTagBoost)
	without := CombinedScores(units, untagged, vecs, testNow, DefaultTagBoost)

	assert.Greater(t, with[0], without[0])
	assert.InDelta(t, without[0]*1.10, with[0], 1e-12)
	assert.InDelta(t, without[1], with[1], 1e-12)
}
