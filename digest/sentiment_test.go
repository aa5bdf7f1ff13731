package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyLabels(t *testing.T) {
	t.Parallel()

	got := TallyLabels([]Label{LabelPositive, LabelPositive, LabelNegative, LabelNeutral})
	assert.Equal(t, SentimentStats{
		Positive: 2, Neutral: 1, Negative: 1, Total: 4,
		PositivePercent: 50, NeutralPercent: 25, NegativePercent: 25,
	}, got)

	assert.Equal(t, SentimentStats{}, TallyLabels(nil))
}

func TestSentimentStats_PercentagesSumToHundred(t *testing.T) {
	t.Parallel()

	for total := 1; total <= 40; total++ {
		for pos := 0; pos <= total; pos++ {
			for neg := 0; neg <= total-pos; neg++ {
				s := SentimentStats{Positive: pos, Negative: neg, Neutral: total - pos - neg, Total: total}.WithPercents()
				sum := s.PositivePercent + s.NeutralPercent + s.NegativePercent
				if sum < 99 || sum > 101 {
					t.Fatalf("pos=%d neg=%d total=%d: percentages sum to %d", pos, neg, total, sum)
				}
			}
		}
	}

	zero := SentimentStats{Positive: 3}.WithPercents()
	assert.Zero(t, zero.PositivePercent)
	assert.Zero(t, zero.NeutralPercent)
	assert.Zero(t, zero.NegativePercent)
}

func TestSplitProsCons(t *testing.T) {
	t.Parallel()

	texts := []string{"p1", "n1", "p2", "x", "p3", "p4", "n2"}
	labels := []Label{LabelPositive, LabelNegative, LabelPositive, LabelNeutral, LabelPositive, LabelPositive, LabelNegative}

	pros, cons := SplitProsCons(texts, labels, 3, 1)
	assert.Equal(t, []string{"p1", "p2", "p3"}, pros)
	assert.Equal(t, []string{"n1"}, cons)

	pros, cons = SplitProsCons(nil, nil, 3, 3)
	assert.NotNil(t, pros)
	assert.NotNil(t, cons)
	assert.Empty(t, pros)
	assert.Empty(t, cons)
}

func TestBuildOverall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		texts  []string
		labels []Label
		want   string
	}{
		{
			name:   "strength, weakness, strength",
			texts:  []string{"n1.", "p1.", "p2.", "n2.", "p3."},
			labels: []Label{LabelNegative, LabelPositive, LabelPositive, LabelNegative, LabelPositive},
			want:   "p1. n1. p2.",
		},
		{
			name:   "only positives",
			texts:  []string{"p1.", "p2.", "p3."},
			labels: []Label{LabelPositive, LabelPositive, LabelPositive},
			want:   "p1. p2.",
		},
		{
			name:   "only negatives",
			texts:  []string{"n1.", "n2."},
			labels: []Label{LabelNegative, LabelNegative},
			want:   "n1.",
		},
		{
			name:   "no polar labels",
			texts:  []string{"meh one.", "meh two."},
			labels: []Label{LabelNeutral, LabelNeutral},
			want:   "",
		},
		{
			name: "nothing selected",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildOverall(tt.texts, tt.labels))
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LabelPositive, NormalizeLabel("positive"))
	assert.Equal(t, LabelPositive, NormalizeLabel(" LABEL_2 "))
	assert.Equal(t, LabelPositive, NormalizeLabel("pos"))
	assert.Equal(t, LabelNegative, NormalizeLabel("NEGATIVE"))
	assert.Equal(t, LabelNegative, NormalizeLabel("label_0"))
	assert.Equal(t, LabelNeutral, NormalizeLabel("LABEL_1"))
	assert.Equal(t, LabelNeutral, NormalizeLabel(""))
}
