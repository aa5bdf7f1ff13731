package digest

import (
	"math"
	"strings"
	"time"
)

const (
	// RepFactor stands in for a per-author reputation signal: 0.5 + 0.5*0.5 with a neutral
	// reputation of 0.5. Swap it for a real signal without changing the weight formula.
	RepFactor = 0.5 + 0.5*0.5

	// DefaultAgeDays is the age assumed for items without a usable timestamp.
	DefaultAgeDays = 30

	// CosineEpsilon keeps cosine similarity finite for zero vectors.
	CosineEpsilon = 1e-8

	// DefaultTagBoost is added to 1 when a unit mentions one of its rating's tags.
	DefaultTagBoost = 0.10
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseCreatedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeDays returns the item's age in days, never less than 1.
func AgeDays(createdAt string, now time.Time) float64 {
	t, ok := parseCreatedAt(createdAt)
	if !ok {
		return DefaultAgeDays
	}
	return math.Max(1, now.Sub(t).Hours()/24)
}

// Weight is likeFactor × RepFactor × timeDecay × tagBoost for one unit of item.
func Weight(item SourceItem, unitText string, now time.Time, tagBoost float64) float64 {
	like := 1 + math.Log10(1+math.Max(0, float64(item.Votes)))
	decay := 1 / math.Sqrt(AgeDays(item.CreatedAt, now))
	boost := 1.0
	if item.Kind == KindRating && mentionsTag(unitText, item.Tags) {
		boost += tagBoost
	}
	return like * RepFactor * decay * boost
}

func mentionsTag(text string, tags []string) bool {
	lower := strings.ToLower(text)
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// Cosine is dot(a,b) / (‖a‖·‖b‖ + CosineEpsilon). Vectors of unequal length are compared over
// their common prefix.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + CosineEpsilon)
}

// Centroid is the element-wise mean of vecs.
func Centroid(vecs [][]float64) []float64 {
	if len(vecs) == 0 {
		return nil
	}
	c := make([]float64, len(vecs[0]))
	for _, v := range vecs {
		for i := range c {
			if i < len(v) {
				c[i] += v[i]
			}
		}
	}
	for i := range c {
		c[i] /= float64(len(vecs))
	}
	return c
}

// Coverage scores each vector by its cosine similarity to the batch centroid.
func Coverage(vecs [][]float64) []float64 {
	c := Centroid(vecs)
	out := make([]float64, len(vecs))
	for i, v := range vecs {
		out[i] = Cosine(v, c)
	}
	return out
}

// CombinedScores returns coverage × weight for every unit; vecs[i] belongs to units[i].
func CombinedScores(units []Unit, items []SourceItem, vecs [][]float64, now time.Time, tagBoost float64) []float64 {
	cov := Coverage(vecs)
	out := make([]float64, len(units))
	for i, u := range units {
		out[i] = cov[i] * Weight(items[u.Source], u.Text, now, tagBoost)
	}
	return out
}
