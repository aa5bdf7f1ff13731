package digest

import "math"

// Default selection parameters.
const (
	DefaultK      = 8
	DefaultLambda = 0.7
)

// SelectMMR greedily picks at most k indices by Maximal Marginal Relevance:
//
//	argmax_i  lambda*scores[i] - (1-lambda)*max_{j in chosen} cosine(vecs[i], vecs[j])
//
// The penalty is 0 while nothing is chosen. Ties go to the lowest index.
func SelectMMR(vecs [][]float64, scores []float64, k int, lambda float64) []int {
	n := min(len(vecs), len(scores))
	if n == 0 || k <= 0 {
		return nil
	}
	k = min(k, n)

	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	chosen := make([]int, 0, k)

	for len(chosen) < k && len(pool) > 0 {
		bestPos := -1
		bestScore := math.Inf(-1)
		for pos, i := range pool {
			mmr := lambda*scores[i] - (1-lambda)*maxSimilarity(vecs, i, chosen)
			if mmr > bestScore {
				bestScore = mmr
				bestPos = pos
			}
		}
		if bestPos < 0 {
			// every candidate scored NaN
			bestPos = 0
		}
		chosen = append(chosen, pool[bestPos])
		pool = append(pool[:bestPos], pool[bestPos+1:]...)
	}
	return chosen
}

func maxSimilarity(vecs [][]float64, i int, chosen []int) float64 {
	if len(chosen) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, j := range chosen {
		best = math.Max(best, Cosine(vecs[i], vecs[j]))
	}
	return best
}
