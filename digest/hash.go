package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"unicode/utf8"
)

// CorpusHash fingerprints a corpus from its structure only: ids, votes, timestamps, star scores
// and text lengths. The raw text never enters the hash, so an edit that keeps the length keeps the
// hash. Item order does not matter.
func CorpusHash(items []SourceItem) string {
	var ratings, posts []SourceItem
	for _, it := range items {
		if it.Kind == KindRating {
			ratings = append(ratings, it)
		} else {
			posts = append(posts, it)
		}
	}
	byID := func(s []SourceItem) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].ID < s[j].ID })
	}
	byID(ratings)
	byID(posts)

	// Tuples mirror [id, votes, date, commentLength, stars] and [id, createdAt, contentLength].
	fp := struct {
		Ratings [][]any `json:"ratings"`
		Posts   [][]any `json:"posts"`
	}{
		Ratings: make([][]any, 0, len(ratings)),
		Posts:   make([][]any, 0, len(posts)),
	}
	for _, r := range ratings {
		fp.Ratings = append(fp.Ratings, []any{r.ID, r.Votes, r.CreatedAt, utf8.RuneCountInString(r.Text), r.Stars})
	}
	for _, p := range posts {
		fp.Posts = append(fp.Posts, []any{p.ID, p.CreatedAt, utf8.RuneCountInString(p.Text)})
	}

	// Marshalling slices of scalars cannot fail.
	b, _ := json.Marshal(fp)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
