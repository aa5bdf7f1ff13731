package digest

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const chunkSeparator = "\n\n"

// FormatSourceItem renders an item the way it is shown to the generative collaborator.
func FormatSourceItem(it SourceItem) string {
	text := strings.TrimSpace(it.Text)
	if it.Kind == KindRating {
		return "Review (" + strconv.FormatFloat(it.Stars, 'f', -1, 64) + "/10): " + text
	}
	return "Post: " + text
}

// BuildChunks packs the formatted items with text into chunks of at most budget characters. An
// item is never split: when it does not fit the current chunk it starts the next one, and an item
// longer than budget occupies a chunk of its own.
func BuildChunks(items []SourceItem, budget int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	sepLen := utf8.RuneCountInString(chunkSeparator)

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
		}
		cur.Reset()
		curLen = 0
	}

	for _, it := range items {
		if !it.HasText() {
			continue
		}
		piece := FormatSourceItem(it)
		n := utf8.RuneCountInString(piece)

		if curLen > 0 && budget > 0 && curLen+sepLen+n > budget {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(chunkSeparator)
			curLen += sepLen
		}
		cur.WriteString(piece)
		curLen += n
	}
	flush()
	return chunks
}
