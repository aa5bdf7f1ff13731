package digest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default unit length bounds, in characters after whitespace normalization.
const (
	DefaultMinUnitChars = 25
	DefaultMaxUnitChars = 280
)

// Segment splits text into sentence-like spans. Whitespace runs collapse to single spaces and a
// boundary falls after '.', '!' or '?' when the following word starts with an uppercase letter, a
// digit or an opening quote. Spans outside [minChars, maxChars] are dropped.
func Segment(text string, minChars, maxChars int) []string {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return nil
	}

	runes := []rune(norm)
	var out []string
	start := 0
	for i := 0; i+2 < len(runes); i++ {
		if !isSentenceEnd(runes[i]) || runes[i+1] != ' ' || !opensSentence(runes[i+2]) {
			continue
		}
		out = appendSpan(out, string(runes[start:i+1]), minChars, maxChars)
		start = i + 2
	}
	return appendSpan(out, string(runes[start:]), minChars, maxChars)
}

func appendSpan(out []string, span string, minChars, maxChars int) []string {
	span = strings.TrimSpace(span)
	n := utf8.RuneCountInString(span)
	if n < minChars || n > maxChars {
		return out
	}
	return append(out, span)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func opensSentence(r rune) bool {
	switch r {
	case '"', '\'', '“', '‘':
		return true
	}
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}

// SegmentItems segments every item's text and records which item produced each unit.
func SegmentItems(items []SourceItem, minChars, maxChars int) []Unit {
	var units []Unit
	for i, it := range items {
		for _, s := range Segment(it.Text, minChars, maxChars) {
			units = append(units, Unit{Text: s, Source: i})
		}
	}
	return units
}
