package digest

import "strings"

// Default aggregation bounds.
const (
	DefaultProsMax            = 3
	DefaultConsMax            = 3
	DefaultSentimentSampleCap = 250
	maxOverallLines           = 3
)

// TallyLabels counts labels into stats whose Total is len(labels).
func TallyLabels(labels []Label) SentimentStats {
	var s SentimentStats
	for _, l := range labels {
		switch l {
		case LabelPositive:
			s.Positive++
		case LabelNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	s.Total = len(labels)
	return s.WithPercents()
}

// SplitProsCons partitions labeled texts into positive and negative buckets, preserving order and
// keeping the first prosMax / consMax of each.
func SplitProsCons(texts []string, labels []Label, prosMax, consMax int) (pros, cons []string) {
	pros, cons = []string{}, []string{}
	for i, t := range texts {
		if i >= len(labels) {
			break
		}
		switch labels[i] {
		case LabelPositive:
			if len(pros) < prosMax {
				pros = append(pros, t)
			}
		case LabelNegative:
			if len(cons) < consMax {
				cons = append(cons, t)
			}
		}
	}
	return pros, cons
}

// BuildOverall joins the first positive line, the first negative line and a second positive line,
// in that order. With no polar line the result is empty.
func BuildOverall(texts []string, labels []Label) string {
	var positives, negatives []string
	for i, t := range texts {
		if i >= len(labels) {
			break
		}
		switch labels[i] {
		case LabelPositive:
			positives = append(positives, t)
		case LabelNegative:
			negatives = append(negatives, t)
		}
	}

	lines := make([]string, 0, maxOverallLines)
	if len(positives) > 0 {
		lines = append(lines, positives[0])
	}
	if len(negatives) > 0 {
		lines = append(lines, negatives[0])
	}
	if len(positives) > 1 {
		lines = append(lines, positives[1])
	}
	return strings.Join(lines[:min(len(lines), maxOverallLines)], " ")
}
