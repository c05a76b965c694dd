// Package scoring computes completion percentages of the branding editors
// and weighted quality scores of audits.
package scoring

import "strings"

// MaxScore caps completion and quality scores.
const MaxScore = 100

// Field is one weighted entry of a completion checklist.
type Field struct {
	Key    string
	Points int
	Filled bool
}

// Text reports a field as filled when s has non-blank content.
func Text(key string, points int, s string) Field {
	return Field{Key: key, Points: points, Filled: strings.TrimSpace(s) != ""}
}

// AtLeast reports a field as filled when n reaches min.
func AtLeast(key string, points, n, min int) Field {
	return Field{Key: key, Points: points, Filled: n >= min}
}

// Completion sums the points of filled fields, capped at MaxScore.
func Completion(fields []Field) int {
	total := 0
	for _, f := range fields {
		if f.Filled && f.Points > 0 {
			total += f.Points
		}
	}
	if total > MaxScore {
		return MaxScore
	}
	return total
}

// Missing lists the keys of unfilled fields, in checklist order.
func Missing(fields []Field) []string {
	var keys []string
	for _, f := range fields {
		if !f.Filled {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Weighted is a score with its weight in an average.
type Weighted struct {
	Score  float64
	Weight float64
}

// WeightedAverage returns Σ score×weight / Σ weight with scores clamped to
// 0..MaxScore. Items with a non-positive weight are ignored; nil is returned
// when nothing is left to average.
func WeightedAverage(items []Weighted) *float64 {
	var sum, weights float64
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		sum += clamp(it.Score) * it.Weight
		weights += it.Weight
	}
	if weights <= 0 {
		return nil
	}
	avg := sum / weights
	return &avg
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	}
	return v
}
