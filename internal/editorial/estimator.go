// Package editorial estimates the weekly time an editorial line costs.
package editorial

import (
	"math"
	"sort"
)

// Tier buckets the ratio between needed and available time.
type Tier string

const (
	TierOK    Tier = "ok"
	TierTight Tier = "tight"
	TierOver  Tier = "over"
)

// Ratio thresholds between tiers.
const (
	okRatio    = 0.8
	tightRatio = 1.0
)

// MaxPerWeek is the largest weekly count of one format taken into account.
const MaxPerWeek = 100

// EngagementMinutes is the weekly time budgeted for replies, DMs and comments.
const EngagementMinutes = 105

// AvgMinutes is the average production time of one piece of content per format.
var AvgMinutes = map[string]int{
	"post":     30,
	"carousel": 60,
	"reel":     90,
	"story":    10,
	"live":     45,
	"article":  60,
}

// FormatCost is the weekly time of one format.
type FormatCost struct {
	Format    string `json:"format"`
	PerWeek   int    `json:"perWeek"`
	UnitMin   int    `json:"unitMinutes"`
	TotalMin  int    `json:"totalMinutes"`
	Supported bool   `json:"supported"`
}

// Estimate is the weekly time estimation of an editorial line.
type Estimate struct {
	NeededMinutes     int          `json:"neededMinutes"`
	AvailableMinutes  int          `json:"availableMinutes"`
	EngagementMinutes int          `json:"engagementMinutes"`
	Ratio             *float64     `json:"ratio"`
	Tier              Tier         `json:"tier"`
	Breakdown         []FormatCost `json:"breakdown"`
}

// Compute sums frequency × average minutes per format plus the engagement
// time, and compares it with the weekly available minutes. Unknown formats
// and non-positive frequencies cost nothing; counts above MaxPerWeek are
// capped.
func Compute(frequency map[string]int, availableMinutes int) Estimate {
	formats := make([]string, 0, len(frequency))
	for f := range frequency {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	needed := EngagementMinutes
	breakdown := make([]FormatCost, 0, len(formats))
	for _, f := range formats {
		n := min(frequency[f], MaxPerWeek)
		unit, ok := AvgMinutes[f]
		cost := FormatCost{Format: f, PerWeek: n, UnitMin: unit, Supported: ok}
		if ok && n > 0 {
			cost.TotalMin = n * unit
			needed += cost.TotalMin
		}
		breakdown = append(breakdown, cost)
	}

	est := Estimate{
		NeededMinutes:     needed,
		AvailableMinutes:  availableMinutes,
		EngagementMinutes: EngagementMinutes,
		Breakdown:         breakdown,
	}
	if availableMinutes <= 0 {
		est.Tier = TierOver
		return est
	}

	ratio := math.Round(float64(needed)/float64(availableMinutes)*100) / 100
	est.Ratio = &ratio
	est.Tier = TierFor(float64(needed) / float64(availableMinutes))
	return est
}

// TierFor buckets a needed/available ratio.
func TierFor(ratio float64) Tier {
	switch {
	case ratio <= okRatio:
		return TierOK
	case ratio <= tightRatio:
		return TierTight
	default:
		return TierOver
	}
}
