// Package stats holds the month and number helpers used by the dashboard.
// All values are optional (*float64) because most KPIs can be missing for
// a month; a missing value renders as Dash.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Dash is what a missing value renders as.
const Dash = "–"

// fr-FR separators, as rendered by Intl.NumberFormat.
const (
	groupSep = "\u202f"
	unitSep  = "\u00a0"
)

// Direction classifies a percent change.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// flatThreshold is the largest absolute change (in points) still reported as flat.
const flatThreshold = 2

// Change is the result of PctChange.
type Change struct {
	Val int       `json:"val"`
	Dir Direction `json:"dir"`
}

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// F returns a pointer to v.
func F(v float64) *float64 { return &v }

// MonthKey returns the YYYY-MM key of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonthKey parses a YYYY-MM key into the first instant of the month (UTC).
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// MonthLabel renders a YYYY-MM key as "mars 2026". Invalid keys are returned as is.
func MonthLabel(key string) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// PreviousMonthKey returns the key of the month before key.
func PreviousMonthKey(key string) (string, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, -1, 0)), nil
}

// LastMonthKeys returns the n month keys ending with the month of now, oldest first.
func LastMonthKeys(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, MonthKey(first.AddDate(0, -i, 0)))
	}
	return keys
}

// PctChange compares a to its previous value b.
// It returns nil when either value is missing or b is zero.
func PctChange(a, b *float64) *Change {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	// Halves round toward +Inf: -2.5 is -2, 2.5 is 3.
	pct := (*a - *b) / *b * 100
	val := int(math.Floor(pct + 0.5))
	dir := Flat
	switch {
	case absInt(val) <= flatThreshold:
		dir = Flat
	case val > 0:
		dir = Up
	default:
		dir = Down
	}
	return &Change{Val: val, Dir: dir}
}

// SafeDiv returns a/b, or nil when b is zero or an operand is missing.
func SafeDiv(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return F(*a / *b)
}

// SafeDivPct returns a/b as a percentage, or nil like SafeDiv.
func SafeDivPct(a, b *float64) *float64 {
	v := SafeDiv(a, b)
	if v == nil {
		return nil
	}
	return F(*v * 100)
}

// Fmt renders an integer-rounded number with fr-FR grouping: "1 234".
func Fmt(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Dash
	}
	return humanize.FormatFloat("#"+groupSep+"###.", *v)
}

// FmtPct renders a percentage value (already ×100) with at most one decimal: "12,5 %".
func FmtPct(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Dash
	}
	s := humanize.FormatFloat("#"+groupSep+"###,#", *v)
	s = strings.TrimSuffix(s, ",0")
	return s + groupSep + "%"
}

// FmtEur renders a whole-euro amount: "1 500 €".
func FmtEur(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Dash
	}
	return Fmt(v) + unitSep + "€"
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
