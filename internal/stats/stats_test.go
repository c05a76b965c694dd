package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyAndLabel(t *testing.T) {
	d := time.Date(2026, time.March, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03", MonthKey(d))
	assert.Equal(t, "mars 2026", MonthLabel("2026-03"))
	assert.Equal(t, "décembre 2025", MonthLabel("2025-12"))
	assert.Equal(t, "not-a-month", MonthLabel("not-a-month"))
}

func TestPreviousMonthKey(t *testing.T) {
	prev, err := PreviousMonthKey("2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", prev)

	_, err = PreviousMonthKey("2026-13")
	assert.Error(t, err)
}

func TestLastMonthKeys(t *testing.T) {
	now := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-11", "2025-12", "2026-01", "2026-02"}, LastMonthKeys(now, 4))
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want *Change
	}{
		{"small rise is flat", F(102), F(100), &Change{Val: 2, Dir: Flat}},
		{"rise", F(110), F(100), &Change{Val: 10, Dir: Up}},
		{"drop", F(90), F(100), &Change{Val: -10, Dir: Down}},
		{"small drop is flat", F(98), F(100), &Change{Val: -2, Dir: Flat}},
		{"just above threshold", F(103), F(100), &Change{Val: 3, Dir: Up}},
		{"half drop rounds up to flat", F(39), F(40), &Change{Val: -2, Dir: Flat}},
		{"half rise rounds up", F(41), F(40), &Change{Val: 3, Dir: Up}},
		{"half drop far from threshold", F(1), F(8), &Change{Val: -87, Dir: Down}},
		{"zero previous", F(5), F(0), nil},
		{"missing current", nil, F(100), nil},
		{"missing previous", F(5), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PctChange(tt.a, tt.b))
		})
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, Dash, Fmt(nil))
	assert.Equal(t, Dash, FmtPct(nil))
	assert.Equal(t, Dash, FmtEur(nil))

	assert.Equal(t, "42", Fmt(F(42)))
	assert.Equal(t, "1\u202f234\u202f567", Fmt(F(1234567)))
	assert.Equal(t, "1\u202f235", Fmt(F(1234.6)))

	assert.Equal(t, "12,5\u202f%", FmtPct(F(12.5)))
	assert.Equal(t, "40\u202f%", FmtPct(F(40)))

	assert.Equal(t, "1\u202f500\u00a0€", FmtEur(F(1500)))
}

func TestSafeDiv(t *testing.T) {
	assert.Nil(t, SafeDiv(F(1), F(0)))
	assert.Nil(t, SafeDiv(nil, F(2)))
	assert.Nil(t, SafeDiv(F(1), nil))
	assert.Equal(t, 0.5, *SafeDiv(F(1), F(2)))

	assert.Nil(t, SafeDivPct(F(3), F(0)))
	assert.Equal(t, 25.0, *SafeDivPct(F(1), F(4)))
}
