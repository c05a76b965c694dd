package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/stats"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

//
// --- Monthly dashboard ---
//

const (
	defaultStatMonths = 6
	maxStatMonths     = 12
)

// monthlyMetrics are the counters of the dashboard. Each query takes
// (workspace_id, since) and returns (month key, count) rows.
var monthlyMetrics = []struct {
	key   string
	query string
}{
	{"published", `
		SELECT DATE_FORMAT(post_date, '%Y-%m') AS m, COUNT(*) FROM calendar_posts
		WHERE workspace_id = ? AND status = 'published' AND post_date >= ?
		GROUP BY m`},
	{"planned", `
		SELECT DATE_FORMAT(post_date, '%Y-%m') AS m, COUNT(*) FROM calendar_posts
		WHERE workspace_id = ? AND post_date >= ?
		GROUP BY m`},
	{"ideas", `
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS m, COUNT(*) FROM saved_ideas
		WHERE workspace_id = ? AND created_at >= ?
		GROUP BY m`},
	{"generations", `
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS m, COUNT(*) FROM ai_generations
		WHERE workspace_id = ? AND created_at >= ?
		GROUP BY m`},
}

// MetricValue is one counter of one month.
type MetricValue struct {
	Value   float64       `json:"value"`
	Display string        `json:"display"`
	Change  *stats.Change `json:"change"`
}

// MonthStats is one month of the dashboard.
type MonthStats struct {
	Month   string                 `json:"month"`
	Label   string                 `json:"label"`
	Metrics map[string]MetricValue `json:"metrics"`
}

// buildMonthStats lays out counts (metric → month → count) over keys.
// The first key only serves as the previous month of the second.
func buildMonthStats(keys []string, counts map[string]map[string]float64) []MonthStats {
	out := make([]MonthStats, 0, len(keys)-1)
	for i := 1; i < len(keys); i++ {
		ms := MonthStats{Month: keys[i], Label: stats.MonthLabel(keys[i]), Metrics: map[string]MetricValue{}}
		for _, m := range monthlyMetrics {
			cur := stats.F(counts[m.key][keys[i]])
			prev := stats.F(counts[m.key][keys[i-1]])
			ms.Metrics[m.key] = MetricValue{
				Value:   *cur,
				Display: stats.Fmt(cur),
				Change:  stats.PctChange(cur, prev),
			}
		}
		out = append(out, ms)
	}
	return out
}

// GetMonthlyStats is the handler for GET /v1/stats/monthly?months=N.
// N is 1..12 (default 6); each month is compared with the one before.
func (h *Handlers) GetMonthlyStats(c *gin.Context) {
	months, err := cast.ToIntE(c.DefaultQuery("months", fmt.Sprint(defaultStatMonths)))
	if err != nil || months < 1 || months > maxStatMonths {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le nombre de mois doit être entre 1 et 12"})
		return
	}

	keys := stats.LastMonthKeys(time.Now(), months+1)
	first, _ := stats.ParseMonthKey(keys[0])
	since := first.Format(time.DateOnly)
	workspaceID := c.GetInt64("workspaceID")

	counts := make([]map[string]float64, len(monthlyMetrics))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, m := range monthlyMetrics {
		g.Go(func() error {
			rows, err := h.DB.QueryContext(ctx, m.query, workspaceID, since)
			if err != nil {
				return fmt.Errorf("%s: %w", m.key, err)
			}
			defer rows.Close()

			byMonth := map[string]float64{}
			for rows.Next() {
				var (
					month string
					n     int64
				)
				if err := rows.Scan(&month, &n); err != nil {
					return fmt.Errorf("%s: %w", m.key, err)
				}
				byMonth[month] = float64(n)
			}
			counts[i] = byMonth
			return rows.Err()
		})
	}
	if err := g.Wait(); err != nil {
		h.serverError(c, "monthly stats", err)
		return
	}

	byMetric := make(map[string]map[string]float64, len(monthlyMetrics))
	for i, m := range monthlyMetrics {
		byMetric[m.key] = counts[i]
	}
	c.JSON(http.StatusOK, gin.H{"months": buildMonthStats(keys, byMetric)})
}
