package models

import (
	"math"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/scoring"
	"github.com/spf13/cast"
)

// BrandingAudit is the model for the 'branding_audits' table.
// Result holds the JSON returned by the audit-branding function.
type BrandingAudit struct {
	ID              int64     `json:"id" db:"id"`
	WorkspaceID     int64     `json:"workspaceId" db:"workspace_id"`
	WebsiteURL      string    `json:"websiteUrl" db:"website_url"`
	InstagramHandle string    `json:"instagramHandle" db:"instagram_handle"`
	LinkedinURL     string    `json:"linkedinUrl" db:"linkedin_url"`
	ScoreGlobal     float64   `json:"scoreGlobal" db:"score_global"`
	Result          JSONDoc   `json:"result" db:"result"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`

	Recommendations []AuditRecommendation `json:"recommendations,omitempty" db:"-"`
}

// AuditRecommendation is the model for the 'audit_recommendations' table
type AuditRecommendation struct {
	ID          int64  `json:"id" db:"id"`
	AuditID     int64  `json:"auditId" db:"audit_id"`
	Title       string `json:"title" db:"title"`
	Detail      string `json:"detail" db:"detail"`
	Priority    string `json:"priority" db:"priority"`
	Module      string `json:"module,omitempty" db:"module"`
	Position    int    `json:"position" db:"position"`
	IsCompleted bool   `json:"isCompleted" db:"is_completed"`
}

// WebsiteAudit is the model for the 'website_audit' table (one per workspace)
type WebsiteAudit struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	URL         string    `json:"url" db:"url"`
	ScoreGlobal float64   `json:"scoreGlobal" db:"score_global"`
	Result      JSONDoc   `json:"result" db:"result"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// AuditResult is the JSON contract of the audit functions.
type AuditResult struct {
	ScoreGlobal     *float64             `json:"score_global"`
	Summary         string               `json:"synthese,omitempty"`
	Sections        []AuditSection       `json:"sections"`
	Recommendations []AuditRecommendItem `json:"recommandations"`
}

// GlobalScore returns the model's global score, or the weighted average of
// the section scores when it is missing. Scores and weights may come back
// as numbers or numeric strings; a missing weight counts as 1.
func (r *AuditResult) GlobalScore() float64 {
	if r.ScoreGlobal != nil {
		return clampScore(*r.ScoreGlobal)
	}
	items := make([]scoring.Weighted, 0, len(r.Sections))
	for _, s := range r.Sections {
		if s.Score == nil {
			continue
		}
		score, err := cast.ToFloat64E(s.Score)
		if err != nil {
			continue
		}
		weight := 1.0
		if s.Weight != nil {
			if w, err := cast.ToFloat64E(s.Weight); err == nil {
				weight = w
			}
		}
		items = append(items, scoring.Weighted{Score: score, Weight: weight})
	}
	avg := scoring.WeightedAverage(items)
	if avg == nil {
		return 0
	}
	return math.Round(*avg*10) / 10
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(scoring.MaxScore, v))
}

// AuditSection is one scored area of an audit.
type AuditSection struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Score      any      `json:"score"`
	Weight     any      `json:"weight,omitempty"`
	Strengths  []string `json:"points_forts,omitempty"`
	Weaknesses []string `json:"points_faibles,omitempty"`
}

// AuditRecommendItem is one recommendation as returned by the model.
type AuditRecommendItem struct {
	Title    string `json:"titre"`
	Detail   string `json:"detail"`
	Priority string `json:"priorite"`
	Module   string `json:"module,omitempty"`
}
