package models

import (
	"time"

	"github.com/01moynul/brandstudio-golang/internal/scoring"
)

// Section is a singleton branding row (one per workspace).
type Section interface {
	CompletionFields() []scoring.Field
	Base() *SectionBase
}

// SectionBase holds the columns every branding section shares.
type SectionBase struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	IsValidated bool      `json:"isValidated" db:"is_validated"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Base returns the shared columns.
func (b *SectionBase) Base() *SectionBase { return b }

// BrandProfile is the model for the 'brand_profile' table
type BrandProfile struct {
	SectionBase
	Activity  string     `json:"activity" db:"activity"`
	Target    string     `json:"target" db:"target"`
	Mission   string     `json:"mission" db:"mission"`
	Values    StringList `json:"values" db:"brand_values"`
	ToneWords StringList `json:"toneKeywords" db:"tone_keywords"`
}

func (p *BrandProfile) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.Text("activity", 20, p.Activity),
		scoring.Text("target", 20, p.Target),
		scoring.Text("mission", 20, p.Mission),
		scoring.AtLeast("values", 20, p.Values.Len(), 3),
		scoring.AtLeast("toneKeywords", 20, p.ToneWords.Len(), 3),
	}
}

// Storytelling is the model for the 'storytelling' table
type Storytelling struct {
	SectionBase
	Origin       string `json:"origin" db:"origin"`
	TurningPoint string `json:"turningPoint" db:"turning_point"`
	Struggles    string `json:"struggles" db:"struggles"`
	Victory      string `json:"victory" db:"victory"`
	Pitch        string `json:"pitch" db:"pitch"`
}

func (s *Storytelling) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.Text("origin", 25, s.Origin),
		scoring.Text("turningPoint", 20, s.TurningPoint),
		scoring.Text("struggles", 15, s.Struggles),
		scoring.Text("victory", 15, s.Victory),
		scoring.Text("pitch", 25, s.Pitch),
	}
}

// BrandProposition is the model for the 'brand_proposition' table
type BrandProposition struct {
	SectionBase
	ForWhom     string `json:"forWhom" db:"for_whom"`
	Problem     string `json:"problem" db:"problem"`
	Solution    string `json:"solution" db:"solution"`
	Difference  string `json:"difference" db:"difference"`
	Proposition string `json:"proposition" db:"proposition"`
}

func (p *BrandProposition) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.Text("forWhom", 20, p.ForWhom),
		scoring.Text("problem", 20, p.Problem),
		scoring.Text("solution", 20, p.Solution),
		scoring.Text("difference", 20, p.Difference),
		scoring.Text("proposition", 20, p.Proposition),
	}
}

// BrandNiche is the model for the 'brand_niche' table
type BrandNiche struct {
	SectionBase
	Market  string     `json:"market" db:"market"`
	Niche   string     `json:"niche" db:"niche"`
	Persona string     `json:"persona" db:"persona"`
	Pains   StringList `json:"pains" db:"pains"`
	Desires StringList `json:"desires" db:"desires"`
}

func (n *BrandNiche) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.Text("market", 15, n.Market),
		scoring.Text("niche", 25, n.Niche),
		scoring.Text("persona", 20, n.Persona),
		scoring.AtLeast("pains", 20, n.Pains.Len(), 3),
		scoring.AtLeast("desires", 20, n.Desires.Len(), 3),
	}
}

// BrandCharter is the model for the 'brand_charter' table.
// Colors are ordered: primary, secondary, then accents.
type BrandCharter struct {
	SectionBase
	Colors      StringList `json:"colors" db:"colors"`
	HeadingFont string     `json:"headingFont" db:"heading_font"`
	BodyFont    string     `json:"bodyFont" db:"body_font"`
	LogoPath    string     `json:"logoPath" db:"logo_path"`
	Moodboard   StringList `json:"moodboard" db:"moodboard"`
	PhotoStyle  string     `json:"photoStyle" db:"photo_style"`
	ToneWords   StringList `json:"toneKeywords" db:"tone_keywords"`
	Dos         StringList `json:"dos" db:"dos"`
	Donts       StringList `json:"donts" db:"donts"`
}

func (c *BrandCharter) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.AtLeast("colors", 20, c.Colors.Len(), 2),
		scoring.Text("headingFont", 10, c.HeadingFont),
		scoring.Text("bodyFont", 10, c.BodyFont),
		scoring.Text("logoPath", 15, c.LogoPath),
		scoring.AtLeast("moodboard", 15, c.Moodboard.Len(), 3),
		scoring.Text("photoStyle", 10, c.PhotoStyle),
		scoring.AtLeast("toneKeywords", 10, c.ToneWords.Len(), 3),
		scoring.AtLeast("dos", 5, c.Dos.Len(), 1),
		scoring.AtLeast("donts", 5, c.Donts.Len(), 1),
	}
}

// WebsiteAbout is the model for the 'website_about' table
type WebsiteAbout struct {
	SectionBase
	Headline string `json:"headline" db:"headline"`
	Story    string `json:"story" db:"story"`
	Approach string `json:"approach" db:"approach"`
	Values   string `json:"values" db:"brand_values"`
	CTA      string `json:"cta" db:"cta"`
}

func (w *WebsiteAbout) CompletionFields() []scoring.Field {
	return []scoring.Field{
		scoring.Text("headline", 20, w.Headline),
		scoring.Text("story", 30, w.Story),
		scoring.Text("approach", 20, w.Approach),
		scoring.Text("values", 15, w.Values),
		scoring.Text("cta", 15, w.CTA),
	}
}

// SectionStatus is one line of the branding summary.
type SectionStatus struct {
	Section     string   `json:"section"`
	Completion  int      `json:"completion"`
	Missing     []string `json:"missing"`
	IsValidated bool     `json:"isValidated"`
	Exists      bool     `json:"exists"`
}
