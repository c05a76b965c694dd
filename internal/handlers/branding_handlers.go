package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/scoring"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// brandSection maps one singleton branding table.
// bind returns an empty row and pointers to its content columns, in the
// order of columns.
type brandSection struct {
	key     string
	table   string
	columns []string
	bind    func() (models.Section, []any)
}

var brandSections = []brandSection{
	{
		key:     "profile",
		table:   "brand_profile",
		columns: []string{"activity", "target", "mission", "brand_values", "tone_keywords"},
		bind: func() (models.Section, []any) {
			p := &models.BrandProfile{}
			return p, []any{&p.Activity, &p.Target, &p.Mission, &p.Values, &p.ToneWords}
		},
	},
	{
		key:     "storytelling",
		table:   "storytelling",
		columns: []string{"origin", "turning_point", "struggles", "victory", "pitch"},
		bind: func() (models.Section, []any) {
			s := &models.Storytelling{}
			return s, []any{&s.Origin, &s.TurningPoint, &s.Struggles, &s.Victory, &s.Pitch}
		},
	},
	{
		key:     "proposition",
		table:   "brand_proposition",
		columns: []string{"for_whom", "problem", "solution", "difference", "proposition"},
		bind: func() (models.Section, []any) {
			p := &models.BrandProposition{}
			return p, []any{&p.ForWhom, &p.Problem, &p.Solution, &p.Difference, &p.Proposition}
		},
	},
	{
		key:     "niche",
		table:   "brand_niche",
		columns: []string{"market", "niche", "persona", "pains", "desires"},
		bind: func() (models.Section, []any) {
			n := &models.BrandNiche{}
			return n, []any{&n.Market, &n.Niche, &n.Persona, &n.Pains, &n.Desires}
		},
	},
	{
		key:   "charter",
		table: "brand_charter",
		columns: []string{"colors", "heading_font", "body_font", "logo_path", "moodboard",
			"photo_style", "tone_keywords", "dos", "donts"},
		bind: func() (models.Section, []any) {
			ch := &models.BrandCharter{}
			return ch, []any{&ch.Colors, &ch.HeadingFont, &ch.BodyFont, &ch.LogoPath, &ch.Moodboard,
				&ch.PhotoStyle, &ch.ToneWords, &ch.Dos, &ch.Donts}
		},
	},
	{
		key:     "about",
		table:   "website_about",
		columns: []string{"headline", "story", "approach", "brand_values", "cta"},
		bind: func() (models.Section, []any) {
			w := &models.WebsiteAbout{}
			return w, []any{&w.Headline, &w.Story, &w.Approach, &w.Values, &w.CTA}
		},
	},
}

func findSection(key string) (brandSection, bool) {
	for _, s := range brandSections {
		if s.key == key {
			return s, true
		}
	}
	return brandSection{}, false
}

func (s brandSection) selectQuery() string {
	return fmt.Sprintf("SELECT id, workspace_id, is_validated, updated_at, %s FROM %s WHERE workspace_id = ?",
		strings.Join(s.columns, ", "), s.table)
}

// upsertQuery relies on the UNIQUE(workspace_id) key. id = LAST_INSERT_ID(id)
// makes LastInsertId return the existing row's id on update.
func (s brandSection) upsertQuery() string {
	cols := append([]string{"workspace_id", "is_validated", "updated_at"}, s.columns...)
	updates := []string{"id = LAST_INSERT_ID(id)"}
	for _, col := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.table,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(updates, ", "))
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// load reads the section row of a workspace. exists is false when the
// workspace never saved it; row is then empty.
func (s brandSection) load(ctx context.Context, q querier, workspaceID int64) (row models.Section, exists bool, err error) {
	row, content := s.bind()
	base := row.Base()
	dest := append([]any{&base.ID, &base.WorkspaceID, &base.IsValidated, &base.UpdatedAt}, content...)

	err = q.QueryRowContext(ctx, s.selectQuery(), workspaceID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		row, _ = s.bind()
		row.Base().WorkspaceID = workspaceID
		return row, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.table, err)
	}
	return row, true, nil
}

func sectionResponse(row models.Section, exists bool) gin.H {
	fields := row.CompletionFields()
	return gin.H{
		"section":    row,
		"exists":     exists,
		"completion": scoring.Completion(fields),
		"missing":    scoring.Missing(fields),
	}
}

// GetBrandSection is the handler for GET /v1/branding/:section.
// A section that was never saved comes back empty, not 404.
func (h *Handlers) GetBrandSection(c *gin.Context) {
	s, ok := findSection(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section inconnue"})
		return
	}

	row, exists, err := s.load(c.Request.Context(), h.DB, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "load brand section", err)
		return
	}
	c.JSON(http.StatusOK, sectionResponse(row, exists))
}

// SaveBrandSection is the handler for PUT /v1/branding/:section (upsert).
func (h *Handlers) SaveBrandSection(c *gin.Context) {
	s, ok := findSection(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section inconnue"})
		return
	}

	row, content := s.bind()
	if err := c.ShouldBindJSON(row); err != nil {
		badInput(c, err)
		return
	}
	base := row.Base()
	base.WorkspaceID = c.GetInt64("workspaceID")
	base.UpdatedAt = time.Now()

	args := append([]any{base.WorkspaceID, base.IsValidated, base.UpdatedAt}, content...)
	res, err := h.DB.ExecContext(c.Request.Context(), s.upsertQuery(), args...)
	if err != nil {
		h.serverError(c, "save brand section", err)
		return
	}
	if base.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "brand section id", err)
		return
	}

	c.JSON(http.StatusOK, sectionResponse(row, true))
}

// GetBrandingSummary is the handler for GET /v1/branding/summary.
// The sections are read in parallel.
func (h *Handlers) GetBrandingSummary(c *gin.Context) {
	workspaceID := c.GetInt64("workspaceID")
	statuses := make([]models.SectionStatus, len(brandSections))

	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, s := range brandSections {
		g.Go(func() error {
			row, exists, err := s.load(ctx, h.DB, workspaceID)
			if err != nil {
				return err
			}
			fields := row.CompletionFields()
			statuses[i] = models.SectionStatus{
				Section:     s.key,
				Completion:  scoring.Completion(fields),
				Missing:     scoring.Missing(fields),
				IsValidated: row.Base().IsValidated,
				Exists:      exists,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.serverError(c, "branding summary", err)
		return
	}

	total := 0
	for _, st := range statuses {
		total += st.Completion
	}
	c.JSON(http.StatusOK, gin.H{
		"sections": statuses,
		"overall":  (total + len(statuses)/2) / len(statuses),
	})
}

// brandContext renders the saved branding of a workspace for the AI
// functions: one "## section" block per non-empty section, as JSON.
// section is a key of brandSections, "offers", or "all".
func (h *Handlers) brandContext(ctx context.Context, q *sql.DB, workspaceID int64, section string) (string, error) {
	var b strings.Builder
	for _, s := range brandSections {
		if section != "all" && section != s.key {
			continue
		}
		row, exists, err := s.load(ctx, q, workspaceID)
		if err != nil {
			return "", err
		}
		if !exists {
			continue
		}
		if err := writeJSONBlock(&b, s.key, row); err != nil {
			return "", err
		}
	}

	if section == "all" || section == "offers" {
		offers, err := listOffers(ctx, q, workspaceID)
		if err != nil {
			return "", err
		}
		if len(offers) > 0 {
			if err := writeJSONBlock(&b, "offers", offers); err != nil {
				return "", err
			}
		}
	}
	return b.String(), nil
}
