package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// decodeAudit reads the audit contract out of an AI answer.
func (h *Handlers) decodeAudit(c *gin.Context, data json.RawMessage) (*models.AuditResult, bool) {
	var r models.AuditResult
	if err := json.Unmarshal(data, &r); err != nil {
		h.Log.Warn("audit answer does not match contract", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgAIFormat})
		return nil, false
	}
	return &r, true
}

// --- Branding audit ---

type BrandingAuditInput struct {
	WebsiteURL      string `json:"websiteUrl" binding:"omitempty,url,max=500"`
	InstagramHandle string `json:"instagramHandle" binding:"max=100"`
	LinkedinURL     string `json:"linkedinUrl" binding:"omitempty,url,max=500"`
	Notes           string `json:"notes" binding:"max=4000"`
}

// RunBrandingAudit is the handler for POST /v1/audits/branding.
// The audit-branding answer is stored with one row per recommendation.
func (h *Handlers) RunBrandingAudit(c *gin.Context) {
	var input BrandingAuditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	input.InstagramHandle = strings.TrimPrefix(strings.TrimSpace(input.InstagramHandle), "@")
	if input.WebsiteURL == "" && input.InstagramHandle == "" && input.LinkedinURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Indique au moins ton site, ton Instagram ou ton LinkedIn"})
		return
	}

	prompt, err := json.Marshal(gin.H{
		"site":      input.WebsiteURL,
		"instagram": input.InstagramHandle,
		"linkedin":  input.LinkedinURL,
		"notes":     input.Notes,
	})
	if err != nil {
		h.serverError(c, "encode audit input", err)
		return
	}
	result, ok := h.invokeAndRecord(c, "audit-branding", prompt)
	if !ok {
		return
	}
	parsed, ok := h.decodeAudit(c, result.Data)
	if !ok {
		return
	}

	audit := &models.BrandingAudit{
		WorkspaceID:     c.GetInt64("workspaceID"),
		WebsiteURL:      input.WebsiteURL,
		InstagramHandle: input.InstagramHandle,
		LinkedinURL:     input.LinkedinURL,
		ScoreGlobal:     parsed.GlobalScore(),
		Result:          models.JSONDoc(result.Data),
		CreatedAt:       time.Now(),
		Recommendations: []models.AuditRecommendation{},
	}

	ctx := c.Request.Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin audit", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO branding_audits (workspace_id, website_url, instagram_handle, linkedin_url, score_global, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		audit.WorkspaceID, audit.WebsiteURL, audit.InstagramHandle, audit.LinkedinURL,
		audit.ScoreGlobal, audit.Result, audit.CreatedAt)
	if err != nil {
		h.serverError(c, "insert audit", err)
		return
	}
	if audit.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "audit id", err)
		return
	}

	for i, item := range parsed.Recommendations {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		rec := models.AuditRecommendation{
			AuditID:  audit.ID,
			Title:    item.Title,
			Detail:   item.Detail,
			Priority: item.Priority,
			Module:   item.Module,
			Position: i + 1,
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO audit_recommendations (audit_id, title, detail, priority, module, position, is_completed)
			VALUES (?, ?, ?, ?, ?, ?, 0)`,
			rec.AuditID, rec.Title, rec.Detail, rec.Priority, rec.Module, rec.Position)
		if err != nil {
			h.serverError(c, "insert recommendation", err)
			return
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			h.serverError(c, "recommendation id", err)
			return
		}
		audit.Recommendations = append(audit.Recommendations, rec)
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit audit", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"audit": audit})
}

// GetBrandingAudits is the handler for GET /v1/audits/branding (newest first).
// The result blobs are left out.
func (h *Handlers) GetBrandingAudits(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT id, workspace_id, website_url, instagram_handle, linkedin_url, score_global, created_at
		FROM branding_audits WHERE workspace_id = ?
		ORDER BY created_at DESC, id DESC`, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "list audits", err)
		return
	}
	defer rows.Close()

	audits := []*models.BrandingAudit{}
	for rows.Next() {
		var a models.BrandingAudit
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.WebsiteURL, &a.InstagramHandle, &a.LinkedinURL,
			&a.ScoreGlobal, &a.CreatedAt); err != nil {
			h.serverError(c, "scan audit", err)
			return
		}
		audits = append(audits, &a)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate audits", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": audits})
}

// GetBrandingAudit is the handler for GET /v1/audits/branding/:id
func (h *Handlers) GetBrandingAudit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var a models.BrandingAudit
	err := h.DB.QueryRowContext(ctx, `
		SELECT id, workspace_id, website_url, instagram_handle, linkedin_url, score_global, result, created_at
		FROM branding_audits WHERE id = ? AND workspace_id = ?`, id, c.GetInt64("workspaceID")).Scan(
		&a.ID, &a.WorkspaceID, &a.WebsiteURL, &a.InstagramHandle, &a.LinkedinURL,
		&a.ScoreGlobal, &a.Result, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "load audit", err)
		return
	}

	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, audit_id, title, detail, priority, module, position, is_completed
		FROM audit_recommendations WHERE audit_id = ?
		ORDER BY position ASC`, a.ID)
	if err != nil {
		h.serverError(c, "list recommendations", err)
		return
	}
	defer rows.Close()

	a.Recommendations = []models.AuditRecommendation{}
	for rows.Next() {
		var r models.AuditRecommendation
		if err := rows.Scan(&r.ID, &r.AuditID, &r.Title, &r.Detail, &r.Priority, &r.Module, &r.Position, &r.IsCompleted); err != nil {
			h.serverError(c, "scan recommendation", err)
			return
		}
		a.Recommendations = append(a.Recommendations, r)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate recommendations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit": a})
}

type RecommendationInput struct {
	IsCompleted bool `json:"isCompleted"`
}

// UpdateRecommendation is the handler for PATCH /v1/audits/recommendations/:id.
// The join keeps the update inside the caller's workspace.
func (h *Handlers) UpdateRecommendation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input RecommendationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.DB.ExecContext(c.Request.Context(), `
		UPDATE audit_recommendations r
		JOIN branding_audits a ON a.id = r.audit_id
		SET r.is_completed = ?
		WHERE r.id = ? AND a.workspace_id = ?`,
		input.IsCompleted, id, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "update recommendation", err)
		return
	}
	if h.notFoundIfNone(c, res, "Recommandation introuvable") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "isCompleted": input.IsCompleted})
}

// --- Website audit ---

type WebsiteAuditInput struct {
	URL string `json:"url" binding:"required,url,max=500"`
}

// RunWebsiteAudit is the handler for POST /v1/audits/website.
// There is one website audit per workspace; a new run replaces it.
func (h *Handlers) RunWebsiteAudit(c *gin.Context) {
	var input WebsiteAuditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	prompt, err := json.Marshal(gin.H{"url": input.URL})
	if err != nil {
		h.serverError(c, "encode website audit input", err)
		return
	}
	result, ok := h.invokeAndRecord(c, "audit-site-auto", prompt)
	if !ok {
		return
	}
	parsed, ok := h.decodeAudit(c, result.Data)
	if !ok {
		return
	}

	audit := &models.WebsiteAudit{
		WorkspaceID: c.GetInt64("workspaceID"),
		URL:         input.URL,
		ScoreGlobal: parsed.GlobalScore(),
		Result:      models.JSONDoc(result.Data),
		UpdatedAt:   time.Now(),
	}
	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO website_audit (workspace_id, url, score_global, result, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), url = VALUES(url),
			score_global = VALUES(score_global), result = VALUES(result), updated_at = VALUES(updated_at)`,
		audit.WorkspaceID, audit.URL, audit.ScoreGlobal, audit.Result, audit.UpdatedAt)
	if err != nil {
		h.serverError(c, "save website audit", err)
		return
	}
	if audit.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "website audit id", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit": audit})
}

// GetWebsiteAudit is the handler for GET /v1/audits/website.
// audit is null until the first run.
func (h *Handlers) GetWebsiteAudit(c *gin.Context) {
	var a models.WebsiteAudit
	err := h.DB.QueryRowContext(c.Request.Context(), `
		SELECT id, workspace_id, url, score_global, result, updated_at
		FROM website_audit WHERE workspace_id = ?`, c.GetInt64("workspaceID")).Scan(
		&a.ID, &a.WorkspaceID, &a.URL, &a.ScoreGlobal, &a.Result, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusOK, gin.H{"audit": nil})
		return
	}
	if err != nil {
		h.serverError(c, "load website audit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": a})
}
