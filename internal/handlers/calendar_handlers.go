package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/stats"
	"github.com/gin-gonic/gin"
)

const postColumns = `id, workspace_id, DATE_FORMAT(post_date, '%Y-%m-%d'), canal, format, theme, title,
	content, objective, status, created_at, updated_at`

func scanPost(r rowScanner) (*models.CalendarPost, error) {
	var p models.CalendarPost
	err := r.Scan(&p.ID, &p.WorkspaceID, &p.PostDate, &p.Canal, &p.Format, &p.Theme, &p.Title,
		&p.Content, &p.Objective, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Calendar posts ---

// GetCalendarPosts is the handler for GET /v1/calendar?month=YYYY-MM[&canal=].
// The month defaults to the current one.
func (h *Handlers) GetCalendarPosts(c *gin.Context) {
	month := c.DefaultQuery("month", stats.MonthKey(time.Now()))
	start, err := stats.ParseMonthKey(month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mois invalide (format AAAA-MM)"})
		return
	}
	end := start.AddDate(0, 1, 0)

	query := "SELECT " + postColumns + " FROM calendar_posts WHERE workspace_id = ? AND post_date >= ? AND post_date < ?"
	args := []any{c.GetInt64("workspaceID"), start.Format(time.DateOnly), end.Format(time.DateOnly)}
	if canal := c.Query("canal"); canal != "" {
		if !models.ValidCanals[canal] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Canal inconnu"})
			return
		}
		query += " AND canal = ?"
		args = append(args, canal)
	}
	query += " ORDER BY post_date ASC, id ASC"

	rows, err := h.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		h.serverError(c, "list calendar posts", err)
		return
	}
	defer rows.Close()

	posts := []*models.CalendarPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			h.serverError(c, "scan calendar post", err)
			return
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate calendar posts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"month": month,
		"label": stats.MonthLabel(month),
		"posts": posts,
	})
}

type PostInput struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	Canal     string `json:"canal" binding:"required,oneof=instagram linkedin"`
	Format    string `json:"format" binding:"required,oneof=post carousel reel story live article"`
	Theme     string `json:"theme" binding:"max=255"`
	Title     string `json:"title" binding:"required,max=255"`
	Content   string `json:"content"`
	Objective string `json:"objective" binding:"max=255"`
	Status    string `json:"status" binding:"omitempty,oneof=idea draft ready published"`
}

func (in *PostInput) apply(p *models.CalendarPost) {
	p.PostDate = in.Date
	p.Canal = in.Canal
	p.Format = in.Format
	p.Theme = in.Theme
	p.Title = in.Title
	p.Content = in.Content
	p.Objective = in.Objective
	p.Status = in.Status
	if p.Status == "" {
		p.Status = "idea"
	}
}

// CreateCalendarPost is the handler for POST /v1/calendar
func (h *Handlers) CreateCalendarPost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	p := &models.CalendarPost{WorkspaceID: c.GetInt64("workspaceID")}
	input.apply(p)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO calendar_posts (workspace_id, post_date, canal, format, theme, title, content,
			objective, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.WorkspaceID, p.PostDate, p.Canal, p.Format, p.Theme, p.Title, p.Content,
		p.Objective, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		h.serverError(c, "insert calendar post", err)
		return
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "calendar post id", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": p})
}

// UpdateCalendarPost is the handler for PUT /v1/calendar/:id
func (h *Handlers) UpdateCalendarPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	p := &models.CalendarPost{ID: id, WorkspaceID: c.GetInt64("workspaceID")}
	input.apply(p)
	p.UpdatedAt = time.Now()

	res, err := h.DB.ExecContext(c.Request.Context(), `
		UPDATE calendar_posts SET post_date = ?, canal = ?, format = ?, theme = ?, title = ?,
			content = ?, objective = ?, status = ?, updated_at = ?
		WHERE id = ? AND workspace_id = ?`,
		p.PostDate, p.Canal, p.Format, p.Theme, p.Title, p.Content, p.Objective, p.Status,
		p.UpdatedAt, p.ID, p.WorkspaceID)
	if err != nil {
		h.serverError(c, "update calendar post", err)
		return
	}
	if h.notFoundIfNone(c, res, "Publication introuvable") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": p})
}

type PostStatusInput struct {
	Status string `json:"status" binding:"required,oneof=idea draft ready published"`
}

// UpdateCalendarPostStatus is the handler for PATCH /v1/calendar/:id/status
func (h *Handlers) UpdateCalendarPostStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input PostStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.DB.ExecContext(c.Request.Context(),
		"UPDATE calendar_posts SET status = ?, updated_at = ? WHERE id = ? AND workspace_id = ?",
		input.Status, time.Now(), id, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "update post status", err)
		return
	}
	if h.notFoundIfNone(c, res, "Publication introuvable") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": input.Status})
}

// DeleteCalendarPost is the handler for DELETE /v1/calendar/:id
func (h *Handlers) DeleteCalendarPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM calendar_posts WHERE id = ? AND workspace_id = ?", id, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "delete calendar post", err)
		return
	}
	if h.notFoundIfNone(c, res, "Publication introuvable") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Publication supprimée"})
}

// --- Saved ideas ---

// GetSavedIdeas is the handler for GET /v1/ideas
func (h *Handlers) GetSavedIdeas(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT id, workspace_id, title, format, canal, objective, notes, created_at
		FROM saved_ideas WHERE workspace_id = ?
		ORDER BY created_at DESC, id DESC`, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "list ideas", err)
		return
	}
	defer rows.Close()

	ideas := []*models.SavedIdea{}
	for rows.Next() {
		var i models.SavedIdea
		if err := rows.Scan(&i.ID, &i.WorkspaceID, &i.Title, &i.Format, &i.Canal, &i.Objective, &i.Notes, &i.CreatedAt); err != nil {
			h.serverError(c, "scan idea", err)
			return
		}
		ideas = append(ideas, &i)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate ideas", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

type IdeaInput struct {
	Title     string `json:"title" binding:"required,max=255"`
	Format    string `json:"format" binding:"required,oneof=post carousel reel story live article"`
	Canal     string `json:"canal" binding:"required,oneof=instagram linkedin"`
	Objective string `json:"objective" binding:"max=255"`
	Notes     string `json:"notes"`
}

// CreateSavedIdea is the handler for POST /v1/ideas
func (h *Handlers) CreateSavedIdea(c *gin.Context) {
	var input IdeaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	idea := &models.SavedIdea{
		WorkspaceID: c.GetInt64("workspaceID"),
		Title:       input.Title,
		Format:      input.Format,
		Canal:       input.Canal,
		Objective:   input.Objective,
		Notes:       input.Notes,
		CreatedAt:   time.Now(),
	}
	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO saved_ideas (workspace_id, title, format, canal, objective, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		idea.WorkspaceID, idea.Title, idea.Format, idea.Canal, idea.Objective, idea.Notes, idea.CreatedAt)
	if err != nil {
		h.serverError(c, "insert idea", err)
		return
	}
	if idea.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "idea id", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"idea": idea})
}

// DeleteSavedIdea is the handler for DELETE /v1/ideas/:id
func (h *Handlers) DeleteSavedIdea(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM saved_ideas WHERE id = ? AND workspace_id = ?", id, c.GetInt64("workspaceID"))
	if err != nil {
		h.serverError(c, "delete idea", err)
		return
	}
	if h.notFoundIfNone(c, res, "Idée introuvable") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Idée supprimée"})
}

type ScheduleIdeaInput struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// ScheduleSavedIdea is the handler for POST /v1/ideas/:id/schedule.
// The idea becomes a draft post on the given date and is removed, in one
// transaction.
func (h *Handlers) ScheduleSavedIdea(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ScheduleIdeaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	workspaceID := c.GetInt64("workspaceID")

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin schedule idea", err)
		return
	}
	defer tx.Rollback()

	var idea models.SavedIdea
	err = tx.QueryRowContext(ctx, `
		SELECT id, title, format, canal, objective, notes
		FROM saved_ideas WHERE id = ? AND workspace_id = ? FOR UPDATE`, id, workspaceID).Scan(
		&idea.ID, &idea.Title, &idea.Format, &idea.Canal, &idea.Objective, &idea.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idée introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "load idea", err)
		return
	}

	now := time.Now()
	post := &models.CalendarPost{
		WorkspaceID: workspaceID,
		PostDate:    input.Date,
		Canal:       idea.Canal,
		Format:      idea.Format,
		Title:       idea.Title,
		Content:     idea.Notes,
		Objective:   idea.Objective,
		Status:      "draft",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO calendar_posts (workspace_id, post_date, canal, format, theme, title, content,
			objective, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.WorkspaceID, post.PostDate, post.Canal, post.Format, post.Theme, post.Title, post.Content,
		post.Objective, post.Status, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		h.serverError(c, "insert scheduled post", err)
		return
	}
	if post.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "scheduled post id", err)
		return
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_ideas WHERE id = ?", idea.ID); err != nil {
		h.serverError(c, "delete scheduled idea", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit schedule idea", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}
