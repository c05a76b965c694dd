package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/editorial"
	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

type EditorialLineInput struct {
	MainObjective    string         `json:"mainObjective" binding:"max=255"`
	Pillars          []string       `json:"pillars"`
	Frequency        map[string]int `json:"frequency" binding:"dive,min=0,max=100"`
	AvailableMinutes int            `json:"availableMinutes" binding:"min=0,max=10080"`
}

type EstimateInput struct {
	Frequency        map[string]int `json:"frequency" binding:"dive,min=0,max=100"`
	AvailableMinutes int            `json:"availableMinutes" binding:"min=0,max=10080"`
}

// GetEditorialLine is the handler for GET /v1/instagram/editorial-line.
// A line never saved comes back empty with its estimate.
func (h *Handlers) GetEditorialLine(c *gin.Context) {
	workspaceID := c.GetInt64("workspaceID")
	line := models.EditorialLine{WorkspaceID: workspaceID}

	err := h.DB.QueryRowContext(c.Request.Context(), `
		SELECT id, main_objective, pillars, frequency, available_minutes, updated_at
		FROM instagram_editorial_line WHERE workspace_id = ?`, workspaceID).Scan(
		&line.ID, &line.MainObjective, &line.Pillars, &line.Frequency, &line.AvailableMinutes, &line.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.serverError(c, "load editorial line", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":     line,
		"exists":   err == nil,
		"estimate": editorial.Compute(line.Frequency, line.AvailableMinutes),
	})
}

// SaveEditorialLine is the handler for PUT /v1/instagram/editorial-line (upsert).
func (h *Handlers) SaveEditorialLine(c *gin.Context) {
	var input EditorialLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	for format, n := range input.Frequency {
		if !models.ValidPostFormats[format] || n < 0 || n > editorial.MaxPerWeek {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput, "details": "fréquence invalide pour " + format})
			return
		}
	}

	line := models.EditorialLine{
		WorkspaceID:      c.GetInt64("workspaceID"),
		MainObjective:    input.MainObjective,
		Pillars:          models.StringList(input.Pillars),
		Frequency:        models.IntMap(input.Frequency),
		AvailableMinutes: input.AvailableMinutes,
		UpdatedAt:        time.Now(),
	}
	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO instagram_editorial_line (workspace_id, main_objective, pillars, frequency, available_minutes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), main_objective = VALUES(main_objective),
			pillars = VALUES(pillars), frequency = VALUES(frequency),
			available_minutes = VALUES(available_minutes), updated_at = VALUES(updated_at)`,
		line.WorkspaceID, line.MainObjective, line.Pillars, line.Frequency, line.AvailableMinutes, line.UpdatedAt)
	if err != nil {
		h.serverError(c, "save editorial line", err)
		return
	}
	if line.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "editorial line id", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":     line,
		"exists":   true,
		"estimate": editorial.Compute(line.Frequency, line.AvailableMinutes),
	})
}

// EstimateEditorialLine is the handler for POST /v1/instagram/editorial-line/estimate.
// Nothing is saved.
func (h *Handlers) EstimateEditorialLine(c *gin.Context) {
	var input EstimateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	c.JSON(http.StatusOK, editorial.Compute(input.Frequency, input.AvailableMinutes))
}
