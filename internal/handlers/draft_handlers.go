package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// maxDraftBytes bounds an auto-saved form payload.
const maxDraftBytes = 256 << 10

var draftKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._:-]{0,99}$`)

func draftKey(c *gin.Context) (string, bool) {
	key := c.Param("key")
	if !draftKeyRe.MatchString(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Clé de brouillon invalide"})
		return "", false
	}
	return key, true
}

// GetDraft is the handler for GET /v1/drafts/:key
func (h *Handlers) GetDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}

	d := models.Draft{UserID: c.GetInt64("userID"), Key: key}
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT payload, updated_at FROM drafts WHERE user_id = ? AND draft_key = ?",
		d.UserID, d.Key).Scan(&d.Payload, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun brouillon"})
		return
	}
	if err != nil {
		h.serverError(c, "load draft", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d})
}

// SaveDraft is the handler for PUT /v1/drafts/:key.
// The client calls it debounced while a form is edited.
func (h *Handlers) SaveDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDraftBytes)
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Brouillon trop volumineux"})
		return
	}
	if !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput, "details": "le brouillon doit être un JSON valide"})
		return
	}

	d := models.Draft{
		UserID:    c.GetInt64("userID"),
		Key:       key,
		Payload:   models.JSONDoc(raw),
		UpdatedAt: time.Now(),
	}
	if _, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO drafts (user_id, draft_key, payload, updated_at) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`,
		d.UserID, d.Key, d.Payload, d.UpdatedAt); err != nil {
		h.serverError(c, "save draft", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": d.Key, "updatedAt": d.UpdatedAt})
}

// DeleteDraft is the handler for DELETE /v1/drafts/:key.
// Deleting a missing draft is not an error.
func (h *Handlers) DeleteDraft(c *gin.Context) {
	key, ok := draftKey(c)
	if !ok {
		return
	}
	if _, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM drafts WHERE user_id = ? AND draft_key = ?", c.GetInt64("userID"), key); err != nil {
		h.serverError(c, "delete draft", err)
		return
	}
	c.Status(http.StatusNoContent)
}
