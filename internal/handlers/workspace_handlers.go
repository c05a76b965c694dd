package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetMyWorkspaces is the handler for GET /v1/workspaces
func (h *Handlers) GetMyWorkspaces(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT w.id, w.name, w.kind, w.owner_id, w.created_at, m.role
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY m.created_at ASC, w.id ASC`, c.GetInt64("userID"))
	if err != nil {
		h.serverError(c, "list workspaces", err)
		return
	}
	defer rows.Close()

	workspaces := []*models.Workspace{}
	for rows.Next() {
		var ws models.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Kind, &ws.OwnerID, &ws.CreatedAt, &ws.MemberRole); err != nil {
			h.serverError(c, "scan workspace", err)
			return
		}
		workspaces = append(workspaces, &ws)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate workspaces", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

type CreateWorkspaceInput struct {
	Name string `json:"name" binding:"required,max=255"`
}

// CreateWorkspace is the handler for POST /v1/workspaces.
// It creates a team workspace owned by the caller.
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	var input CreateWorkspaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	userID := c.GetInt64("userID")
	ws := &models.Workspace{
		Name:       strings.TrimSpace(input.Name),
		Kind:       models.WorkspaceTeam,
		OwnerID:    userID,
		CreatedAt:  time.Now(),
		MemberRole: "owner",
	}

	ctx := c.Request.Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin workspace", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO workspaces (name, kind, owner_id, created_at) VALUES (?, ?, ?, ?)",
		ws.Name, ws.Kind, ws.OwnerID, ws.CreatedAt)
	if err != nil {
		h.serverError(c, "insert workspace", err)
		return
	}
	if ws.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "workspace id", err)
		return
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES (?, ?, 'owner', ?)",
		ws.ID, userID, ws.CreatedAt); err != nil {
		h.serverError(c, "insert membership", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit workspace", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": ws})
}

type AddMemberInput struct {
	Email string `json:"email" binding:"required,email"`
}

// AddWorkspaceMember is the handler for POST /v1/workspaces/:id/members.
// Only the owner may add members.
func (h *Handlers) AddWorkspaceMember(c *gin.Context) {
	workspaceID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input AddMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		callerRole string
		wsName     string
	)
	err := h.DB.QueryRowContext(ctx, `
		SELECT m.role, w.name FROM workspace_members m
		JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.workspace_id = ? AND m.user_id = ?`,
		workspaceID, c.GetInt64("userID")).Scan(&callerRole, &wsName)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Espace introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "load caller membership", err)
		return
	}
	if callerRole != "owner" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seule la propriétaire de l'espace peut ajouter des membres"})
		return
	}

	var memberID int64
	err = h.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(input.Email))).Scan(&memberID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun compte avec cet email"})
		return
	}
	if err != nil {
		h.serverError(c, "load member", err)
		return
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin add member", err)
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES (?, ?, 'member', ?)",
		workspaceID, memberID, time.Now())
	if isDuplicate(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette personne fait déjà partie de l'espace"})
		return
	}
	if err != nil {
		h.serverError(c, "insert member", err)
		return
	}
	if err := AddNotification(ctx, tx, memberID, "Tu as été ajoutée à l'espace « "+wsName+" »", "/workspaces"); err != nil {
		h.serverError(c, "notify member", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit add member", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Membre ajoutée", "userId": memberID})
}
