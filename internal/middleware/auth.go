package middleware

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/01moynul/brandstudio-golang/internal/auth"
	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// WorkspaceHeader selects the active workspace of a request.
const WorkspaceHeader = "X-Workspace-ID"

// AuthMiddleware checks the Bearer token and loads the caller's role.
// While settings.maintenance_mode is "true" only admins get through.
func AuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Token ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Connexion requise"})
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format du jeton invalide (Bearer attendu)"})
			return
		}

		userID, err := auth.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session invalide ou expirée"})
			return
		}

		// 2. --- User ---
		var role, status string
		err = db.QueryRowContext(c.Request.Context(),
			"SELECT role, status FROM users WHERE id = ?", userID).Scan(&role, &status)
		if errors.Is(err, sql.ErrNoRows) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session invalide ou expirée"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur, réessaie plus tard"})
			return
		}
		if status != "active" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Ce compte est désactivé"})
			return
		}

		// 3. --- Maintenance mode ---
		// A missing setting means the mode is off. The read error is attached
		// to the context so the request logger records it.
		var maintenance string
		err = db.QueryRowContext(c.Request.Context(),
			"SELECT setting_value FROM settings WHERE setting_key = 'maintenance_mode'").Scan(&maintenance)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(fmt.Errorf("read maintenance mode: %w", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur, réessaie plus tard"})
			return
		}
		if maintenance == "true" && role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "L'application est en maintenance. Réessaie dans quelques instants.",
			})
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// WorkspaceMiddleware resolves the workspace a request acts on: the one
// named by the X-Workspace-ID header, or the caller's oldest membership.
// Must run after AuthMiddleware.
func WorkspaceMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("userID")
		ctx := c.Request.Context()

		var (
			workspaceID int64
			memberRole  string
			err         error
		)
		if raw := c.GetHeader(WorkspaceHeader); raw != "" {
			workspaceID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || workspaceID <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Identifiant d'espace invalide"})
				return
			}
			err = db.QueryRowContext(ctx,
				"SELECT role FROM workspace_members WHERE workspace_id = ? AND user_id = ?",
				workspaceID, userID).Scan(&memberRole)
		} else {
			err = db.QueryRowContext(ctx, `
				SELECT workspace_id, role FROM workspace_members
				WHERE user_id = ?
				ORDER BY created_at ASC, workspace_id ASC
				LIMIT 1`, userID).Scan(&workspaceID, &memberRole)
		}
		if errors.Is(err, sql.ErrNoRows) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Tu n'as pas accès à cet espace"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur, réessaie plus tard"})
			return
		}

		c.Set("workspaceID", workspaceID)
		c.Set("workspaceRole", memberRole)
		c.Next()
	}
}

// AdminMiddleware restricts a group to the coach side. Must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès réservé à la coach"})
			return
		}
		c.Next()
	}
}
