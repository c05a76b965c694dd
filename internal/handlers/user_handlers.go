package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/auth"
	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number of a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// --- Registration ---

type RegisterInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /v1/register.
// The user, a solo workspace and the owner membership are created in
// one transaction.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, "hash password", err)
		return
	}

	now := time.Now()
	user := &models.User{
		Role:         models.RoleMember,
		Status:       "active",
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: password.Hash,
		FullName:     strings.TrimSpace(input.FullName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ws := &models.Workspace{
		Name:      user.FullName,
		Kind:      models.WorkspaceSolo,
		CreatedAt: now,
	}

	ctx := c.Request.Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin register", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (role, status, email, password_hash, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Role, user.Status, user.Email, user.PasswordHash, user.FullName, user.CreatedAt, user.UpdatedAt)
	if isDuplicate(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte existe déjà avec cet email"})
		return
	}
	if err != nil {
		h.serverError(c, "insert user", err)
		return
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "user id", err)
		return
	}

	ws.OwnerID = user.ID
	res, err = tx.ExecContext(ctx,
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
		ws.ID, user.ID, now); err != nil {
		h.serverError(c, "insert membership", err)
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit register", err)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		h.serverError(c, "generate token", err)
		return
	}

	ws.MemberRole = "owner"
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Bienvenue ! Ton compte est créé.",
		"token":     token,
		"user":      user,
		"workspace": ws,
	})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	var user models.User
	err := h.DB.QueryRowContext(c.Request.Context(), `
		SELECT id, role, status, email, password_hash, full_name, created_at, updated_at
		FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(input.Email))).Scan(
		&user.ID, &user.Role, &user.Status, &user.Email,
		&user.PasswordHash, &user.FullName, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}
	if err != nil {
		h.serverError(c, "load user", err)
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	ok, err := password.Matches(input.Password)
	if err != nil {
		h.serverError(c, "compare password", err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}
	if user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce compte est désactivé"})
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		h.serverError(c, "generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetMe is the handler for GET /v1/me
func (h *Handlers) GetMe(c *gin.Context) {
	var user models.User
	err := h.DB.QueryRowContext(c.Request.Context(), `
		SELECT id, role, status, email, full_name, created_at, updated_at
		FROM users WHERE id = ?`, c.GetInt64("userID")).Scan(
		&user.ID, &user.Role, &user.Status, &user.Email,
		&user.FullName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		h.serverError(c, "load me", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
