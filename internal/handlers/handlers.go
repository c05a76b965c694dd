package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/brandstudio-golang/internal/ai"
	"github.com/01moynul/brandstudio-golang/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB         *sql.DB // Primary Read/Write connection
	DBReadOnly *sql.DB // Read-Only connection, used by the assistant's tools
	AIService  *ai.AIService
	Storage    *storage.Store
	Log        *zap.Logger
}

// French copy shared by several handlers.
const (
	msgServerError   = "Erreur serveur, réessaie plus tard"
	msgInvalidInput  = "Données invalides"
	msgInvalidID     = "Identifiant invalide"
	msgAIUnavailable = "Le service IA est indisponible, réessaie dans quelques instants."
	msgAIFormat      = "Format de réponse inattendu"
)

// serverError logs err and answers 500 with the generic message.
func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.Log.Error(msg,
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.Int64("user_id", c.GetInt64("userID")),
		zap.Int64("workspace_id", c.GetInt64("workspaceID")),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerError})
}

// aiError maps an AI service error to its HTTP answer.
func (h *Handlers) aiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrUnknownFunction):
		c.JSON(http.StatusNotFound, gin.H{"error": "Fonction IA inconnue"})
	case errors.Is(err, ai.ErrUnexpectedFormat):
		h.Log.Warn("AI answer not parsable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgAIFormat})
	default:
		h.Log.Error("AI call failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgAIUnavailable})
	}
}

func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput, "details": err.Error()})
}

// paramID reads a positive numeric route parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
		return 0, false
	}
	return id, true
}

// notFoundIfNone answers 404 when an UPDATE/DELETE touched no row.
func (h *Handlers) notFoundIfNone(c *gin.Context, res sql.Result, msg string) bool {
	n, err := res.RowsAffected()
	if err != nil {
		h.serverError(c, "rows affected", err)
		return true
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return true
	}
	return false
}
