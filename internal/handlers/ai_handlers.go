package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/ai"
	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

func writeJSONBlock(b *strings.Builder, title string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", title, err)
	}
	fmt.Fprintf(b, "## %s\n%s\n\n", title, data)
	return nil
}

// invokeAndRecord runs an AI function for the current workspace, with its
// brand context when the function wants it, and records the generation.
// On failure it has already answered the request.
func (h *Handlers) invokeAndRecord(c *gin.Context, name string, input json.RawMessage) (*ai.Result, bool) {
	ctx := c.Request.Context()
	workspaceID := c.GetInt64("workspaceID")

	fn, err := h.AIService.Lookup(name)
	if err != nil {
		h.aiError(c, err)
		return nil, false
	}

	var brand string
	if fn.BrandContext {
		if brand, err = h.brandContext(ctx, h.DB, workspaceID, "all"); err != nil {
			h.serverError(c, "load brand context", err)
			return nil, false
		}
	}

	result, err := h.AIService.Invoke(ctx, name, input, brand)
	if err != nil {
		h.aiError(c, err)
		return nil, false
	}

	gen := models.AIGeneration{
		WorkspaceID: workspaceID,
		UserID:      c.GetInt64("userID"),
		Function:    name,
		Input:       models.JSONDoc(input),
		Output:      models.JSONDoc(result.Data),
		TokensUsed:  result.Tokens,
		CreatedAt:   time.Now(),
	}
	if len(gen.Input) == 0 {
		gen.Input = models.JSONDoc("{}")
	}
	// The user already has the answer; a failed insert is only logged.
	if _, err := h.DB.ExecContext(ctx, `
		INSERT INTO ai_generations (workspace_id, user_id, function_name, input, output, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gen.WorkspaceID, gen.UserID, gen.Function, gen.Input, gen.Output, gen.TokensUsed, gen.CreatedAt); err != nil {
		h.Log.Warn("failed to record AI generation", zap.String("function", name), zap.Error(err))
	}
	return result, true
}

// GetAIFunctions is the handler for GET /v1/ai/functions
func (h *Handlers) GetAIFunctions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"functions": h.AIService.Functions()})
}

// RunAIFunction is the handler for POST /v1/ai/:function.
// The body is the function's JSON input, forwarded as is.
func (h *Handlers) RunAIFunction(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badInput(c, err)
		return
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput, "details": "le corps doit être un JSON valide"})
		return
	}

	name := c.Param("function")
	result, ok := h.invokeAndRecord(c, name, raw)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

type ChatInput struct {
	Message string `json:"message" binding:"required,max=4000"`
}

// brandContextTool answers the assistant's get_brand_context calls from
// the read-only pool, scoped to workspaceID.
func (h *Handlers) brandContextTool(workspaceID int64) ai.ToolFunc {
	allowed := ai.BrandContextTool.Enums["section"]
	return func(ctx context.Context, name string, args map[string]any) (any, error) {
		if name != ai.BrandContextTool.Name {
			return nil, fmt.Errorf("outil inconnu : %s", name)
		}
		section := cast.ToString(args["section"])
		if section == "" {
			section = "all"
		}
		if !slices.Contains(allowed, section) {
			return nil, fmt.Errorf("section inconnue : %s", section)
		}
		text, err := h.brandContext(ctx, h.DBReadOnly, workspaceID, section)
		if err != nil {
			return nil, err
		}
		if text == "" {
			return "Aucune donnée enregistrée pour cette section.", nil
		}
		return text, nil
	}
}

// ChatAI is the handler for POST /v1/ai/chat.
func (h *Handlers) ChatAI(c *gin.Context) {
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := c.GetInt64("userID")
	workspaceID := c.GetInt64("workspaceID")

	answer, tokens, err := h.AIService.Chat(ctx, input.Message, c.GetString("userRole"), h.brandContextTool(workspaceID))
	if err != nil {
		h.aiError(c, err)
		return
	}

	// Logged, not fatal: the user already got the answer.
	if _, err := h.DB.ExecContext(ctx, `
		INSERT INTO ai_chat_history (user_id, workspace_id, user_message, ai_response, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, workspaceID, input.Message, answer, tokens, time.Now()); err != nil {
		h.Log.Warn("failed to save chat history", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"response": answer, "tokens": tokens})
}
