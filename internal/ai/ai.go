package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrModelUnavailable wraps failures of the model backend.
var ErrModelUnavailable = errors.New("AI model unavailable")

// GenerateRequest is a single-shot JSON generation.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	JSON        bool
}

// Tool is a function the model may call during a conversation.
// Every parameter is a string.
type Tool struct {
	Name        string
	Description string
	Params      map[string]string
	Enums       map[string][]string
	Required    []string
}

// ToolFunc answers a tool call.
type ToolFunc func(ctx context.Context, name string, args map[string]any) (any, error)

// Model is the text model behind the AI functions.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, int, error)
	Converse(ctx context.Context, system, message string, tools []Tool, call ToolFunc) (string, int, error)
}

// AIService runs the named AI functions and the assistant chat.
type AIService struct {
	model     Model
	catalogue *Catalogue
	log       *zap.Logger
}

// Result is the parsed answer of an AI function.
type Result struct {
	Function string          `json:"function"`
	Data     json.RawMessage `json:"data"`
	Raw      string          `json:"-"`
	Tokens   int             `json:"tokens"`
}

// NewAIService wires a model and a function catalogue.
func NewAIService(model Model, catalogue *Catalogue, log *zap.Logger) *AIService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AIService{model: model, catalogue: catalogue, log: log}
}

// Functions lists the callable function names.
func (s *AIService) Functions() []string {
	return s.catalogue.Names()
}

// Lookup returns the definition of the function called name.
func (s *AIService) Lookup(name string) (Function, error) {
	return s.catalogue.Lookup(name)
}

// Invoke runs the function called name on a JSON input. brandContext is
// prepended to the prompt for functions that want it.
func (s *AIService) Invoke(ctx context.Context, name string, input json.RawMessage, brandContext string) (*Result, error) {
	fn, err := s.catalogue.Lookup(name)
	if err != nil {
		return nil, err
	}

	var prompt strings.Builder
	if fn.BrandContext && brandContext != "" {
		prompt.WriteString("Contexte de marque de l'utilisatrice :\n")
		prompt.WriteString(brandContext)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Demande (JSON) :\n")
	if len(input) == 0 {
		prompt.WriteString("{}")
	} else {
		prompt.Write(input)
	}

	text, tokens, err := s.model.Generate(ctx, GenerateRequest{
		System:      s.catalogue.SystemInstruction(fn),
		Prompt:      prompt.String(),
		Temperature: *fn.Temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}

	data, err := ExtractJSON(text)
	if err != nil {
		s.log.Warn("AI function returned no JSON",
			zap.String("function", name),
			zap.Int("length", len(text)))
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	s.log.Debug("AI function answered", zap.String("function", name), zap.Int("tokens", tokens))
	return &Result{Function: name, Data: data, Raw: text, Tokens: tokens}, nil
}

// BrandContextTool lets the assistant read the workspace's branding.
var BrandContextTool = Tool{
	Name:        "get_brand_context",
	Description: "Renvoie le branding enregistré de l'utilisatrice (profil, storytelling, proposition, niche, charte, offres).",
	Params: map[string]string{
		"section": "La section à lire, ou \"all\" pour tout le branding.",
	},
	Enums: map[string][]string{
		"section": {"all", "profile", "storytelling", "proposition", "niche", "charter", "offers"},
	},
	Required: []string{"section"},
}

// Chat answers a free-form question. The model may read the user's
// branding through BrandContextTool, answered by call.
func (s *AIService) Chat(ctx context.Context, message, userRole string, call ToolFunc) (string, int, error) {
	system := fmt.Sprintf(`Tu es la coach IA de l'application. Rôle de l'utilisatrice : %s.
Tu peux lire son branding avec l'outil %s avant de répondre.
Réponds en français, de façon concrète et concise, en la tutoyant.`, userRole, BrandContextTool.Name)

	answer, tokens, err := s.model.Converse(ctx, system, message, []Tool{BrandContextTool}, call)
	if err != nil {
		return "", tokens, fmt.Errorf("%w: chat: %v", ErrModelUnavailable, err)
	}
	return answer, tokens, nil
}
