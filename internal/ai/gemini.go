package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxToolTurns bounds the number of tool calls in one conversation.
const maxToolTurns = 5

// Gemini is the Model backed by the Gemini API.
type Gemini struct {
	Client    *genai.Client
	ModelName string
	log       *zap.Logger
}

// NewGemini creates the Gemini client.
func NewGemini(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{Client: client, ModelName: modelName, log: log}, nil
}

// Close releases the client.
func (g *Gemini) Close() error {
	return g.Client.Close()
}

func (g *Gemini) model(system string) *genai.GenerativeModel {
	model := g.Client.GenerativeModel(g.ModelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return model
}

// Generate runs a single prompt.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (string, int, error) {
	model := g.model(req.System)
	model.SetTemperature(req.Temperature)
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	res, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", 0, fmt.Errorf("error generating content: %w", err)
	}
	return responseText(res), tokenCount(res), nil
}

// Converse runs a chat turn, answering the model's function calls with call
// until it produces text.
func (g *Gemini) Converse(ctx context.Context, system, message string, tools []Tool, call ToolFunc) (string, int, error) {
	model := g.model(system)
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, declaration(t))
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}
	totalTokens := tokenCount(res)

	for turn := 0; ; turn++ {
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return "", totalTokens, fmt.Errorf("empty response")
		}

		funcCall, ok := res.Candidates[0].Content.Parts[0].(genai.FunctionCall)
		if !ok {
			return responseText(res), totalTokens, nil
		}
		if turn >= maxToolTurns {
			return "", totalTokens, fmt.Errorf("too many tool calls")
		}

		g.log.Debug("model called tool", zap.String("tool", funcCall.Name), zap.Any("args", funcCall.Args))
		var result any
		if call == nil {
			result = "tool unavailable"
		} else if out, callErr := call(ctx, funcCall.Name, funcCall.Args); callErr != nil {
			result = fmt.Sprintf("Erreur : %v", callErr)
		} else {
			result = out
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     funcCall.Name,
			Response: map[string]any{"result": result},
		})
		if err != nil {
			return "", totalTokens, fmt.Errorf("tool response error: %w", err)
		}
		// UsageMetadata is cumulative for the chat.
		if n := tokenCount(res); n > 0 {
			totalTokens = n
		}
	}
}

func declaration(t Tool) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(t.Params))
	for name, desc := range t.Params {
		props[name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: desc,
			Enum:        t.Enums[name],
		}
	}
	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   t.Required,
		},
	}
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

func tokenCount(res *genai.GenerateContentResponse) int {
	if res == nil || res.UsageMetadata == nil {
		return 0
	}
	return int(res.UsageMetadata.TotalTokenCount)
}
