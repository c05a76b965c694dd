package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel records the last request and replays canned answers.
type fakeModel struct {
	answer string
	tokens int
	err    error

	lastReq GenerateRequest

	toolArgs map[string]any
}

func (f *fakeModel) Generate(_ context.Context, req GenerateRequest) (string, int, error) {
	f.lastReq = req
	return f.answer, f.tokens, f.err
}

func (f *fakeModel) Converse(ctx context.Context, system, message string, tools []Tool, call ToolFunc) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	if f.toolArgs != nil && call != nil {
		out, err := call(ctx, tools[0].Name, f.toolArgs)
		if err != nil {
			return "", 0, err
		}
		return f.answer + " " + out.(string), f.tokens, nil
	}
	return f.answer, f.tokens, nil
}

func newTestService(t *testing.T, m Model) *AIService {
	t.Helper()
	cat, err := DefaultCatalogue()
	require.NoError(t, err)
	return NewAIService(m, cat, nil)
}

func TestDefaultCatalogue(t *testing.T) {
	cat, err := DefaultCatalogue()
	require.NoError(t, err)

	for _, name := range []string{
		"audit-branding", "audit-site-auto", "carousel-ai", "carousel-visual",
		"stories-ai", "niche-ai", "offer-coaching", "generate-content",
		"website-ai", "launch-plan-ai", "audit-visual-templates",
	} {
		fn, err := cat.Lookup(name)
		require.NoError(t, err, name)
		require.NotNil(t, fn.Temperature, name)
	}

	niche, _ := cat.Lookup("niche-ai")
	assert.False(t, niche.BrandContext)
	audit, _ := cat.Lookup("audit-branding")
	assert.InDelta(t, 0.3, *audit.Temperature, 1e-6)
}

func TestParseCatalogue_Invalid(t *testing.T) {
	_, err := ParseCatalogue([]byte("functions: {}"))
	assert.Error(t, err)

	_, err = ParseCatalogue([]byte("functions:\n  vide:\n    brand_context: true\n"))
	assert.Error(t, err)
}

func TestInvoke(t *testing.T) {
	m := &fakeModel{answer: "```json\n{\"slides\":[{\"numero\":1}]}\n```", tokens: 321}
	s := newTestService(t, m)

	res, err := s.Invoke(context.Background(), "carousel-ai", json.RawMessage(`{"sujet":"tarifs"}`), "Activité : coach")
	require.NoError(t, err)

	assert.Equal(t, "carousel-ai", res.Function)
	assert.JSONEq(t, `{"slides":[{"numero":1}]}`, string(res.Data))
	assert.Equal(t, 321, res.Tokens)

	assert.True(t, m.lastReq.JSON)
	assert.Contains(t, m.lastReq.Prompt, "Activité : coach")
	assert.Contains(t, m.lastReq.Prompt, `{"sujet":"tarifs"}`)
	assert.Contains(t, m.lastReq.System, "carrousel")
}

func TestInvoke_SkipsBrandContextWhenNotWanted(t *testing.T) {
	m := &fakeModel{answer: `{"niches":[]}`}
	s := newTestService(t, m)

	_, err := s.Invoke(context.Background(), "niche-ai", nil, "Activité : coach")
	require.NoError(t, err)
	assert.False(t, strings.Contains(m.lastReq.Prompt, "Activité : coach"))
	assert.Contains(t, m.lastReq.Prompt, "{}")
}

func TestInvoke_Errors(t *testing.T) {
	s := newTestService(t, &fakeModel{answer: "{}"})
	_, err := s.Invoke(context.Background(), "horoscope-ai", nil, "")
	assert.ErrorIs(t, err, ErrUnknownFunction)

	s = newTestService(t, &fakeModel{err: errors.New("quota")})
	_, err = s.Invoke(context.Background(), "stories-ai", nil, "")
	assert.ErrorIs(t, err, ErrModelUnavailable)

	s = newTestService(t, &fakeModel{answer: "je ne sais pas"})
	_, err = s.Invoke(context.Background(), "stories-ai", nil, "")
	assert.ErrorIs(t, err, ErrUnexpectedFormat)
}

func TestChat_UsesTool(t *testing.T) {
	m := &fakeModel{answer: "Ta niche :", toolArgs: map[string]any{"section": "niche"}}
	s := newTestService(t, m)

	var asked string
	answer, _, err := s.Chat(context.Background(), "C'est quoi ma niche ?", "member", func(_ context.Context, name string, args map[string]any) (any, error) {
		asked = args["section"].(string)
		return "yoga prénatal", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "niche", asked)
	assert.Equal(t, "Ta niche : yoga prénatal", answer)
}
