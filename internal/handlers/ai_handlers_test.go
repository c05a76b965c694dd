package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAIFunctions(t *testing.T) {
	e := newTestEnv(t)
	w := e.serve(http.MethodGet, "/ai/functions", "/ai/functions", nil, e.h.GetAIFunctions)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["functions"], "niche-ai")
}

func TestRunAIFunction(t *testing.T) {
	t.Run("unknown function", func(t *testing.T) {
		e := newTestEnv(t)
		w := e.serve(http.MethodPost, "/ai/:function", "/ai/horoscope", jsonBody(`{}`), e.h.RunAIFunction)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, e.model.prompts)
	})

	t.Run("invalid body", func(t *testing.T) {
		e := newTestEnv(t)
		w := e.serve(http.MethodPost, "/ai/:function", "/ai/niche-ai", jsonBody(`{"activite":`), e.h.RunAIFunction)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("function without brand context", func(t *testing.T) {
		e := newTestEnv(t)
		e.model.answer = `{"niches": ["Thérapeutes en reconversion"]}`
		e.model.tokens = 120

		e.mock.ExpectExec(q("INSERT INTO ai_generations")).
			WithArgs(testWorkspaceID, testUserID, "niche-ai", `{"activite":"coach"}`,
				`{"niches": ["Thérapeutes en reconversion"]}`, 120, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := e.serve(http.MethodPost, "/ai/:function", "/ai/niche-ai", jsonBody(`{"activite":"coach"}`), e.h.RunAIFunction)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		out := decode(t, w)
		assert.Equal(t, "niche-ai", out["function"])
		assert.EqualValues(t, 120, out["tokens"])
		assert.Equal(t, []any{"Thérapeutes en reconversion"}, out["data"].(map[string]any)["niches"])
	})

	t.Run("empty body and failed history insert", func(t *testing.T) {
		e := newTestEnv(t)
		e.model.answer = `{"niches": []}`

		e.mock.ExpectExec(q("INSERT INTO ai_generations")).
			WithArgs(testWorkspaceID, testUserID, "niche-ai", "{}", `{"niches": []}`, 0, sqlmock.AnyArg()).
			WillReturnError(sqlmock.ErrCancelled)

		w := e.serve(http.MethodPost, "/ai/:function", "/ai/niche-ai", nil, e.h.RunAIFunction)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestChatAI(t *testing.T) {
	t.Run("reads branding through the read-only pool", func(t *testing.T) {
		e := newTestEnv(t)
		e.model.answer = "D'après ton profil :"
		e.model.tokens = 300
		e.model.toolArgs = map[string]any{"section": "profile"}

		e.ro.ExpectQuery(q("FROM brand_profile WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(profileRow())
		e.mock.ExpectExec(q("INSERT INTO ai_chat_history")).
			WithArgs(testUserID, testWorkspaceID, "Quelle bio pour Instagram ?", sqlmock.AnyArg(), 300, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := e.serve(http.MethodPost, "/ai/chat", "/ai/chat", jsonBody(`{"message":"Quelle bio pour Instagram ?"}`), e.h.ChatAI)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		out := decode(t, w)
		assert.Contains(t, out["response"], "Coach en visibilité")
		assert.EqualValues(t, 300, out["tokens"])
	})

	t.Run("empty section", func(t *testing.T) {
		e := newTestEnv(t)
		e.model.toolArgs = map[string]any{"section": "offers"}

		e.ro.ExpectQuery(q("FROM offers WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(offerRows())
		e.mock.ExpectExec(q("INSERT INTO ai_chat_history")).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := e.serve(http.MethodPost, "/ai/chat", "/ai/chat", jsonBody(`{"message":"Mes offres ?"}`), e.h.ChatAI)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, decode(t, w)["response"], "Aucune donnée enregistrée")
	})

	t.Run("unknown section", func(t *testing.T) {
		e := newTestEnv(t)
		e.model.toolArgs = map[string]any{"section": "passwords"}

		w := e.serve(http.MethodPost, "/ai/chat", "/ai/chat", jsonBody(`{"message":"Montre tout"}`), e.h.ChatAI)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		e := newTestEnv(t)
		w := e.serve(http.MethodPost, "/ai/chat", "/ai/chat", jsonBody(`{"message":""}`), e.h.ChatAI)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
