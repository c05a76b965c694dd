package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"offer:new", true},
		{"branding.charter", true},
		{"calendar-2026-01", true},
		{strings.Repeat("a", 100), true},
		{strings.Repeat("a", 101), false},
		{"Offer", false},
		{"-leading", false},
		{"with space", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, draftKeyRe.MatchString(tt.key), tt.key)
	}
}

func TestDrafts(t *testing.T) {
	t.Run("save then load", func(t *testing.T) {
		e := newTestEnv(t)
		payload := `{"step":3,"name":"Atelier"}`

		e.mock.ExpectExec(q("INSERT INTO drafts")).
			WithArgs(testUserID, "offer:new", payload, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		w := e.serve(http.MethodPut, "/drafts/:key", "/drafts/offer:new", jsonBody(payload), e.h.SaveDraft)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		e.mock.ExpectQuery(q("SELECT payload, updated_at FROM drafts WHERE user_id = ? AND draft_key = ?")).
			WithArgs(testUserID, "offer:new").
			WillReturnRows(sqlmock.NewRows([]string{"payload", "updated_at"}).AddRow([]byte(payload), time.Now()))
		w = e.serve(http.MethodGet, "/drafts/:key", "/drafts/offer:new", nil, e.h.GetDraft)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		draft := decode(t, w)["draft"].(map[string]any)
		assert.EqualValues(t, 3, draft["payload"].(map[string]any)["step"])
	})

	t.Run("missing", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("FROM drafts WHERE user_id = ? AND draft_key = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))

		w := e.serve(http.MethodGet, "/drafts/:key", "/drafts/offer:new", nil, e.h.GetDraft)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejected payloads", func(t *testing.T) {
		e := newTestEnv(t)

		w := e.serve(http.MethodPut, "/drafts/:key", "/drafts/offer:new", jsonBody(`{"step":`), e.h.SaveDraft)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		big := `{"notes":"` + strings.Repeat("x", maxDraftBytes) + `"}`
		w = e.serve(http.MethodPut, "/drafts/:key", "/drafts/offer:new", jsonBody(big), e.h.SaveDraft)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		w = e.serve(http.MethodPut, "/drafts/:key", "/drafts/Offre", jsonBody(`{}`), e.h.SaveDraft)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectExec(q("DELETE FROM drafts WHERE user_id = ? AND draft_key = ?")).
			WithArgs(testUserID, "offer:new").
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := e.serve(http.MethodDelete, "/drafts/:key", "/drafts/offer:new", nil, e.h.DeleteDraft)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
