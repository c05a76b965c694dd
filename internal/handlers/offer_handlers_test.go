package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSlug(t *testing.T) {
	tests := []struct {
		base  string
		taken []string
		want  string
	}{
		{"coaching-visibilite", nil, "coaching-visibilite"},
		{"coaching-visibilite", []string{"coaching-visibilite"}, "coaching-visibilite-2"},
		{"coaching-visibilite", []string{"coaching-visibilite", "coaching-visibilite-2", "coaching-visibilite-4"}, "coaching-visibilite-3"},
		{"", nil, "offre"},
		{"", []string{"offre"}, "offre-2"},
	}
	for _, tt := range tests {
		taken := map[string]bool{}
		for _, s := range tt.taken {
			taken[s] = true
		}
		assert.Equal(t, tt.want, nextSlug(tt.base, taken))
	}
}

func offerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "workspace_id", "name", "slug", "offer_type", "target", "problem",
		"promise", "features", "price", "format", "objections", "guarantee", "current_step",
		"is_validated", "created_at", "updated_at"})
}

func TestCreateOffer(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery(q("SELECT slug FROM offers WHERE workspace_id = ? AND id <> ?")).
		WithArgs(testWorkspaceID, int64(0), "coaching-visibilite", "coaching-visibilite-%").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("coaching-visibilite"))
	e.mock.ExpectExec(q("INSERT INTO offers")).
		WithArgs(testWorkspaceID, "Coaching Visibilité", "coaching-visibilite-2", "main",
			"Thérapeutes", "", "", `["Audit","Plan","Suivi"]`, 490.0, "", "[]", "", 1, false,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	w := e.serve(http.MethodPost, "/offers", "/offers", jsonBody(`{
		"name": "Coaching Visibilité",
		"target": "Thérapeutes",
		"features": ["Audit", "Plan", "Suivi"],
		"price": 490
	}`), e.h.CreateOffer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	offer := decode(t, w)["offer"].(map[string]any)
	assert.EqualValues(t, 9, offer["id"])
	assert.Equal(t, "coaching-visibilite-2", offer["slug"])
	assert.Equal(t, "main", offer["offerType"])
	assert.EqualValues(t, 1, offer["currentStep"])
	// name 10 + target 15 + features 10 + price 10
	assert.EqualValues(t, 45, offer["completion"])
}

func TestCreateOffer_SlugTakenConcurrently(t *testing.T) {
	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_offers_slug'"}
	body := `{"name":"Atelier"}`

	t.Run("retries with a fresh slug", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("SELECT slug FROM offers")).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}))
		e.mock.ExpectExec(q("INSERT INTO offers")).
			WithArgs(testWorkspaceID, "Atelier", "atelier", "main", "", "", "", "[]", nil, "", "[]", "", 1, false,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(duplicate)
		e.mock.ExpectQuery(q("SELECT slug FROM offers")).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("atelier"))
		e.mock.ExpectExec(q("INSERT INTO offers")).
			WithArgs(testWorkspaceID, "Atelier", "atelier-2", "main", "", "", "", "[]", nil, "", "[]", "", 1, false,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(10, 1))

		w := e.serve(http.MethodPost, "/offers", "/offers", jsonBody(body), e.h.CreateOffer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "atelier-2", decode(t, w)["offer"].(map[string]any)["slug"])
	})

	t.Run("gives up with a conflict", func(t *testing.T) {
		e := newTestEnv(t)
		for range offerSlugAttempts {
			e.mock.ExpectQuery(q("SELECT slug FROM offers")).
				WillReturnRows(sqlmock.NewRows([]string{"slug"}))
			e.mock.ExpectExec(q("INSERT INTO offers")).WillReturnError(duplicate)
		}

		w := e.serve(http.MethodPost, "/offers", "/offers", jsonBody(body), e.h.CreateOffer)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, decode(t, w)["error"], "réessaie")
	})
}

func TestUpdateOffer_RenameRetriesTakenSlug(t *testing.T) {
	e := newTestEnv(t)
	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	e.mock.ExpectQuery(q("FROM offers WHERE id = ? AND workspace_id = ?")).
		WithArgs(int64(9), testWorkspaceID).
		WillReturnRows(offerRows().AddRow(int64(9), testWorkspaceID, "Atelier", "atelier", "entry",
			"", "", "", "[]", nil, "", "[]", "", 1, false, time.Now(), time.Now()))
	e.mock.ExpectQuery(q("SELECT slug FROM offers WHERE workspace_id = ? AND id <> ?")).
		WithArgs(testWorkspaceID, int64(9), "masterclass", "masterclass-%").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))
	e.mock.ExpectExec(q("UPDATE offers SET name = ?, slug = ?")).
		WithArgs("Masterclass", "masterclass", "main", "", "", "", "[]", nil, "", "[]", "", 1, false,
			sqlmock.AnyArg(), int64(9), testWorkspaceID).
		WillReturnError(duplicate)
	e.mock.ExpectQuery(q("SELECT slug FROM offers WHERE workspace_id = ? AND id <> ?")).
		WithArgs(testWorkspaceID, int64(9), "masterclass", "masterclass-%").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("masterclass"))
	e.mock.ExpectExec(q("UPDATE offers SET name = ?, slug = ?")).
		WithArgs("Masterclass", "masterclass-2", "main", "", "", "", "[]", nil, "", "[]", "", 1, false,
			sqlmock.AnyArg(), int64(9), testWorkspaceID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := e.serve(http.MethodPut, "/offers/:id", "/offers/9", jsonBody(`{"name":"Masterclass"}`), e.h.UpdateOffer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "masterclass-2", decode(t, w)["offer"].(map[string]any)["slug"])
}

func TestCreateOffer_Validation(t *testing.T) {
	e := newTestEnv(t)
	for name, body := range map[string]string{
		"bad type": `{"name":"Atelier","offerType":"gratuit"}`,
		"bad step": `{"name":"Atelier","currentStep":8}`,
		"negative": `{"name":"Atelier","price":-5}`,
		"no name":  `{"target":"Thérapeutes"}`,
		"not json": `name=Atelier`,
	} {
		w := e.serve(http.MethodPost, "/offers", "/offers", jsonBody(body), e.h.CreateOffer)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestUpdateOffer_KeepsSlugWhenNameUnchanged(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery(q("FROM offers WHERE id = ? AND workspace_id = ?")).
		WithArgs(int64(9), testWorkspaceID).
		WillReturnRows(offerRows().AddRow(int64(9), testWorkspaceID, "Atelier", "atelier", "entry",
			"", "", "", "[]", nil, "", "[]", "", 1, false, time.Now(), time.Now()))
	e.mock.ExpectExec(q("UPDATE offers SET name = ?, slug = ?")).
		WithArgs("Atelier", "atelier", "entry", "", "", "", "[]", nil, "Visio", "[]", "", 2, false,
			sqlmock.AnyArg(), int64(9), testWorkspaceID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := e.serve(http.MethodPut, "/offers/:id", "/offers/9",
		jsonBody(`{"name":"Atelier","offerType":"entry","format":"Visio","currentStep":2}`), e.h.UpdateOffer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "atelier", decode(t, w)["offer"].(map[string]any)["slug"])
}

func TestDeleteOffer_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectExec(q("DELETE FROM offers WHERE id = ? AND workspace_id = ?")).
		WithArgs(int64(404), testWorkspaceID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := e.serve(http.MethodDelete, "/offers/:id", "/offers/404", nil, e.h.DeleteOffer)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCoachOffer(t *testing.T) {
	e := newTestEnv(t)
	e.model.answer = "```json\n{\"score\": 62, \"conseils\": [\"Précise ta promesse\"]}\n```"
	e.model.tokens = 210

	e.mock.ExpectQuery(q("FROM offers WHERE id = ? AND workspace_id = ?")).
		WithArgs(int64(9), testWorkspaceID).
		WillReturnRows(offerRows().AddRow(int64(9), testWorkspaceID, "Atelier", "atelier", "entry",
			"", "", "", "[]", 90.0, "", "[]", "", 1, false, time.Now(), time.Now()))
	expectEmptyBrand(e.mock)
	e.mock.ExpectExec(q("INSERT INTO ai_generations")).
		WithArgs(testWorkspaceID, testUserID, "offer-coaching", sqlmock.AnyArg(),
			`{"score": 62, "conseils": ["Précise ta promesse"]}`, 210, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := e.serve(http.MethodPost, "/offers/:id/coaching", "/offers/9/coaching", nil, e.h.CoachOffer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.EqualValues(t, 62, out["coaching"].(map[string]any)["score"])
	assert.EqualValues(t, 210, out["tokens"])
	require.Len(t, e.model.prompts, 1)
	assert.Contains(t, e.model.prompts[0], `"missing"`)
	assert.NotContains(t, e.model.prompts[0], "Contexte de marque")
}
