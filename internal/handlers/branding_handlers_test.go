package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectEmptyBrand queues the reads of brandContext(..., "all") for a
// workspace that saved nothing yet.
func expectEmptyBrand(mock sqlmock.Sqlmock) {
	for _, s := range brandSections {
		mock.ExpectQuery(q("FROM "+s.table+" WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}
	mock.ExpectQuery(q("FROM offers WHERE workspace_id = ?")).
		WithArgs(testWorkspaceID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func profileRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "workspace_id", "is_validated", "updated_at",
		"activity", "target", "mission", "brand_values", "tone_keywords"}).
		AddRow(int64(1), testWorkspaceID, true, time.Now(),
			"Coach en visibilité", "Thérapeutes", "Rendre visibles les indépendantes",
			`["Douceur","Clarté","Audace"]`, `["chaleureux","direct","lumineux"]`)
}

func TestBrandSectionQueries(t *testing.T) {
	s, ok := findSection("profile")
	require.True(t, ok)

	assert.Equal(t,
		"SELECT id, workspace_id, is_validated, updated_at, activity, target, mission, brand_values, tone_keywords FROM brand_profile WHERE workspace_id = ?",
		s.selectQuery())

	upsert := s.upsertQuery()
	assert.True(t, strings.HasPrefix(upsert,
		"INSERT INTO brand_profile (workspace_id, is_validated, updated_at, activity, target, mission, brand_values, tone_keywords) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"))
	assert.Contains(t, upsert, "ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), is_validated = VALUES(is_validated)")
	assert.NotContains(t, upsert, "workspace_id = VALUES")

	for _, s := range brandSections {
		row, content := s.bind()
		assert.Len(t, content, len(s.columns), s.key)
		assert.NotNil(t, row.Base(), s.key)
	}
}

func TestGetBrandSection(t *testing.T) {
	t.Run("never saved", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("FROM storytelling WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := e.serve(http.MethodGet, "/branding/:section", "/branding/storytelling", nil, e.h.GetBrandSection)
		require.Equal(t, http.StatusOK, w.Code)

		out := decode(t, w)
		assert.Equal(t, false, out["exists"])
		assert.EqualValues(t, 0, out["completion"])
		assert.Len(t, out["missing"], 5)
		assert.EqualValues(t, testWorkspaceID, out["section"].(map[string]any)["workspaceId"])
	})

	t.Run("saved", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("FROM brand_profile WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(profileRow())

		w := e.serve(http.MethodGet, "/branding/:section", "/branding/profile", nil, e.h.GetBrandSection)
		require.Equal(t, http.StatusOK, w.Code)

		out := decode(t, w)
		assert.Equal(t, true, out["exists"])
		assert.EqualValues(t, 100, out["completion"])
		assert.Empty(t, out["missing"])
	})

	t.Run("unknown section", func(t *testing.T) {
		e := newTestEnv(t)
		w := e.serve(http.MethodGet, "/branding/:section", "/branding/horoscope", nil, e.h.GetBrandSection)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSaveBrandSection_Charter(t *testing.T) {
	e := newTestEnv(t)
	s, _ := findSection("charter")

	e.mock.ExpectExec(q(s.upsertQuery())).
		WithArgs(testWorkspaceID, false, sqlmock.AnyArg(),
			`["#1F2A44","#F4C95D"]`, "Playfair Display", "Inter", "", "[]", "", "[]", "[]", "[]").
		WillReturnResult(sqlmock.NewResult(7, 1))

	w := e.serve(http.MethodPut, "/branding/:section", "/branding/charter", jsonBody(`{
		"colors": ["#1F2A44", "#F4C95D"],
		"headingFont": "Playfair Display",
		"bodyFont": "Inter"
	}`), e.h.SaveBrandSection)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.EqualValues(t, 40, out["completion"])
	assert.Contains(t, out["missing"], "logoPath")
	section := out["section"].(map[string]any)
	assert.EqualValues(t, 7, section["id"])
	assert.EqualValues(t, testWorkspaceID, section["workspaceId"])
}

func TestGetBrandingSummary(t *testing.T) {
	e := newTestEnv(t)
	e.mock.MatchExpectationsInOrder(false)

	for _, s := range brandSections {
		rows := sqlmock.NewRows([]string{"id"})
		if s.key == "profile" {
			rows = profileRow()
		}
		e.mock.ExpectQuery(q("FROM " + s.table + " WHERE workspace_id = ?")).
			WithArgs(testWorkspaceID).
			WillReturnRows(rows)
	}

	w := e.serve(http.MethodGet, "/branding/summary", "/branding/summary", nil, e.h.GetBrandingSummary)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Sections []models.SectionStatus `json:"sections"`
		Overall  int                    `json:"overall"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Sections, len(brandSections))
	assert.Equal(t, "profile", out.Sections[0].Section)
	assert.True(t, out.Sections[0].Exists)
	assert.True(t, out.Sections[0].IsValidated)
	assert.Equal(t, 100, out.Sections[0].Completion)
	assert.False(t, out.Sections[1].Exists)
	assert.Equal(t, 17, out.Overall)
}

func TestBrandContext(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(q("FROM brand_profile WHERE workspace_id = ?")).
		WithArgs(testWorkspaceID).
		WillReturnRows(profileRow())

	text, err := e.h.brandContext(t.Context(), e.h.DB, testWorkspaceID, "profile")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "## profile\n"))
	assert.Contains(t, text, "Coach en visibilité")
	assert.NotContains(t, text, "## offers")
}
