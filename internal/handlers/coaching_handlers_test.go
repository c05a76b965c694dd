package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/stats"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoachingProgress(t *testing.T) {
	p := &models.CoachingProgram{TotalSessions: 8}
	sessions := []models.CoachingSession{{Status: "done"}, {Status: "done"}, {Status: "planned"}, {Status: "cancelled"}}
	actions := []models.CoachingAction{{IsDone: true}, {IsDone: false}, {IsDone: false}}

	got := coachingProgress(p, sessions, actions)
	assert.Equal(t, 2, got.DoneSessions)
	assert.Equal(t, 8, got.TotalSessions)
	require.NotNil(t, got.Percent)
	assert.InDelta(t, 25.0, *got.Percent, 1e-9)
	assert.Equal(t, stats.FmtPct(stats.F(25)), got.Label)
	assert.Equal(t, 1, got.DoneActions)
	assert.Equal(t, 3, got.TotalActions)

	empty := coachingProgress(&models.CoachingProgram{}, nil, nil)
	assert.Nil(t, empty.Percent)
	assert.Equal(t, stats.Dash, empty.Label)
}

func TestGetMyCoaching(t *testing.T) {
	t.Run("no program", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("FROM coaching_programs")).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := e.serve(http.MethodGet, "/coaching", "/coaching", nil, e.h.GetMyCoaching)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"program": null}`, w.Body.String())
	})

	t.Run("overview", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.MatchExpectationsInOrder(false)

		start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		e.mock.ExpectQuery(q("FROM coaching_programs")).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "start_date", "end_date",
				"total_sessions", "status", "created_at"}).
				AddRow(int64(2), testUserID, "Visibilité 3 mois", start, start.AddDate(0, 3, 0), 4, "active", start))
		e.mock.ExpectQuery(q("FROM coaching_sessions WHERE program_id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "program_id", "title", "scheduled_at", "notes", "status", "reminder_sent"}).
				AddRow(int64(10), int64(2), "Lancement", start, "", "done", true).
				AddRow(int64(11), int64(2), "Positionnement", time.Now().Add(-time.Hour), "", "planned", true).
				AddRow(int64(12), int64(2), "Offre", time.Now().Add(48*time.Hour), "", "planned", false))
		e.mock.ExpectQuery(q("FROM coaching_actions WHERE program_id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "program_id", "session_id", "title", "due_date", "is_done"}).
				AddRow(int64(1), int64(2), int64(10), "Écrire ma bio", nil, true).
				AddRow(int64(2), int64(2), nil, "Lister 3 offres", start.AddDate(0, 0, 14), false))
		e.mock.ExpectQuery(q("FROM coaching_deliverables WHERE program_id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "program_id", "session_id", "title", "url", "created_at"}).
				AddRow(int64(4), int64(2), int64(10), "Charte graphique", "https://drive.example/charte.pdf", start))

		w := e.serve(http.MethodGet, "/coaching", "/coaching", nil, e.h.GetMyCoaching)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		out := decode(t, w)
		assert.EqualValues(t, 12, out["nextSession"].(map[string]any)["id"])
		assert.Len(t, out["sessions"], 3)
		deliverables := out["deliverables"].([]any)
		require.Len(t, deliverables, 1)
		assert.EqualValues(t, 10, deliverables[0].(map[string]any)["sessionId"])

		actions := out["actions"].([]any)
		require.Len(t, actions, 2)
		assert.EqualValues(t, 10, actions[0].(map[string]any)["sessionId"])
		assert.NotContains(t, actions[1].(map[string]any), "sessionId")

		progress := out["progress"].(map[string]any)
		assert.EqualValues(t, 1, progress["doneSessions"])
		assert.EqualValues(t, 25, progress["percent"])
	})
}

func TestCreateProgram(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectBegin()
	e.mock.ExpectQuery(q("SELECT 1 FROM users WHERE id = ?")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	e.mock.ExpectExec(q("INSERT INTO coaching_programs")).
		WithArgs(int64(8), "Visibilité", "2026-11-16", "2027-02-16", 6, "active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
	e.mock.ExpectExec(q("INSERT INTO notifications")).
		WithArgs(int64(8), sqlmock.AnyArg(), "/coaching", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	e.mock.ExpectCommit()

	w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs", "/admin/coaching/programs",
		jsonBody(`{"userId":8,"title":"Visibilité","startDate":"2026-11-16","durationMonths":3,"totalSessions":6}`),
		e.h.CreateProgram)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 3, decode(t, w)["program"].(map[string]any)["id"])
}

func TestCompleteSession(t *testing.T) {
	tests := []struct {
		name          string
		programStatus string
		done          int
		wantStatus    string
	}{
		{"program goes on", "active", 2, "active"},
		{"paused program stays paused", "paused", 2, "paused"},
		{"last session completes the program", "active", 4, "completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.mock.ExpectBegin()
			e.mock.ExpectQuery(q("FROM coaching_sessions s JOIN coaching_programs p")).
				WithArgs(int64(11)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total_sessions", "status"}).
					AddRow(int64(2), int64(8), 4, tt.programStatus))
			e.mock.ExpectExec(q("UPDATE coaching_sessions SET status = 'done' WHERE id = ?")).
				WithArgs(int64(11)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			e.mock.ExpectQuery(q("SELECT COUNT(*) FROM coaching_sessions WHERE program_id = ? AND status = 'done'")).
				WithArgs(int64(2)).
				WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(tt.done))
			if tt.wantStatus == "completed" {
				e.mock.ExpectExec(q("UPDATE coaching_programs SET status = 'completed'")).
					WithArgs(int64(2)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}
			e.mock.ExpectExec(q("INSERT INTO notifications")).
				WithArgs(int64(8), sqlmock.AnyArg(), "/coaching", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))
			e.mock.ExpectCommit()

			w := e.serveAs("admin", http.MethodPatch, "/admin/coaching/sessions/:id/done",
				"/admin/coaching/sessions/11/done", nil, e.h.CompleteSession)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.wantStatus, decode(t, w)["programStatus"])
		})
	}
}

func TestCreateAction_NotificationFailureIsNotFatal(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(q("SELECT user_id FROM coaching_programs WHERE id = ?")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(8)))
	e.mock.ExpectExec(q("INSERT INTO coaching_actions")).
		WithArgs(int64(2), nil, "Publier 3 carrousels", "2026-11-15").
		WillReturnResult(sqlmock.NewResult(6, 1))
	e.mock.ExpectExec(q("INSERT INTO notifications")).
		WillReturnError(sqlmock.ErrCancelled)

	w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs/:id/actions", "/admin/coaching/programs/2/actions",
		jsonBody(`{"title":"Publier 3 carrousels","dueDate":"2026-11-15"}`), e.h.CreateAction)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 6, decode(t, w)["action"].(map[string]any)["id"])
}

func TestCreateAction_SessionOfAnotherProgram(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(q("SELECT user_id FROM coaching_programs WHERE id = ?")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(8)))
	e.mock.ExpectQuery(q("SELECT 1 FROM coaching_sessions WHERE id = ? AND program_id = ?")).
		WithArgs(int64(40), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs/:id/actions", "/admin/coaching/programs/2/actions",
		jsonBody(`{"title":"Relire la page de vente","sessionId":40}`), e.h.CreateAction)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestCreateDeliverable(t *testing.T) {
	t.Run("linked to a session of the program", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("SELECT user_id FROM coaching_programs WHERE id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(8)))
		e.mock.ExpectQuery(q("SELECT 1 FROM coaching_sessions WHERE id = ? AND program_id = ?")).
			WithArgs(int64(11), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		e.mock.ExpectExec(q("INSERT INTO coaching_deliverables (program_id, session_id, title, url, created_at)")).
			WithArgs(int64(2), int64(11), "Plan de lancement", "https://drive.example/plan.pdf", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(9, 1))
		e.mock.ExpectExec(q("INSERT INTO notifications")).
			WithArgs(int64(8), sqlmock.AnyArg(), "/coaching", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs/:id/deliverables",
			"/admin/coaching/programs/2/deliverables",
			jsonBody(`{"title":"Plan de lancement","url":"https://drive.example/plan.pdf","sessionId":11}`),
			e.h.CreateDeliverable)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		d := decode(t, w)["deliverable"].(map[string]any)
		assert.EqualValues(t, 9, d["id"])
		assert.EqualValues(t, 11, d["sessionId"])
	})

	t.Run("without session", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("SELECT user_id FROM coaching_programs WHERE id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(8)))
		e.mock.ExpectExec(q("INSERT INTO coaching_deliverables")).
			WithArgs(int64(2), nil, "Bilan", "https://drive.example/bilan.pdf", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(10, 1))
		e.mock.ExpectExec(q("INSERT INTO notifications")).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs/:id/deliverables",
			"/admin/coaching/programs/2/deliverables",
			jsonBody(`{"title":"Bilan","url":"https://drive.example/bilan.pdf"}`), e.h.CreateDeliverable)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotContains(t, decode(t, w)["deliverable"].(map[string]any), "sessionId")
	})

	t.Run("session of another program", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(q("SELECT user_id FROM coaching_programs WHERE id = ?")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(8)))
		e.mock.ExpectQuery(q("SELECT 1 FROM coaching_sessions WHERE id = ? AND program_id = ?")).
			WithArgs(int64(40), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		w := e.serveAs("admin", http.MethodPost, "/admin/coaching/programs/:id/deliverables",
			"/admin/coaching/programs/2/deliverables",
			jsonBody(`{"title":"Bilan","url":"https://drive.example/bilan.pdf","sessionId":40}`), e.h.CreateDeliverable)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
