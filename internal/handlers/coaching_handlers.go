package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const programColumns = "id, user_id, title, start_date, end_date, total_sessions, status, created_at"

func scanProgram(r rowScanner) (*models.CoachingProgram, error) {
	var p models.CoachingProgram
	if err := r.Scan(&p.ID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &p.TotalSessions, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadSessions(ctx context.Context, db *sql.DB, programID int64) ([]models.CoachingSession, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, program_id, title, scheduled_at, notes, status, reminder_sent
		FROM coaching_sessions WHERE program_id = ?
		ORDER BY scheduled_at ASC, id ASC`, programID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.CoachingSession{}
	for rows.Next() {
		var s models.CoachingSession
		if err := rows.Scan(&s.ID, &s.ProgramID, &s.Title, &s.ScheduledAt, &s.Notes, &s.Status, &s.ReminderSent); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func loadActions(ctx context.Context, db *sql.DB, programID int64) ([]models.CoachingAction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, program_id, session_id, title, due_date, is_done
		FROM coaching_actions WHERE program_id = ?
		ORDER BY is_done ASC, due_date IS NULL, due_date ASC, id ASC`, programID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	actions := []models.CoachingAction{}
	for rows.Next() {
		var (
			a       models.CoachingAction
			session sql.NullInt64
			due     sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.ProgramID, &session, &a.Title, &due, &a.IsDone); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if session.Valid {
			a.SessionID = &session.Int64
		}
		if due.Valid {
			a.DueDate = &due.Time
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func loadDeliverables(ctx context.Context, db *sql.DB, programID int64) ([]models.CoachingDeliverable, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, program_id, session_id, title, url, created_at
		FROM coaching_deliverables WHERE program_id = ?
		ORDER BY created_at DESC, id DESC`, programID)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	deliverables := []models.CoachingDeliverable{}
	for rows.Next() {
		var (
			d       models.CoachingDeliverable
			session sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.ProgramID, &session, &d.Title, &d.URL, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		if session.Valid {
			d.SessionID = &session.Int64
		}
		deliverables = append(deliverables, d)
	}
	return deliverables, rows.Err()
}

// CoachingProgress is the progress block of the coaching overview.
type CoachingProgress struct {
	DoneSessions  int      `json:"doneSessions"`
	TotalSessions int      `json:"totalSessions"`
	Percent       *float64 `json:"percent"`
	Label         string   `json:"label"`
	DoneActions   int      `json:"doneActions"`
	TotalActions  int      `json:"totalActions"`
}

func coachingProgress(p *models.CoachingProgram, sessions []models.CoachingSession, actions []models.CoachingAction) CoachingProgress {
	pr := CoachingProgress{TotalSessions: p.TotalSessions, TotalActions: len(actions)}
	for _, s := range sessions {
		if s.Status == "done" {
			pr.DoneSessions++
		}
	}
	for _, a := range actions {
		if a.IsDone {
			pr.DoneActions++
		}
	}
	pr.Percent = stats.SafeDivPct(stats.F(float64(pr.DoneSessions)), stats.F(float64(pr.TotalSessions)))
	pr.Label = stats.FmtPct(pr.Percent)
	return pr
}

// GetMyCoaching is the handler for GET /v1/coaching.
// The program's sessions, actions and deliverables are loaded in parallel.
func (h *Handlers) GetMyCoaching(c *gin.Context) {
	ctx := c.Request.Context()

	program, err := scanProgram(h.DB.QueryRowContext(ctx, `
		SELECT `+programColumns+` FROM coaching_programs
		WHERE user_id = ?
		ORDER BY status = 'active' DESC, created_at DESC
		LIMIT 1`, c.GetInt64("userID")))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusOK, gin.H{"program": nil})
		return
	}
	if err != nil {
		h.serverError(c, "load program", err)
		return
	}

	var (
		sessions     []models.CoachingSession
		actions      []models.CoachingAction
		deliverables []models.CoachingDeliverable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sessions, err = loadSessions(gctx, h.DB, program.ID)
		return err
	})
	g.Go(func() (err error) {
		actions, err = loadActions(gctx, h.DB, program.ID)
		return err
	})
	g.Go(func() (err error) {
		deliverables, err = loadDeliverables(gctx, h.DB, program.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.serverError(c, "coaching overview", err)
		return
	}

	var next *models.CoachingSession
	now := time.Now()
	for i := range sessions {
		if sessions[i].Status == "planned" && sessions[i].ScheduledAt.After(now) {
			next = &sessions[i]
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"program":      program,
		"sessions":     sessions,
		"actions":      actions,
		"deliverables": deliverables,
		"nextSession":  next,
		"progress":     coachingProgress(program, sessions, actions),
	})
}

type ActionDoneInput struct {
	IsDone bool `json:"isDone"`
}

// UpdateMyAction is the handler for PATCH /v1/coaching/actions/:id.
func (h *Handlers) UpdateMyAction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ActionDoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.DB.ExecContext(c.Request.Context(), `
		UPDATE coaching_actions a
		JOIN coaching_programs p ON p.id = a.program_id
		SET a.is_done = ?
		WHERE a.id = ? AND p.user_id = ?`,
		input.IsDone, id, c.GetInt64("userID"))
	if err != nil {
		h.serverError(c, "update action", err)
		return
	}
	if h.notFoundIfNone(c, res, "Action introuvable") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "isDone": input.IsDone})
}

//
// --- Coach side (admin) ---
//

// GetPrograms is the handler for GET /v1/admin/coaching/programs
func (h *Handlers) GetPrograms(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT p.id, p.user_id, p.title, p.start_date, p.end_date, p.total_sessions, p.status, p.created_at, u.full_name
		FROM coaching_programs p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.status = 'active' DESC, p.start_date DESC`)
	if err != nil {
		h.serverError(c, "list programs", err)
		return
	}
	defer rows.Close()

	type programRow struct {
		*models.CoachingProgram
		FullName string `json:"fullName"`
	}
	programs := []programRow{}
	for rows.Next() {
		var p models.CoachingProgram
		var name string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &p.TotalSessions,
			&p.Status, &p.CreatedAt, &name); err != nil {
			h.serverError(c, "scan program", err)
			return
		}
		programs = append(programs, programRow{&p, name})
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate programs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"programs": programs})
}

type ProgramInput struct {
	UserID         int64  `json:"userId" binding:"required,min=1"`
	Title          string `json:"title" binding:"required,max=255"`
	StartDate      string `json:"startDate" binding:"required,datetime=2006-01-02"`
	DurationMonths int    `json:"durationMonths" binding:"required,min=1,max=24"`
	TotalSessions  int    `json:"totalSessions" binding:"required,min=1,max=200"`
}

// CreateProgram is the handler for POST /v1/admin/coaching/programs.
// The end date is start + duration in months.
func (h *Handlers) CreateProgram(c *gin.Context) {
	var input ProgramInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	start, err := time.Parse(time.DateOnly, input.StartDate)
	if err != nil {
		badInput(c, err)
		return
	}

	p := &models.CoachingProgram{
		UserID:        input.UserID,
		Title:         input.Title,
		StartDate:     start,
		EndDate:       start.AddDate(0, input.DurationMonths, 0),
		TotalSessions: input.TotalSessions,
		Status:        "active",
		CreatedAt:     time.Now(),
	}

	ctx := c.Request.Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin program", err)
		return
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", p.UserID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisatrice introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "check program user", err)
		return
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO coaching_programs (user_id, title, start_date, end_date, total_sessions, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Title, p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly),
		p.TotalSessions, p.Status, p.CreatedAt)
	if err != nil {
		h.serverError(c, "insert program", err)
		return
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "program id", err)
		return
	}
	if err := AddNotification(ctx, tx, p.UserID, "Ton programme d'accompagnement « "+p.Title+" » commence !", "/coaching"); err != nil {
		h.serverError(c, "notify program", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit program", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"program": p})
}

// programUser returns the owner of a program, answering 404 when it does
// not exist.
func (h *Handlers) programUser(c *gin.Context) (programID, userID int64, ok bool) {
	programID, ok = paramID(c, "id")
	if !ok {
		return 0, 0, false
	}
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT user_id FROM coaching_programs WHERE id = ?", programID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Programme introuvable"})
		return 0, 0, false
	}
	if err != nil {
		h.serverError(c, "load program owner", err)
		return 0, 0, false
	}
	return programID, userID, true
}

// sessionInProgram checks that an optional session belongs to the program,
// answering 404 otherwise.
func (h *Handlers) sessionInProgram(c *gin.Context, programID int64, sessionID *int64) bool {
	if sessionID == nil {
		return true
	}
	var one int
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT 1 FROM coaching_sessions WHERE id = ? AND program_id = ?", *sessionID, programID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Séance introuvable dans ce programme"})
		return false
	}
	if err != nil {
		h.serverError(c, "check session program", err)
		return false
	}
	return true
}

type SessionInput struct {
	Title       string    `json:"title" binding:"required,max=255"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Notes       string    `json:"notes" binding:"max=2000"`
	Status      string    `json:"status" binding:"omitempty,oneof=planned done cancelled"`
}

// CreateSession is the handler for POST /v1/admin/coaching/programs/:id/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	programID, _, ok := h.programUser(c)
	if !ok {
		return
	}
	var input SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	s := &models.CoachingSession{
		ProgramID:   programID,
		Title:       input.Title,
		ScheduledAt: input.ScheduledAt,
		Notes:       input.Notes,
		Status:      input.Status,
	}
	if s.Status == "" {
		s.Status = "planned"
	}
	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO coaching_sessions (program_id, title, scheduled_at, notes, status, reminder_sent)
		VALUES (?, ?, ?, ?, ?, 0)`,
		s.ProgramID, s.Title, s.ScheduledAt, s.Notes, s.Status)
	if err != nil {
		h.serverError(c, "insert session", err)
		return
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "session id", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

type ActionInput struct {
	Title     string `json:"title" binding:"required,max=255"`
	SessionID *int64 `json:"sessionId" binding:"omitempty,min=1"`
	DueDate   string `json:"dueDate" binding:"omitempty,datetime=2006-01-02"`
}

// CreateAction is the handler for POST /v1/admin/coaching/programs/:id/actions
func (h *Handlers) CreateAction(c *gin.Context) {
	programID, userID, ok := h.programUser(c)
	if !ok {
		return
	}
	var input ActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	if !h.sessionInProgram(c, programID, input.SessionID) {
		return
	}

	a := &models.CoachingAction{ProgramID: programID, Title: input.Title, SessionID: input.SessionID}
	var due any
	if input.DueDate != "" {
		d, err := time.Parse(time.DateOnly, input.DueDate)
		if err != nil {
			badInput(c, err)
			return
		}
		a.DueDate = &d
		due = input.DueDate
	}

	ctx := c.Request.Context()
	res, err := h.DB.ExecContext(ctx, `
		INSERT INTO coaching_actions (program_id, session_id, title, due_date, is_done)
		VALUES (?, ?, ?, ?, 0)`,
		a.ProgramID, a.SessionID, a.Title, due)
	if err != nil {
		h.serverError(c, "insert action", err)
		return
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "action id", err)
		return
	}
	if err := AddNotification(ctx, h.DB, userID, "Nouvelle action : "+a.Title, "/coaching"); err != nil {
		h.Log.Warn("failed to notify action", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"action": a})
}

type DeliverableInput struct {
	Title     string `json:"title" binding:"required,max=255"`
	URL       string `json:"url" binding:"required,url,max=500"`
	SessionID *int64 `json:"sessionId" binding:"omitempty,min=1"`
}

// CreateDeliverable is the handler for POST /v1/admin/coaching/programs/:id/deliverables
func (h *Handlers) CreateDeliverable(c *gin.Context) {
	programID, userID, ok := h.programUser(c)
	if !ok {
		return
	}
	var input DeliverableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	if !h.sessionInProgram(c, programID, input.SessionID) {
		return
	}

	d := &models.CoachingDeliverable{
		ProgramID: programID,
		SessionID: input.SessionID,
		Title:     input.Title,
		URL:       input.URL,
		CreatedAt: time.Now(),
	}
	ctx := c.Request.Context()
	res, err := h.DB.ExecContext(ctx,
		"INSERT INTO coaching_deliverables (program_id, session_id, title, url, created_at) VALUES (?, ?, ?, ?, ?)",
		d.ProgramID, d.SessionID, d.Title, d.URL, d.CreatedAt)
	if err != nil {
		h.serverError(c, "insert deliverable", err)
		return
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "deliverable id", err)
		return
	}
	if err := AddNotification(ctx, h.DB, userID, "Nouveau livrable disponible : "+d.Title, "/coaching"); err != nil {
		h.Log.Warn("failed to notify deliverable", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"deliverable": d})
}

// CompleteSession is the handler for PATCH /v1/admin/coaching/sessions/:id/done.
// The program is completed once every planned session is done.
func (h *Handlers) CompleteSession(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(c, "begin complete session", err)
		return
	}
	defer tx.Rollback()

	var (
		programID, userID int64
		total             int
		programStatus     string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.total_sessions, p.status
		FROM coaching_sessions s JOIN coaching_programs p ON p.id = s.program_id
		WHERE s.id = ? FOR UPDATE`, id).Scan(&programID, &userID, &total, &programStatus)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Séance introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "load session", err)
		return
	}

	if _, err := tx.ExecContext(ctx, "UPDATE coaching_sessions SET status = 'done' WHERE id = ?", id); err != nil {
		h.serverError(c, "complete session", err)
		return
	}

	var done int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM coaching_sessions WHERE program_id = ? AND status = 'done'", programID).Scan(&done); err != nil {
		h.serverError(c, "count done sessions", err)
		return
	}
	if done >= total && programStatus != "completed" {
		programStatus = "completed"
		if _, err := tx.ExecContext(ctx, "UPDATE coaching_programs SET status = 'completed' WHERE id = ?", programID); err != nil {
			h.serverError(c, "complete program", err)
			return
		}
	}
	if err := AddNotification(ctx, tx, userID, "Ta séance est marquée comme terminée.", "/coaching"); err != nil {
		h.serverError(c, "notify session", err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(c, "commit complete session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":     id,
		"doneSessions":  done,
		"totalSessions": total,
		"programStatus": programStatus,
	})
}
