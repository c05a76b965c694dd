// Package jobs runs the periodic maintenance of the API: draft purge and
// coaching session reminders.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds one scheduled run.
const runTimeout = 5 * time.Minute

// reminderWindow is how far ahead sessions are reminded.
const reminderWindow = 24 * time.Hour

var parser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Runner owns the cron scheduler and the maintenance jobs.
type Runner struct {
	db        *sql.DB
	log       *zap.Logger
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// New schedules the maintenance jobs on schedule (a cron spec or a
// descriptor such as "@hourly"). Drafts older than retentionDays are purged.
func New(db *sql.DB, log *zap.Logger, schedule string, retentionDays int) (*Runner, error) {
	if retentionDays < 1 {
		return nil, fmt.Errorf("draft retention must be at least one day, got %d", retentionDays)
	}

	cl := cronLogger{log.Sugar()}
	r := &Runner{
		db:        db,
		log:       log,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid jobs schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins running the jobs in the background.
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Info("Jobs scheduler started", zap.Time("next_run", r.cron.Entries()[0].Next))
}

// Stop stops the scheduler and waits for a running job, or for ctx.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.log.Info("Jobs scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

func (r *Runner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	r.RunOnce(ctx)
}

// RunOnce runs every job once. Failures are logged; one failing job does
// not stop the others.
func (r *Runner) RunOnce(ctx context.Context) {
	if n, err := r.PurgeDrafts(ctx); err != nil {
		r.log.Error("Draft purge failed", zap.Error(err))
	} else if n > 0 {
		r.log.Info("Purged old drafts", zap.Int64("count", n))
	}

	if n, err := r.SendSessionReminders(ctx); err != nil {
		r.log.Error("Session reminders failed", zap.Error(err), zap.Int("sent", n))
	} else if n > 0 {
		r.log.Info("Sent session reminders", zap.Int("count", n))
	}
}

// PurgeDrafts deletes the drafts not updated within the retention window.
func (r *Runner) PurgeDrafts(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM drafts WHERE updated_at < ?", r.now().Add(-r.retention))
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return res.RowsAffected()
}

type dueSession struct {
	id          int64
	userID      int64
	title       string
	scheduledAt time.Time
}

// SendSessionReminders notifies the users whose planned sessions start
// within the next 24 hours, once per session.
func (r *Runner) SendSessionReminders(ctx context.Context) (int, error) {
	now := r.now()
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, p.user_id, s.title, s.scheduled_at
		FROM coaching_sessions s
		JOIN coaching_programs p ON p.id = s.program_id
		WHERE s.status = 'planned' AND s.reminder_sent = 0
			AND s.scheduled_at >= ? AND s.scheduled_at < ?
		ORDER BY s.scheduled_at ASC`, now, now.Add(reminderWindow))
	if err != nil {
		return 0, fmt.Errorf("list due sessions: %w", err)
	}

	var due []dueSession
	for rows.Next() {
		var s dueSession
		if err := rows.Scan(&s.id, &s.userID, &s.title, &s.scheduledAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan due session: %w", err)
		}
		due = append(due, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate due sessions: %w", err)
	}

	sent := 0
	for _, s := range due {
		ok, err := r.remind(ctx, s)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// remind flags the session and creates the notification in one
// transaction. It reports false when another run already flagged it.
func (r *Runner) remind(ctx context.Context, s dueSession) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin reminder: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE coaching_sessions SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0", s.id)
	if err != nil {
		return false, fmt.Errorf("flag session %d: %w", s.id, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	msg := fmt.Sprintf("Rappel : ta séance « %s » a lieu le %s.", s.title, s.scheduledAt.Format("02/01 à 15h04"))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`, s.userID, msg, "/coaching", r.now()); err != nil {
		return false, fmt.Errorf("notify session %d: %w", s.id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reminder: %w", err)
	}
	return true, nil
}

// cronLogger routes the scheduler's own logs to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
