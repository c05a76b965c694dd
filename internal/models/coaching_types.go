package models

import "time"

// CoachingProgram is the model for the 'coaching_programs' table
type CoachingProgram struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"userId" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	StartDate     time.Time `json:"startDate" db:"start_date"`
	EndDate       time.Time `json:"endDate" db:"end_date"`
	TotalSessions int       `json:"totalSessions" db:"total_sessions"`
	Status        string    `json:"status" db:"status"` // active, paused, completed
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// CoachingSession is the model for the 'coaching_sessions' table
type CoachingSession struct {
	ID           int64     `json:"id" db:"id"`
	ProgramID    int64     `json:"programId" db:"program_id"`
	Title        string    `json:"title" db:"title"`
	ScheduledAt  time.Time `json:"scheduledAt" db:"scheduled_at"`
	Notes        string    `json:"notes" db:"notes"`
	Status       string    `json:"status" db:"status"` // planned, done, cancelled
	ReminderSent bool      `json:"-" db:"reminder_sent"`
}

// CoachingAction is the model for the 'coaching_actions' table
type CoachingAction struct {
	ID        int64      `json:"id" db:"id"`
	ProgramID int64      `json:"programId" db:"program_id"`
	SessionID *int64     `json:"sessionId,omitempty" db:"session_id"`
	Title     string     `json:"title" db:"title"`
	DueDate   *time.Time `json:"dueDate,omitempty" db:"due_date"`
	IsDone    bool       `json:"isDone" db:"is_done"`
}

// CoachingDeliverable is the model for the 'coaching_deliverables' table
type CoachingDeliverable struct {
	ID        int64     `json:"id" db:"id"`
	ProgramID int64     `json:"programId" db:"program_id"`
	SessionID *int64    `json:"sessionId,omitempty" db:"session_id"`
	Title     string    `json:"title" db:"title"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
