package models

import "time"

// CalendarPost is the model for the 'calendar_posts' table
type CalendarPost struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	PostDate    string    `json:"date" db:"post_date"` // YYYY-MM-DD
	Canal       string    `json:"canal" db:"canal"`
	Format      string    `json:"format" db:"format"`
	Theme       string    `json:"theme" db:"theme"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	Objective   string    `json:"objective" db:"objective"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// SavedIdea is the model for the 'saved_ideas' table
type SavedIdea struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	Title       string    `json:"title" db:"title"`
	Format      string    `json:"format" db:"format"`
	Canal       string    `json:"canal" db:"canal"`
	Objective   string    `json:"objective" db:"objective"`
	Notes       string    `json:"notes" db:"notes"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

var (
	ValidCanals      = map[string]bool{"instagram": true, "linkedin": true}
	ValidPostFormats = map[string]bool{"post": true, "carousel": true, "reel": true, "story": true, "live": true, "article": true}
)

// EditorialLine is the model for the 'instagram_editorial_line' table
type EditorialLine struct {
	ID               int64      `json:"id" db:"id"`
	WorkspaceID      int64      `json:"workspaceId" db:"workspace_id"`
	MainObjective    string     `json:"mainObjective" db:"main_objective"`
	Pillars          StringList `json:"pillars" db:"pillars"`
	Frequency        IntMap     `json:"frequency" db:"frequency"`
	AvailableMinutes int        `json:"availableMinutes" db:"available_minutes"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}
