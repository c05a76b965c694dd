package models

import "time"

// AIGeneration is the model for the 'ai_generations' table
type AIGeneration struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Function    string    `json:"function" db:"function_name"`
	Input       JSONDoc   `json:"input" db:"input"`
	Output      JSONDoc   `json:"output" db:"output"`
	TokensUsed  int       `json:"tokensUsed" db:"tokens_used"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Draft is the model for the 'drafts' table (auto-saved form state)
type Draft struct {
	UserID    int64     `json:"-" db:"user_id"`
	Key       string    `json:"key" db:"draft_key"`
	Payload   JSONDoc   `json:"payload" db:"payload"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// StorageObject is the model for the 'storage_objects' table
type StorageObject struct {
	ID           int64     `json:"id" db:"id"`
	WorkspaceID  int64     `json:"workspaceId" db:"workspace_id"`
	Bucket       string    `json:"bucket" db:"bucket"`
	Path         string    `json:"path" db:"path"`
	OriginalName string    `json:"originalName" db:"original_name"`
	ContentType  string    `json:"contentType" db:"content_type"`
	SizeBytes    int64     `json:"sizeBytes" db:"size_bytes"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	SignedURL string `json:"signedUrl,omitempty" db:"-"`
}
