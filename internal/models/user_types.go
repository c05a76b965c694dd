package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin" // coach side
)

// User is the model for the 'users' table
type User struct {
	ID           int64     `json:"id" db:"id"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Workspace kinds.
const (
	WorkspaceSolo = "solo"
	WorkspaceTeam = "team"
)

// Workspace is the model for the 'workspaces' table.
// Every branding row is scoped by workspace_id.
type Workspace struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Kind      string    `json:"kind" db:"kind"`
	OwnerID   int64     `json:"ownerId" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	MemberRole string `json:"memberRole,omitempty" db:"-"`
}

// WorkspaceMember is the model for the 'workspace_members' table
type WorkspaceMember struct {
	WorkspaceID int64     `json:"workspaceId" db:"workspace_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Role        string    `json:"role" db:"role"` // owner, member
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
