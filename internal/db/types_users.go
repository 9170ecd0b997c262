package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// User is a stored account. Students and admins share the table.
type User struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           types.UserRole `json:"role"`
	Branch         string         `json:"branch,omitempty"`
	Year           int            `json:"year,omitempty"`
	CareerInterest string         `json:"career_interest,omitempty"`
	Skills         []string       `json:"skills"`
	PasswordHash   string         `json:"-"`
	PasswordSet    bool           `json:"password_set"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ProfileUpdate replaces the student-editable profile fields.
type ProfileUpdate struct {
	Branch         string
	Year           int
	CareerInterest string
	Skills         []string
}
