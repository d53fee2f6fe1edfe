package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  *string   `json:"display_name,omitempty" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Profile is the account as shown to its owner, with the entry point and
// total size of their workspace.
type Profile struct {
	User
	RootID        string `json:"rootId,omitempty" example:"V1StGXR8_Z5jdHi6B-myT"`
	WorkspaceSize int64  `json:"workspaceSize" example:"22"`
}

// Session is one refresh-token login. The token itself is never exposed.
type Session struct {
	ID        uuid.UUID `json:"id" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
	UserAgent string    `json:"user_agent" example:"Mozilla/5.0 (X11; Linux x86_64) ..."`
	ClientIP  string    `json:"client_ip" example:"198.51.100.10"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
