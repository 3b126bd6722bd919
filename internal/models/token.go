package models

import (
	"time"

	"github.com/google/uuid"
)

// PersistentToken represents a revocable long-lived credential.
// Only a SHA-256 hash is stored; the raw token is shown once on creation.
type PersistentToken struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Name       string     `json:"name" db:"name"`
	TokenHash  string     `json:"-" db:"token_hash"`
	Prefix     string     `json:"prefix" db:"prefix"` // hp_xxxx (for display)
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// PersistentTokenResponse is the response format for token operations.
// It includes the full token only on creation.
type PersistentTokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	Token     string    `json:"token,omitempty"` // Only set on creation
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
