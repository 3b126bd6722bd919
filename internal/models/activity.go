package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity priorities. Stored as plain strings so existing data keeps
// whatever casing the client sent.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Activity represents a recurring task a user wants placed into their week.
type Activity struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OwnerID         uuid.UUID `json:"owner_id" db:"owner_id"`
	Name            string    `json:"name" db:"name"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Priority        string    `json:"priority" db:"priority"`
	Frequency       *string   `json:"frequency,omitempty" db:"frequency"`
	Category        string    `json:"category" db:"category"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
