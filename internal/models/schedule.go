package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a single calendar entry inside a schedule. Timestamps use the
// local layout "2006-01-02T15:04:05" (no zone), matching what the
// generative model is asked to produce.
type Event struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Category string `json:"category,omitempty"`
}

// EventTimeLayout is the timestamp layout used by schedule events.
const EventTimeLayout = "2006-01-02T15:04:05"

// Schedule represents a named, saved weekly template.
//
// Events is kept as raw JSON: the repository round-trips it verbatim, so a
// client gets back exactly the event list it saved. Only the planner ever
// interprets the contents.
type Schedule struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OwnerID   uuid.UUID       `json:"owner_id" db:"owner_id"`
	Name      string          `json:"name" db:"name"`
	Events    json.RawMessage `json:"events" db:"events"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
