package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with an existing number.
var ErrDuplicate = errors.New("duplicate key")

// Incident lifecycle states.
const (
	StateNew        = "New"
	StateInProgress = "In Progress"
	StateOnHold     = "On Hold"
	StateClosed     = "Closed"
)

// KnowledgeArticle is a published troubleshooting or reference entry.
// Read-only from the workflow's perspective; written only by kb import.
type KnowledgeArticle struct {
	Number           string    `json:"number"`
	Version          string    `json:"version"`
	ShortDescription string    `json:"short_description"`
	Author           string    `json:"author"`
	Category         string    `json:"category"`
	Workflow         string    `json:"workflow"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Incident is a tracked, stateful record of an unresolved user-reported
// problem. AssignedTo, ResolutionCode, and ResolutionNotes may be empty.
type Incident struct {
	Number           string    `json:"number"`
	OpenedAt         time.Time `json:"opened_at"`
	ShortDescription string    `json:"short_description"`
	Description      string    `json:"description"`
	State            string    `json:"state"`
	AssignedTo       string    `json:"assigned_to,omitempty"`
	ResolutionCode   string    `json:"resolution_code,omitempty"`
	ResolutionNotes  string    `json:"resolution_notes,omitempty"`
}
