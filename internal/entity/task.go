package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
)

// GeneratedTask is a task derived from a content item.
type GeneratedTask struct {
	ID          uuid.UUID              `json:"id"`
	ContentID   uuid.UUID              `json:"content_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    constants.Priority     `json:"priority"`
	Confidence  float64                `json:"confidence"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	Reasons     []string               `json:"reasons,omitempty"`
	Category    constants.TaskCategory `json:"category"`
	Completed   bool                   `json:"completed"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TaskEdit carries user edits to a task; nil fields are left unchanged.
type TaskEdit struct {
	Title       *string
	Description *string
	Priority    *constants.Priority
	DueDate     *time.Time
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	ContentID *uuid.UUID
	OpenOnly  bool
	Limit     int
}
