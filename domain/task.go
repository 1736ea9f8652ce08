package domain

import "time"

// Status identifies the board column a task currently lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusTrash      Status = "trash"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusTrash:
		return true
	}
	return false
}

// Priority ranks a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single board item. ID, OwnerID and CreatedAt are fixed at
// creation; everything else is mutable through TaskService.Update.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewTask carries the caller-supplied fields for task creation. The owner is
// never part of it; TaskService.Create stamps the authenticated caller.
type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}

// TaskUpdate carries a partial update, one optional per mutable attribute.
// A nil field is a no-op; a set field adopts exactly the supplied value.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Status      *Status    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}
