package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task
type TaskStatus string

const (
	TaskStatusNotStarted  TaskStatus = "not_started"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusBlocked     TaskStatus = "blocked"
	TaskStatusUnderReview TaskStatus = "under_review"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusCancelled   TaskStatus = "cancelled"
)

// Valid reports whether the status is one of the known workflow states
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusBlocked,
		TaskStatusUnderReview, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLowest  TaskPriority = "lowest"
	TaskPriorityLow     TaskPriority = "low"
	TaskPriorityMedium  TaskPriority = "medium"
	TaskPriorityHigh    TaskPriority = "high"
	TaskPriorityHighest TaskPriority = "highest"
)

// Valid reports whether the priority is one of the known levels
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLowest, TaskPriorityLow, TaskPriorityMedium,
		TaskPriorityHigh, TaskPriorityHighest:
		return true
	}
	return false
}

// Task represents a work item in a board column
type Task struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	BoardID     uuid.UUID    `json:"boardId" db:"board_id"`
	ColumnID    uuid.UUID    `json:"columnId" db:"column_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Position    int          `json:"position" db:"position"`
	StartDate   *time.Time   `json:"startDate,omitempty" db:"start_date"`
	DueDate     *time.Time   `json:"dueDate,omitempty" db:"due_date"`
	CreatedBy   uuid.UUID    `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
	DeletedAt   *time.Time   `json:"deletedAt,omitempty" db:"deleted_at"`

	// AssigneeIDs is populated from task_assignees by the service layer
	AssigneeIDs []uuid.UUID `json:"assigneeIds,omitempty" db:"-"`
}

// NewTask creates a new task in the given board column
func NewTask(boardID, columnID, createdBy uuid.UUID, title, description string) *Task {
	now := time.Now()
	return &Task{
		ID:          uuid.New(),
		BoardID:     boardID,
		ColumnID:    columnID,
		Title:       title,
		Description: description,
		Status:      TaskStatusNotStarted,
		Priority:    TaskPriorityMedium,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MoveTo places the task in a column at the given position
func (t *Task) MoveTo(columnID uuid.UUID, position int) {
	t.ColumnID = columnID
	t.Position = position
	t.UpdatedAt = time.Now()
}
