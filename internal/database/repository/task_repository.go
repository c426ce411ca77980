package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

// TaskFilter narrows task listing queries. Zero-valued fields are ignored.
type TaskFilter struct {
	BoardID    *uuid.UUID
	ColumnID   *uuid.UUID
	AssigneeID *uuid.UUID
	Status     models.TaskStatus
	Priority   models.TaskPriority
	Search     string
}

// TaskRepository defines the interface for task-related database operations
type TaskRepository interface {
	Repository
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter TaskFilter, offset, limit int) ([]*models.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddAssignee(ctx context.Context, taskID, userID uuid.UUID) error
	RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error
	ListAssignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
}

// taskRepository implements the TaskRepository interface
type taskRepository struct {
	*BaseRepository
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new task into the database
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, board_id, column_id, title, description, status, priority,
		                   position, start_date, due_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		task.ID,
		task.BoardID,
		task.ColumnID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Position,
		task.StartDate,
		task.DueDate,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)

	return err
}

// GetByID retrieves a task by ID
func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	query := `SELECT * FROM tasks WHERE id = $1 AND deleted_at IS NULL`

	err := r.GetDB().GetContext(ctx, &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Task not found
		}
		return nil, err
	}

	return &task, nil
}

// buildTaskFilter renders the WHERE clause and args for a task filter
func buildTaskFilter(filter TaskFilter) (string, []interface{}) {
	where := "t.deleted_at IS NULL"
	args := []interface{}{}
	n := 1

	add := func(clause string, value interface{}) {
		where += fmt.Sprintf(" AND "+clause, n)
		args = append(args, value)
		n++
	}

	if filter.BoardID != nil {
		add("t.board_id = $%d", *filter.BoardID)
	}
	if filter.ColumnID != nil {
		add("t.column_id = $%d", *filter.ColumnID)
	}
	if filter.AssigneeID != nil {
		add("EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = $%d)", *filter.AssigneeID)
	}
	if filter.Status != "" {
		add("t.status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("t.priority = $%d", filter.Priority)
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (t.title ILIKE $%d OR t.description ILIKE $%d)", n, n)
		args = append(args, "%"+filter.Search+"%")
		n++
	}

	return where, args
}

// List retrieves tasks matching the filter with pagination
func (r *taskRepository) List(ctx context.Context, filter TaskFilter, offset, limit int) ([]*models.Task, error) {
	where, args := buildTaskFilter(filter)
	query := fmt.Sprintf(`
		SELECT t.* FROM tasks t
		WHERE %s
		ORDER BY t.position ASC, t.created_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	tasks := []*models.Task{}
	err := r.GetDB().SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Count returns the number of tasks matching the filter
func (r *taskRepository) Count(ctx context.Context, filter TaskFilter) (int, error) {
	where, args := buildTaskFilter(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks t WHERE %s`, where)

	var count int
	err := r.GetDB().GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Update updates an existing task
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET column_id = $1, title = $2, description = $3, status = $4, priority = $5,
		    position = $6, start_date = $7, due_date = $8, updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`

	task.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		task.ColumnID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Position,
		task.StartDate,
		task.DueDate,
		task.UpdatedAt,
		task.ID,
	)

	return err
}

// Delete soft-deletes a task
func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	now := time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, now, id)
	return err
}

// AddAssignee assigns a user to a task; assigning twice is a no-op
func (r *taskRepository) AddAssignee(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `
		INSERT INTO task_assignees (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`

	_, err := r.GetDB().ExecContext(ctx, query, taskID, userID)
	return err
}

// RemoveAssignee removes a user from a task
func (r *taskRepository) RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `DELETE FROM task_assignees WHERE task_id = $1 AND user_id = $2`

	_, err := r.GetDB().ExecContext(ctx, query, taskID, userID)
	return err
}

// ListAssignees retrieves the user ids assigned to a task
func (r *taskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	query := `SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY user_id ASC`

	err := r.GetDB().SelectContext(ctx, &ids, query, taskID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}
