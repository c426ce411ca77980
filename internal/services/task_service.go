package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidTitle      = errors.New("task title is required")
)

// MaxTaskTitleLength bounds task titles, in runes
const MaxTaskTitleLength = 255

// CreateTaskInput carries the fields accepted when creating a task
type CreateTaskInput struct {
	BoardID     uuid.UUID
	ColumnID    uuid.UUID
	Title       string
	Description string
	Priority    models.TaskPriority
	StartDate   *time.Time
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
}

// UpdateTaskInput carries the fields accepted when updating a task.
// Nil pointers leave the current value unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	StartDate   *time.Time
	DueDate     *time.Time
}

// TaskService handles task-related business logic
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error)
	GetTask(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, filter repository.TaskFilter, page, pageSize int) ([]*models.Task, int, error)
	UpdateTask(ctx context.Context, taskID, userID uuid.UUID, input UpdateTaskInput) (*models.Task, error)
	MoveTask(ctx context.Context, taskID, userID, targetColumnID uuid.UUID, position int) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error
	AssignUsers(ctx context.Context, taskID, actorID uuid.UUID, userIDs []uuid.UUID) error
	UnassignUser(ctx context.Context, taskID, actorID, userID uuid.UUID) error
}

type taskService struct {
	taskRepo   repository.TaskRepository
	columnRepo repository.ColumnRepository
	boardSvc   BoardService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, columnRepo repository.ColumnRepository, boardSvc BoardService) TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		columnRepo: columnRepo,
		boardSvc:   boardSvc,
	}
}

// CreateTask creates a task in a column of a board the user belongs to
func (s *taskService) CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" || len([]rune(input.Title)) > MaxTaskTitleLength {
		return nil, ErrInvalidTitle
	}

	if _, err := s.boardSvc.RequireBoardMember(ctx, input.BoardID, userID); err != nil {
		return nil, err
	}

	column, err := s.columnRepo.GetByID(ctx, input.ColumnID)
	if err != nil {
		return nil, err
	}
	if column == nil || column.BoardID != input.BoardID {
		return nil, ErrColumnNotFound
	}

	task := models.NewTask(input.BoardID, input.ColumnID, userID, input.Title, input.Description)
	if input.Priority != "" {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = input.Priority
	}
	task.StartDate = input.StartDate
	task.DueDate = input.DueDate

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	for _, assigneeID := range input.AssigneeIDs {
		if err := s.taskRepo.AddAssignee(ctx, task.ID, assigneeID); err != nil {
			return nil, err
		}
	}
	task.AssigneeIDs = input.AssigneeIDs

	return task, nil
}

// getTaskForMember fetches the task and checks board membership
func (s *taskService) getTaskForMember(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	if _, err := s.boardSvc.RequireBoardMember(ctx, task.BoardID, userID); err != nil {
		return nil, err
	}

	return task, nil
}

// GetTask retrieves a task with its assignees
func (s *taskService) GetTask(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	task, err := s.getTaskForMember(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	assignees, err := s.taskRepo.ListAssignees(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.AssigneeIDs = assignees

	return task, nil
}

// ListTasks retrieves tasks matching the filter. The filter must name a
// board the user belongs to.
func (s *taskService) ListTasks(ctx context.Context, userID uuid.UUID, filter repository.TaskFilter, page, pageSize int) ([]*models.Task, int, error) {
	if filter.BoardID == nil {
		return nil, 0, ErrBoardNotFound
	}
	if _, err := s.boardSvc.RequireBoardMember(ctx, *filter.BoardID, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	tasks, err := s.taskRepo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return tasks, count, nil
}

// UpdateTask applies the non-nil fields of the input to the task
func (s *taskService) UpdateTask(ctx context.Context, taskID, userID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.getTaskForMember(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" || len([]rune(*input.Title)) > MaxTaskTitleLength {
			return nil, ErrInvalidTitle
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// MoveTask places the task into a target column at the given position.
// The target column must belong to the same board.
func (s *taskService) MoveTask(ctx context.Context, taskID, userID, targetColumnID uuid.UUID, position int) (*models.Task, error) {
	task, err := s.getTaskForMember(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	column, err := s.columnRepo.GetByID(ctx, targetColumnID)
	if err != nil {
		return nil, err
	}
	if column == nil || column.BoardID != task.BoardID {
		return nil, ErrColumnNotFound
	}

	task.MoveTo(targetColumnID, position)
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask soft-deletes a task
func (s *taskService) DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error {
	if _, err := s.getTaskForMember(ctx, taskID, userID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, taskID)
}

// AssignUsers assigns board members to a task
func (s *taskService) AssignUsers(ctx context.Context, taskID, actorID uuid.UUID, userIDs []uuid.UUID) error {
	task, err := s.getTaskForMember(ctx, taskID, actorID)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		// Assignees must be members of the task's board
		if _, err := s.boardSvc.RequireBoardMember(ctx, task.BoardID, userID); err != nil {
			return err
		}
		if err := s.taskRepo.AddAssignee(ctx, taskID, userID); err != nil {
			return err
		}
	}

	return nil
}

// UnassignUser removes a user from a task
func (s *taskService) UnassignUser(ctx context.Context, taskID, actorID, userID uuid.UUID) error {
	if _, err := s.getTaskForMember(ctx, taskID, actorID); err != nil {
		return err
	}
	return s.taskRepo.RemoveAssignee(ctx, taskID, userID)
}
