package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService services.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	BoardID     uuid.UUID           `json:"boardId" binding:"required"`
	ColumnID    uuid.UUID           `json:"columnId" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	StartDate   *time.Time          `json:"startDate"`
	DueDate     *time.Time          `json:"dueDate"`
	AssigneeIDs []uuid.UUID         `json:"assigneeIds"`
}

// UpdateTaskRequest represents the request body for updating a task.
// Omitted fields keep their current values.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	StartDate   *time.Time           `json:"startDate"`
	DueDate     *time.Time           `json:"dueDate"`
}

// MoveTaskRequest represents the request body for moving a task
type MoveTaskRequest struct {
	ColumnID uuid.UUID `json:"columnId" binding:"required"`
	Position int       `json:"position"`
}

// AssignTaskRequest represents the request body for assigning users
type AssignTaskRequest struct {
	UserIDs []uuid.UUID `json:"userIds" binding:"required"`
}

func taskErrorStatus(err error) int {
	switch err {
	case services.ErrTaskNotFound, services.ErrColumnNotFound, services.ErrBoardNotFound:
		return http.StatusNotFound
	case services.ErrNotBoardMember, services.ErrNotBoardAdmin:
		return http.StatusForbidden
	case services.ErrInvalidTaskStatus, services.ErrInvalidPriority, services.ErrInvalidTitle:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

// CreateTask creates a task in a board column
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), user.ID, services.CreateTaskInput{
		BoardID:     req.BoardID,
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"task": task})
}

// GetTask fetches one task
func (h *TaskHandler) GetTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"task": task})
}

// ListTasks lists tasks filtered by board, column, assignee, status,
// priority or free text
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	boardID, err := uuid.Parse(c.Query("boardId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "board_id query parameter is required")
		return
	}

	filter := repository.TaskFilter{
		BoardID:  &boardID,
		Status:   models.TaskStatus(c.Query("status")),
		Priority: models.TaskPriority(c.Query("priority")),
		Search:   c.Query("search"),
	}
	if columnID, err := uuid.Parse(c.Query("columnId")); err == nil {
		filter.ColumnID = &columnID
	}
	if assigneeID, err := uuid.Parse(c.Query("assigneeId")); err == nil {
		filter.AssigneeID = &assigneeID
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), user.ID, filter, page, pageSize)
	if err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, user.ID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"task": task})
}

// MoveTask moves a task to another column or position
func (h *TaskHandler) MoveTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.MoveTask(c.Request.Context(), id, user.ID, req.ColumnID, req.Position)
	if err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"task": task})
}

// DeleteTask soft-deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id, user.ID); err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AssignUsers assigns users to a task
func (h *TaskHandler) AssignUsers(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.taskService.AssignUsers(c.Request.Context(), id, user.ID, req.UserIDs); err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Users assigned successfully"})
}

// UnassignUser removes one assignee from a task
func (h *TaskHandler) UnassignUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := taskID(c)
	if !ok {
		return
	}

	assigneeID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.taskService.UnassignUser(c.Request.Context(), id, user.ID, assigneeID); err != nil {
		respondError(c, taskErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "User unassigned successfully"})
}

// RegisterRoutes registers the task routes
func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	tasks := router.Group("/tasks")
	tasks.Use(authMiddleware)
	{
		tasks.POST("", h.CreateTask)
		tasks.GET("", h.ListTasks)
		tasks.GET("/:taskId", h.GetTask)
		tasks.PUT("/:taskId", h.UpdateTask)
		tasks.PATCH("/:taskId/move", h.MoveTask)
		tasks.DELETE("/:taskId", h.DeleteTask)
		tasks.POST("/:taskId/assignees", h.AssignUsers)
		tasks.DELETE("/:taskId/assignees/:userId", h.UnassignUser)
	}
}
