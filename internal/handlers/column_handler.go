package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// ColumnHandler handles board column endpoints
type ColumnHandler struct {
	columnService services.ColumnService
}

// NewColumnHandler creates a new ColumnHandler
func NewColumnHandler(columnService services.ColumnService) *ColumnHandler {
	return &ColumnHandler{
		columnService: columnService,
	}
}

// CreateColumnRequest represents the request body for creating a column
type CreateColumnRequest struct {
	BoardID  uuid.UUID `json:"boardId" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	Position int       `json:"position"`
}

// UpdateColumnRequest represents the request body for renaming a column
type UpdateColumnRequest struct {
	Name string `json:"name" binding:"required"`
}

// MoveColumnRequest represents the request body for repositioning a column
type MoveColumnRequest struct {
	Position int `json:"position"`
}

func columnErrorStatus(err error) int {
	switch err {
	case services.ErrColumnNotFound, services.ErrBoardNotFound:
		return http.StatusNotFound
	case services.ErrNotBoardMember, services.ErrNotBoardAdmin:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CreateColumn adds a column to a board
func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	column, err := h.columnService.CreateColumn(c.Request.Context(), req.BoardID, user.ID, req.Name, req.Position)
	if err != nil {
		respondError(c, columnErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"column": column})
}

// ListColumns lists a board's columns in display order
func (h *ColumnHandler) ListColumns(c *gin.Context) {
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

	columns, err := h.columnService.ListColumns(c.Request.Context(), boardID, user.ID)
	if err != nil {
		respondError(c, columnErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"columns": columns})
}

// UpdateColumn renames a column
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	columnID, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid column ID")
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	column, err := h.columnService.UpdateColumn(c.Request.Context(), columnID, user.ID, req.Name)
	if err != nil {
		respondError(c, columnErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"column": column})
}

// MoveColumn changes a column's position on its board
func (h *ColumnHandler) MoveColumn(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	columnID, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid column ID")
		return
	}

	var req MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.columnService.MoveColumn(c.Request.Context(), columnID, user.ID, req.Position); err != nil {
		respondError(c, columnErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Column moved successfully"})
}

// DeleteColumn removes a column
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	columnID, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid column ID")
		return
	}

	if err := h.columnService.DeleteColumn(c.Request.Context(), columnID, user.ID); err != nil {
		respondError(c, columnErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Column deleted successfully"})
}

// RegisterRoutes registers the column routes
func (h *ColumnHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	columns := router.Group("/columns")
	columns.Use(authMiddleware)
	{
		columns.POST("", h.CreateColumn)
		columns.GET("", h.ListColumns)
		columns.PUT("/:columnId", h.UpdateColumn)
		columns.PATCH("/:columnId/move", h.MoveColumn)
		columns.DELETE("/:columnId", h.DeleteColumn)
	}
}
