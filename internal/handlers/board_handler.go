package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// BoardHandler handles board endpoints
type BoardHandler struct {
	boardService services.BoardService
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(boardService services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoardRequest represents the request body for creating a board
type CreateBoardRequest struct {
	OrganizationID uuid.UUID `json:"organizationId" binding:"required"`
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
}

// UpdateBoardRequest represents the request body for updating a board
type UpdateBoardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ArchiveBoardRequest represents the request body for archiving a board
type ArchiveBoardRequest struct {
	Archived bool `json:"archived"`
}

// BoardMemberRequest represents the request body for adding a board member
type BoardMemberRequest struct {
	UserID uuid.UUID        `json:"userId" binding:"required"`
	Role   models.BoardRole `json:"role" binding:"required"`
}

func boardErrorStatus(err error) int {
	switch err {
	case services.ErrBoardNotFound, services.ErrOrganizationNotFound:
		return http.StatusNotFound
	case services.ErrNotBoardMember, services.ErrNotBoardAdmin, services.ErrNotMember:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func boardID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid board ID")
		return uuid.Nil, false
	}
	return id, true
}

// CreateBoard creates a board inside an organization. The creator becomes
// a board admin and the board's chat thread is opened eagerly.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), req.OrganizationID, user.ID, req.Title, req.Description)
	if err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"board": board})
}

// GetBoard fetches one board the caller is a member of
func (h *BoardHandler) GetBoard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"board": board})
}

// ListBoards lists an organization's boards
func (h *BoardHandler) ListBoards(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	orgID, err := uuid.Parse(c.Query("organizationId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "organization_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	boards, err := h.boardService.ListBoards(c.Request.Context(), orgID, user.ID, page, pageSize)
	if err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"boards": boards})
}

// UpdateBoard updates a board's title and description
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), id, user.ID, req.Title, req.Description)
	if err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"board": board})
}

// ArchiveBoard toggles a board's archived flag
func (h *BoardHandler) ArchiveBoard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	var req ArchiveBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.boardService.ArchiveBoard(c.Request.Context(), id, user.ID, req.Archived); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Board updated successfully"})
}

// DeleteBoard soft-deletes a board
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), id, user.ID); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

// AddMember adds a user to the board
func (h *BoardHandler) AddMember(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	var req BoardMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.boardService.AddMember(c.Request.Context(), id, user.ID, req.UserID, req.Role); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Member added successfully"})
}

// RemoveMember removes a user from the board
func (h *BoardHandler) RemoveMember(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.boardService.RemoveMember(c.Request.Context(), id, user.ID, memberID); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// ListMembers lists the board's members
func (h *BoardHandler) ListMembers(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	id, ok := boardID(c)
	if !ok {
		return
	}

	members, err := h.boardService.ListMembers(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"members": members})
}

// RegisterRoutes registers the board routes
func (h *BoardHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	boards := router.Group("/boards")
	boards.Use(authMiddleware)
	{
		boards.POST("", h.CreateBoard)
		boards.GET("", h.ListBoards)
		boards.GET("/:boardId", h.GetBoard)
		boards.PUT("/:boardId", h.UpdateBoard)
		boards.PATCH("/:boardId/archive", h.ArchiveBoard)
		boards.DELETE("/:boardId", h.DeleteBoard)
		boards.GET("/:boardId/members", h.ListMembers)
		boards.POST("/:boardId/members", h.AddMember)
		boards.DELETE("/:boardId/members/:userId", h.RemoveMember)
	}
}
