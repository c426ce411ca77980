package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// NoteHandler handles board note endpoints
type NoteHandler struct {
	noteService services.NoteService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService services.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
	}
}

// CreateNoteRequest represents the request body for creating a note
type CreateNoteRequest struct {
	BoardID uuid.UUID `json:"boardId" binding:"required"`
	Content string    `json:"content" binding:"required"`
	Color   string    `json:"color"`
}

// UpdateNoteRequest represents the request body for updating a note
type UpdateNoteRequest struct {
	Content string `json:"content" binding:"required"`
	Color   string `json:"color"`
	Pinned  bool   `json:"pinned"`
}

func noteErrorStatus(err error) int {
	switch err {
	case services.ErrNoteNotFound, services.ErrBoardNotFound:
		return http.StatusNotFound
	case services.ErrNotNoteAuthor, services.ErrNotBoardMember:
		return http.StatusForbidden
	case services.ErrInvalidContent:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateNote pins a note to a board
func (h *NoteHandler) CreateNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.CreateNote(c.Request.Context(), req.BoardID, user.ID, req.Content, req.Color)
	if err != nil {
		respondError(c, noteErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"note": note})
}

// ListNotes lists a board's notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
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

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	notes, err := h.noteService.ListNotes(c.Request.Context(), boardID, user.ID, page, pageSize)
	if err != nil {
		respondError(c, noteErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"notes": notes})
}

// UpdateNote updates a note's content, color and pinned flag. Author only.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid note ID")
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.UpdateNote(c.Request.Context(), noteID, user.ID, req.Content, req.Color, req.Pinned)
	if err != nil {
		respondError(c, noteErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"note": note})
}

// DeleteNote removes a note. Author only.
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid note ID")
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), noteID, user.ID); err != nil {
		respondError(c, noteErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// RegisterRoutes registers the note routes
func (h *NoteHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	notes := router.Group("/notes")
	notes.Use(authMiddleware)
	{
		notes.POST("", h.CreateNote)
		notes.GET("", h.ListNotes)
		notes.PUT("/:noteId", h.UpdateNote)
		notes.DELETE("/:noteId", h.DeleteNote)
	}
}
