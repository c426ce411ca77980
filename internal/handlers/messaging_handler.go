package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// MessagingHandler handles board chat endpoints
type MessagingHandler struct {
	messagingService services.MessagingService
	boardService     services.BoardService
}

// NewMessagingHandler creates a new MessagingHandler
func NewMessagingHandler(messagingService services.MessagingService, boardService services.BoardService) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
		boardService:     boardService,
	}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text      string     `json:"text" binding:"required"`
	ReplyToID *uuid.UUID `json:"replyToId"`
}

// EditMessageRequest represents the request body for editing a message
type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateThreadRequest represents the request body for opening a thread
type CreateThreadRequest struct {
	BoardID uuid.UUID `json:"boardId" binding:"required"`
}

func messagingErrorStatus(err error) int {
	switch err {
	case services.ErrThreadNotFound, services.ErrMessageNotFound, services.ErrBoardNotFound:
		return http.StatusNotFound
	case services.ErrNotMessageSender, services.ErrNotBoardMember:
		return http.StatusForbidden
	case services.ErrEmptyMessage, services.ErrMessageTooLong, services.ErrEmptySearch, services.ErrReplyNotInThread:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requireBoardMember resolves the :boardId param and checks that the caller
// belongs to the board. Every board-scoped chat route goes through this.
func (h *MessagingHandler) requireBoardMember(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return uuid.Nil, uuid.Nil, false
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid board ID")
		return uuid.Nil, uuid.Nil, false
	}

	if _, err := h.boardService.RequireBoardMember(c.Request.Context(), boardID, user.ID); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	return boardID, user.ID, true
}

// CreateThread opens a board's chat thread. Idempotent.
func (h *MessagingHandler) CreateThread(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.boardService.RequireBoardMember(c.Request.Context(), req.BoardID, user.ID); err != nil {
		respondError(c, boardErrorStatus(err), err.Error())
		return
	}

	thread, err := h.messagingService.CreateThreadForBoard(c.Request.Context(), req.BoardID)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"thread": thread})
}

// GetThread returns the board's thread with its full message history
func (h *MessagingHandler) GetThread(c *gin.Context) {
	boardID, _, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	thread, messages, err := h.messagingService.GetThreadByBoard(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{
		"thread":   thread,
		"messages": messages,
	})
}

// SendMessage posts a message to the board's chat
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	boardID, userID, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messagingService.SendMessage(c.Request.Context(), boardID, userID, req.Text, req.ReplyToID)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"data": message})
}

// GetMessages returns one ascending page of the board's messages.
// `cursor` takes precedence over `skip` when both are given; deleted
// messages only appear when `includeDeleted=true`, as blank tombstones.
func (h *MessagingHandler) GetMessages(c *gin.Context) {
	boardID, _, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	page := repository.MessagePage{}
	page.Skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	page.Take, _ = strconv.Atoi(c.DefaultQuery("take", "0"))
	page.IncludeDeleted = c.Query("includeDeleted") == "true"
	if raw := c.Query("cursor"); raw != "" {
		cursor, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid cursor")
			return
		}
		page.Cursor = &cursor
	}

	messages, err := h.messagingService.GetMessagesForBoard(c.Request.Context(), boardID, page)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"data": messages})
}

// SearchMessages finds messages by text or sender, newest first
func (h *MessagingHandler) SearchMessages(c *gin.Context) {
	boardID, _, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "0"))

	messages, err := h.messagingService.SearchMessages(c.Request.Context(), boardID, c.Query("q"), skip, take)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"data": messages})
}

// GetBoardUsersForMentions lists mention-autocomplete candidates
func (h *MessagingHandler) GetBoardUsersForMentions(c *gin.Context) {
	boardID, _, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	users, err := h.messagingService.GetBoardUsersForMentions(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"data": users})
}

// EditMessage replaces a message's text. Sender only.
func (h *MessagingHandler) EditMessage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messagingService.EditMessage(c.Request.Context(), messageID, user.ID, req.Text)
	if err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"data": message})
}

// DeleteMessage soft-deletes a message. Sender only.
func (h *MessagingHandler) DeleteMessage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := h.messagingService.DeleteMessage(c.Request.Context(), messageID, user.ID); err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

// MarkMessagesAsRead resets the board thread's unread counter
func (h *MessagingHandler) MarkMessagesAsRead(c *gin.Context) {
	boardID, userID, ok := h.requireBoardMember(c)
	if !ok {
		return
	}

	if err := h.messagingService.MarkMessagesAsRead(c.Request.Context(), boardID, userID); err != nil {
		respondError(c, messagingErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Messages marked as read"})
}

// RegisterRoutes registers the chat routes
func (h *MessagingHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	chats := router.Group("/chats")
	chats.Use(authMiddleware)
	{
		chats.POST("/threads", h.CreateThread)
		chats.GET("/:boardId/thread", h.GetThread)
		chats.POST("/:boardId/messages", h.SendMessage)
		chats.GET("/:boardId/messages", h.GetMessages)
		chats.GET("/:boardId/messages/search", h.SearchMessages)
		chats.GET("/:boardId/users/mentions", h.GetBoardUsersForMentions)
		chats.POST("/:boardId/messages/read", h.MarkMessagesAsRead)
		chats.PUT("/messages/:messageId", h.EditMessage)
		chats.DELETE("/messages/:messageId", h.DeleteMessage)
	}
}
