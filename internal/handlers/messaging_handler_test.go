package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

type mockMessagingService struct {
	mock.Mock
}

func (m *mockMessagingService) CreateThreadForBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	args := m.Called(ctx, boardID)
	thread, _ := args.Get(0).(*models.MessageThread)
	return thread, args.Error(1)
}

func (m *mockMessagingService) GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, []*models.MessageWithSender, error) {
	args := m.Called(ctx, boardID)
	thread, _ := args.Get(0).(*models.MessageThread)
	messages, _ := args.Get(1).([]*models.MessageWithSender)
	return thread, messages, args.Error(2)
}

func (m *mockMessagingService) SendMessage(ctx context.Context, boardID, senderID uuid.UUID, text string, replyToID *uuid.UUID) (*models.MessageWithSender, error) {
	args := m.Called(ctx, boardID, senderID, text, replyToID)
	message, _ := args.Get(0).(*models.MessageWithSender)
	return message, args.Error(1)
}

func (m *mockMessagingService) GetMessagesForBoard(ctx context.Context, boardID uuid.UUID, page repository.MessagePage) ([]*models.MessageWithSender, error) {
	args := m.Called(ctx, boardID, page)
	messages, _ := args.Get(0).([]*models.MessageWithSender)
	return messages, args.Error(1)
}

func (m *mockMessagingService) SearchMessages(ctx context.Context, boardID uuid.UUID, query string, skip, take int) ([]*models.MessageWithSender, error) {
	args := m.Called(ctx, boardID, query, skip, take)
	messages, _ := args.Get(0).([]*models.MessageWithSender)
	return messages, args.Error(1)
}

func (m *mockMessagingService) GetBoardUsersForMentions(ctx context.Context, boardID uuid.UUID) ([]*services.MentionCandidate, error) {
	args := m.Called(ctx, boardID)
	candidates, _ := args.Get(0).([]*services.MentionCandidate)
	return candidates, args.Error(1)
}

func (m *mockMessagingService) EditMessage(ctx context.Context, messageID, userID uuid.UUID, text string) (*models.MessageWithSender, error) {
	args := m.Called(ctx, messageID, userID, text)
	message, _ := args.Get(0).(*models.MessageWithSender)
	return message, args.Error(1)
}

func (m *mockMessagingService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

func (m *mockMessagingService) MarkMessagesAsRead(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, userID).Error(0)
}

type mockBoardService struct {
	mock.Mock
}

func (m *mockBoardService) CreateBoard(ctx context.Context, orgID, creatorID uuid.UUID, title, description string) (*models.Board, error) {
	args := m.Called(ctx, orgID, creatorID, title, description)
	board, _ := args.Get(0).(*models.Board)
	return board, args.Error(1)
}

func (m *mockBoardService) GetBoard(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	args := m.Called(ctx, boardID, userID)
	board, _ := args.Get(0).(*models.Board)
	return board, args.Error(1)
}

func (m *mockBoardService) ListBoards(ctx context.Context, orgID, userID uuid.UUID, page, pageSize int) ([]*models.Board, error) {
	args := m.Called(ctx, orgID, userID, page, pageSize)
	boards, _ := args.Get(0).([]*models.Board)
	return boards, args.Error(1)
}

func (m *mockBoardService) UpdateBoard(ctx context.Context, boardID, userID uuid.UUID, title, description string) (*models.Board, error) {
	args := m.Called(ctx, boardID, userID, title, description)
	board, _ := args.Get(0).(*models.Board)
	return board, args.Error(1)
}

func (m *mockBoardService) ArchiveBoard(ctx context.Context, boardID, userID uuid.UUID, archived bool) error {
	return m.Called(ctx, boardID, userID, archived).Error(0)
}

func (m *mockBoardService) DeleteBoard(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, userID).Error(0)
}

func (m *mockBoardService) AddMember(ctx context.Context, boardID, actorID, userID uuid.UUID, role models.BoardRole) error {
	return m.Called(ctx, boardID, actorID, userID, role).Error(0)
}

func (m *mockBoardService) RemoveMember(ctx context.Context, boardID, actorID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, actorID, userID).Error(0)
}

func (m *mockBoardService) ListMembers(ctx context.Context, boardID, userID uuid.UUID) ([]*models.BoardMember, error) {
	args := m.Called(ctx, boardID, userID)
	members, _ := args.Get(0).([]*models.BoardMember)
	return members, args.Error(1)
}

func (m *mockBoardService) RequireBoardMember(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	args := m.Called(ctx, boardID, userID)
	board, _ := args.Get(0).(*models.Board)
	return board, args.Error(1)
}

func setupMessagingRouter(messaging *mockMessagingService, boards *mockBoardService, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authStub := func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	}

	handler := NewMessagingHandler(messaging, boards)
	handler.RegisterRoutes(router.Group("/api/v1"), authStub)
	return router
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSendMessageEndpoint(t *testing.T) {
	user := &models.User{ID: uuid.New(), FirstName: "Test", LastName: "User"}
	boardID := uuid.New()
	board := &models.Board{ID: boardID}

	sent := &models.MessageWithSender{
		Message: *models.NewMessage(uuid.New(), user.ID, "hello", nil, nil),
		Sender:  models.MessageSender{ID: user.ID, FirstName: "Test", LastName: "User"},
	}

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(board, nil)
	messaging.On("SendMessage", mock.Anything, boardID, user.ID, "hello", (*uuid.UUID)(nil)).Return(sent, nil)

	router := setupMessagingRouter(messaging, boards, user)

	payload, _ := json.Marshal(gin.H{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/"+boardID.String()+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := envelope(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["data"])
}

func TestSendMessageRejectsNonMember(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	boardID := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(nil, services.ErrNotBoardMember)

	router := setupMessagingRouter(messaging, boards, user)

	payload, _ := json.Marshal(gin.H{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/"+boardID.String()+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := envelope(t, w)
	assert.Equal(t, false, body["success"])
	messaging.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMessagesParsesCursor(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	boardID := uuid.New()
	cursor := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(&models.Board{ID: boardID}, nil)
	messaging.On("GetMessagesForBoard", mock.Anything, boardID, repository.MessagePage{Take: 10, Cursor: &cursor}).
		Return([]*models.MessageWithSender{}, nil)

	router := setupMessagingRouter(messaging, boards, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+boardID.String()+"/messages?take=10&cursor="+cursor.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	messaging.AssertExpectations(t)
}

func TestGetMessagesParsesIncludeDeleted(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	boardID := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(&models.Board{ID: boardID}, nil)
	messaging.On("GetMessagesForBoard", mock.Anything, boardID, repository.MessagePage{IncludeDeleted: true}).
		Return([]*models.MessageWithSender{}, nil)

	router := setupMessagingRouter(messaging, boards, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+boardID.String()+"/messages?includeDeleted=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	messaging.AssertExpectations(t)
}

func TestEditMessageForbiddenForStranger(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	messageID := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	messaging.On("EditMessage", mock.Anything, messageID, user.ID, "nope").Return(nil, services.ErrNotMessageSender)

	router := setupMessagingRouter(messaging, boards, user)

	payload, _ := json.Marshal(gin.H{"text": "nope"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/chats/messages/"+messageID.String(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchMessagesValidation(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	boardID := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(&models.Board{ID: boardID}, nil)
	messaging.On("SearchMessages", mock.Anything, boardID, "", 0, 0).Return(nil, services.ErrEmptySearch)

	router := setupMessagingRouter(messaging, boards, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+boardID.String()+"/messages/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkMessagesAsReadEndpoint(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	boardID := uuid.New()

	messaging := new(mockMessagingService)
	boards := new(mockBoardService)
	boards.On("RequireBoardMember", mock.Anything, boardID, user.ID).Return(&models.Board{ID: boardID}, nil)
	messaging.On("MarkMessagesAsRead", mock.Anything, boardID, user.ID).Return(nil)

	router := setupMessagingRouter(messaging, boards, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/"+boardID.String()+"/messages/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	messaging.AssertExpectations(t)
}
