package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/realtime"
)

type stubResolver struct {
	ids []uuid.UUID
}

func (s stubResolver) Resolve(ctx context.Context, boardID uuid.UUID, text string) ([]uuid.UUID, error) {
	return s.ids, nil
}

type messagingFixture struct {
	threadRepo *mockThreadRepository
	boardRepo  *mockBoardRepository
	userRepo   *mockUserRepository
	broker     *recordingBroker
	service    MessagingService
}

func newMessagingFixture(resolver MentionResolver) *messagingFixture {
	f := &messagingFixture{
		threadRepo: new(mockThreadRepository),
		boardRepo:  new(mockBoardRepository),
		userRepo:   new(mockUserRepository),
		broker:     &recordingBroker{},
	}
	if resolver == nil {
		resolver = stubResolver{}
	}
	f.service = NewMessagingService(f.threadRepo, f.boardRepo, f.userRepo, resolver, f.broker)
	return f
}

func testSender(id uuid.UUID) *models.User {
	return &models.User{
		ID:        id,
		Email:     "sender@example.com",
		FirstName: "Test",
		LastName:  "Sender",
	}
}

func TestSendMessagePersistsThenPublishes(t *testing.T) {
	boardID := uuid.New()
	senderID := uuid.New()
	thread := models.NewMessageThread(boardID)

	f := newMessagingFixture(nil)
	f.threadRepo.On("EnsureThread", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, senderID).Return(testSender(senderID), nil)

	message, err := f.service.SendMessage(context.Background(), boardID, senderID, "hello board", nil)
	assert.NoError(t, err)
	assert.Equal(t, "hello board", message.Text)
	assert.Equal(t, thread.ID, message.ThreadID)
	assert.Equal(t, senderID, message.Sender.ID)

	if assert.Len(t, f.broker.events, 1) {
		assert.Equal(t, realtime.BoardRoom(boardID), f.broker.events[0].Room)
		assert.Equal(t, realtime.EventNewMessage, f.broker.events[0].Event)
	}
	f.threadRepo.AssertExpectations(t)
}

func TestSendMessageResolvesMentions(t *testing.T) {
	boardID := uuid.New()
	senderID := uuid.New()
	mentioned := uuid.New()
	thread := models.NewMessageThread(boardID)

	f := newMessagingFixture(stubResolver{ids: []uuid.UUID{mentioned}})
	f.threadRepo.On("EnsureThread", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, senderID).Return(testSender(senderID), nil)

	message, err := f.service.SendMessage(context.Background(), boardID, senderID, "hi @someone", nil)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mentioned}, message.MentionedUserIDs())
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	f := newMessagingFixture(nil)

	_, err := f.service.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, f.broker.events)
	f.threadRepo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything)
}

func TestSendMessageRejectsCrossThreadReply(t *testing.T) {
	boardID := uuid.New()
	thread := models.NewMessageThread(boardID)
	otherThread := uuid.New()
	replyTo := models.NewMessage(otherThread, uuid.New(), "earlier", nil, nil)

	f := newMessagingFixture(nil)
	f.threadRepo.On("EnsureThread", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, replyTo.ID).Return(replyTo, nil)

	_, err := f.service.SendMessage(context.Background(), boardID, uuid.New(), "reply", &replyTo.ID)
	assert.ErrorIs(t, err, ErrReplyNotInThread)
	assert.Empty(t, f.broker.events)
}

func TestSendMessageRejectsMissingReplyTarget(t *testing.T) {
	boardID := uuid.New()
	thread := models.NewMessageThread(boardID)
	missing := uuid.New()

	f := newMessagingFixture(nil)
	f.threadRepo.On("EnsureThread", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, missing).Return(nil, nil)

	_, err := f.service.SendMessage(context.Background(), boardID, uuid.New(), "reply", &missing)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestEditMessageRequiresSender(t *testing.T) {
	senderID := uuid.New()
	stranger := uuid.New()
	message := models.NewMessage(uuid.New(), senderID, "original", nil, nil)

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, message.ID).Return(message, nil)

	_, err := f.service.EditMessage(context.Background(), message.ID, stranger, "hijacked")
	assert.ErrorIs(t, err, ErrNotMessageSender)
	assert.Empty(t, f.broker.events)
}

func TestEditMessagePublishesMessageEdited(t *testing.T) {
	boardID := uuid.New()
	senderID := uuid.New()
	thread := models.NewMessageThread(boardID)
	message := models.NewMessage(thread.ID, senderID, "original", nil, nil)

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, message.ID).Return(message, nil)
	f.threadRepo.On("GetThreadByID", mock.Anything, thread.ID).Return(thread, nil)
	f.threadRepo.On("UpdateMessage", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, senderID).Return(testSender(senderID), nil)

	edited, err := f.service.EditMessage(context.Background(), message.ID, senderID, "fixed")
	assert.NoError(t, err)
	assert.Equal(t, "fixed", edited.Text)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	if assert.Len(t, f.broker.events, 1) {
		assert.Equal(t, realtime.BoardRoom(boardID), f.broker.events[0].Room)
		assert.Equal(t, realtime.EventMessageEdited, f.broker.events[0].Event)
	}
}

func TestEditDeletedMessageIsNotFound(t *testing.T) {
	senderID := uuid.New()
	message := models.NewMessage(uuid.New(), senderID, "gone", nil, nil)
	message.SoftDelete()

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, message.ID).Return(message, nil)

	_, err := f.service.EditMessage(context.Background(), message.ID, senderID, "resurrect")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestDeleteMessagePublishesMessageDeleted(t *testing.T) {
	boardID := uuid.New()
	senderID := uuid.New()
	thread := models.NewMessageThread(boardID)
	message := models.NewMessage(thread.ID, senderID, "to delete", nil, nil)

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetMessageByID", mock.Anything, message.ID).Return(message, nil)
	f.threadRepo.On("GetThreadByID", mock.Anything, thread.ID).Return(thread, nil)
	f.threadRepo.On("SoftDeleteMessage", mock.Anything, message.ID).Return(nil)

	err := f.service.DeleteMessage(context.Background(), message.ID, senderID)
	assert.NoError(t, err)

	if assert.Len(t, f.broker.events, 1) {
		assert.Equal(t, realtime.EventMessageDeleted, f.broker.events[0].Event)
	}
	f.threadRepo.AssertExpectations(t)
}

func TestMarkMessagesAsReadResetsAndPublishes(t *testing.T) {
	boardID := uuid.New()
	userID := uuid.New()
	thread := models.NewMessageThread(boardID)

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("ResetUnread", mock.Anything, thread.ID).Return(nil)

	err := f.service.MarkMessagesAsRead(context.Background(), boardID, userID)
	assert.NoError(t, err)

	if assert.Len(t, f.broker.events, 1) {
		assert.Equal(t, realtime.EventMessagesMarkedAsRead, f.broker.events[0].Event)
		receipt, ok := f.broker.events[0].Payload.(ReadReceipt)
		if assert.True(t, ok) {
			assert.Equal(t, userID, receipt.UserID)
			assert.Equal(t, boardID, receipt.BoardID)
		}
	}
}

func TestMarkMessagesAsReadWithoutThread(t *testing.T) {
	boardID := uuid.New()

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(nil, nil)

	err := f.service.MarkMessagesAsRead(context.Background(), boardID, uuid.New())
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.Empty(t, f.broker.events)
}

func TestGetThreadByBoardReturnsFullHistory(t *testing.T) {
	boardID := uuid.New()
	thread := models.NewMessageThread(boardID)

	history := make([]*models.MessageWithSender, 0, 250)
	for i := 0; i < 250; i++ {
		history = append(history, &models.MessageWithSender{
			Message: models.Message{ID: uuid.New(), ThreadID: thread.ID},
		})
	}

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("ListAllMessages", mock.Anything, thread.ID).Return(history, nil)

	got, messages, err := f.service.GetThreadByBoard(context.Background(), boardID)
	assert.NoError(t, err)
	assert.Equal(t, thread.ID, got.ID)
	assert.Len(t, messages, 250)
	f.threadRepo.AssertExpectations(t)
}

func TestGetMessagesForBoardWithoutThread(t *testing.T) {
	boardID := uuid.New()

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(nil, nil)

	_, err := f.service.GetMessagesForBoard(context.Background(), boardID, repository.MessagePage{})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestGetMessagesForBoardPassesDeletedVisibility(t *testing.T) {
	boardID := uuid.New()
	thread := models.NewMessageThread(boardID)
	page := repository.MessagePage{Take: 20, IncludeDeleted: true}

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("ListMessages", mock.Anything, thread.ID, page).
		Return([]*models.MessageWithSender{}, nil)

	_, err := f.service.GetMessagesForBoard(context.Background(), boardID, page)
	assert.NoError(t, err)
	f.threadRepo.AssertExpectations(t)
}

func TestSearchMessagesRejectsEmptyQuery(t *testing.T) {
	f := newMessagingFixture(nil)

	_, err := f.service.SearchMessages(context.Background(), uuid.New(), "  ", 0, 20)
	assert.ErrorIs(t, err, ErrEmptySearch)
}

func TestSearchMessagesClampsPageSize(t *testing.T) {
	boardID := uuid.New()
	thread := models.NewMessageThread(boardID)

	f := newMessagingFixture(nil)
	f.threadRepo.On("GetThreadByBoard", mock.Anything, boardID).Return(thread, nil)
	f.threadRepo.On("SearchMessages", mock.Anything, thread.ID, "deploy", 0, repository.MaxMessagePageSize).
		Return([]*models.MessageWithSender{}, nil)

	_, err := f.service.SearchMessages(context.Background(), boardID, "deploy", 0, 10000)
	assert.NoError(t, err)
	f.threadRepo.AssertExpectations(t)
}

func TestGetBoardUsersForMentions(t *testing.T) {
	boardID := uuid.New()
	alice := uuid.New()
	board := models.NewBoard(uuid.New(), uuid.New(), "Roadmap", "")
	board.ID = boardID

	f := newMessagingFixture(nil)
	f.boardRepo.On("GetByID", mock.Anything, boardID).Return(board, nil)
	f.boardRepo.On("ListMembers", mock.Anything, boardID).Return([]*models.BoardMember{
		member(alice, "Alice", "Smith", "alice@example.com"),
	}, nil)

	candidates, err := f.service.GetBoardUsersForMentions(context.Background(), boardID)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 1) {
		assert.Equal(t, alice, candidates[0].ID)
		assert.Equal(t, "Alice Smith", candidates[0].Name)
		assert.Equal(t, "alice_smith", candidates[0].MentionText)
	}
}
