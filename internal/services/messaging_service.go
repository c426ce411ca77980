package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/realtime"
)

// Common messaging service errors
var (
	ErrThreadNotFound   = errors.New("message thread not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageSender = errors.New("only the sender can modify a message")
	ErrEmptyMessage     = errors.New("message text cannot be empty")
	ErrMessageTooLong   = errors.New("message text is too long")
	ErrEmptySearch      = errors.New("search query cannot be empty")
	ErrReplyNotInThread = errors.New("reply target does not belong to this thread")
)

// MentionCandidate is one board member offered by the mentions autocomplete
type MentionCandidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Avatar      *string   `json:"avatar,omitempty"`
	MentionText string    `json:"mentionText"`
}

// ReadReceipt identifies which user marked a board's messages as read
type ReadReceipt struct {
	BoardID uuid.UUID `json:"boardId"`
	UserID  uuid.UUID `json:"userId"`
}

// MessagingService orchestrates board chat: thread lifecycle, message CRUD,
// pagination, search and read-state. Every write persists first, then
// publishes the matching event to the board's room.
type MessagingService interface {
	CreateThreadForBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error)
	GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, []*models.MessageWithSender, error)
	SendMessage(ctx context.Context, boardID, senderID uuid.UUID, text string, replyToID *uuid.UUID) (*models.MessageWithSender, error)
	GetMessagesForBoard(ctx context.Context, boardID uuid.UUID, page repository.MessagePage) ([]*models.MessageWithSender, error)
	SearchMessages(ctx context.Context, boardID uuid.UUID, query string, skip, take int) ([]*models.MessageWithSender, error)
	GetBoardUsersForMentions(ctx context.Context, boardID uuid.UUID) ([]*MentionCandidate, error)
	EditMessage(ctx context.Context, messageID, userID uuid.UUID, text string) (*models.MessageWithSender, error)
	DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error
	MarkMessagesAsRead(ctx context.Context, boardID, userID uuid.UUID) error
}

// messagingService implements the MessagingService interface
type messagingService struct {
	threadRepo repository.ThreadRepository
	boardRepo  repository.BoardRepository
	userRepo   repository.UserRepository
	resolver   MentionResolver
	broker     realtime.RoomBroker
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(
	threadRepo repository.ThreadRepository,
	boardRepo repository.BoardRepository,
	userRepo repository.UserRepository,
	resolver MentionResolver,
	broker realtime.RoomBroker,
) MessagingService {
	return &messagingService{
		threadRepo: threadRepo,
		boardRepo:  boardRepo,
		userRepo:   userRepo,
		resolver:   resolver,
		broker:     broker,
	}
}

// CreateThreadForBoard returns the board's thread, creating it if absent.
// Idempotent: calling it for a board that already has a thread returns the
// existing one.
func (s *messagingService) CreateThreadForBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	thread, err := s.threadRepo.EnsureThread(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure thread: %w", err)
	}
	return thread, nil
}

// GetThreadByBoard returns the thread plus its entire ascending message
// history, unpaged; deleted messages stay in place as blank tombstones
func (s *messagingService) GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, []*models.MessageWithSender, error) {
	thread, err := s.threadRepo.GetThreadByBoard(ctx, boardID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return nil, nil, ErrThreadNotFound
	}

	messages, err := s.threadRepo.ListAllMessages(ctx, thread.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return thread, messages, nil
}

// SendMessage persists a new message and broadcasts it to the board's room.
// The thread is created on first use. Mentions are resolved against board
// membership; a reply target must be a message in the same thread.
func (s *messagingService) SendMessage(ctx context.Context, boardID, senderID uuid.UUID, text string, replyToID *uuid.UUID) (*models.MessageWithSender, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	thread, err := s.threadRepo.EnsureThread(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure thread: %w", err)
	}

	if replyToID != nil {
		target, err := s.threadRepo.GetMessageByID(ctx, *replyToID)
		if err != nil {
			return nil, fmt.Errorf("failed to get reply target: %w", err)
		}
		if target == nil {
			return nil, ErrMessageNotFound
		}
		if target.ThreadID != thread.ID {
			return nil, ErrReplyNotInThread
		}
	}

	mentioned, err := s.resolver.Resolve(ctx, boardID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mentions: %w", err)
	}

	message := models.NewMessage(thread.ID, senderID, text, replyToID, mentioned)
	if err := s.threadRepo.AppendMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	withSender, err := s.attachSender(ctx, message)
	if err != nil {
		return nil, err
	}

	s.publish(realtime.BoardRoom(boardID), realtime.EventNewMessage, withSender)
	return withSender, nil
}

// GetMessagesForBoard returns one ascending page of the board's messages
func (s *messagingService) GetMessagesForBoard(ctx context.Context, boardID uuid.UUID, page repository.MessagePage) ([]*models.MessageWithSender, error) {
	thread, err := s.threadRepo.GetThreadByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}

	messages, err := s.threadRepo.ListMessages(ctx, thread.ID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SearchMessages finds non-deleted messages matching the query by text or
// sender identity, newest first
func (s *messagingService) SearchMessages(ctx context.Context, boardID uuid.UUID, query string, skip, take int) ([]*models.MessageWithSender, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearch
	}

	thread, err := s.threadRepo.GetThreadByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}

	if take <= 0 {
		take = repository.DefaultMessagePageSize
	}
	if take > repository.MaxMessagePageSize {
		take = repository.MaxMessagePageSize
	}
	if skip < 0 {
		skip = 0
	}

	messages, err := s.threadRepo.SearchMessages(ctx, thread.ID, query, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return messages, nil
}

// GetBoardUsersForMentions lists the board's members in the shape the
// mentions autocomplete consumes
func (s *messagingService) GetBoardUsersForMentions(ctx context.Context, boardID uuid.UUID) ([]*MentionCandidate, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	members, err := s.boardRepo.ListMembers(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}

	candidates := make([]*MentionCandidate, 0, len(members))
	for _, m := range members {
		candidates = append(candidates, &MentionCandidate{
			ID:          m.UserID,
			Name:        m.FullName(),
			Email:       m.Email,
			Avatar:      m.Avatar,
			MentionText: m.MentionText(),
		})
	}
	return candidates, nil
}

// EditMessage replaces a message's text, re-resolves its mentions, and
// broadcasts messageEdited. Only the original sender may edit.
func (s *messagingService) EditMessage(ctx context.Context, messageID, userID uuid.UUID, text string) (*models.MessageWithSender, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	message, thread, err := s.getOwnMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	mentioned, err := s.resolver.Resolve(ctx, thread.BoardID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mentions: %w", err)
	}

	message.Edit(text, mentioned)
	if err := s.threadRepo.UpdateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	withSender, err := s.attachSender(ctx, message)
	if err != nil {
		return nil, err
	}

	s.publish(realtime.BoardRoom(thread.BoardID), realtime.EventMessageEdited, withSender)
	return withSender, nil
}

// DeleteMessage soft-deletes a message and broadcasts messageDeleted. The
// row stays behind as a tombstone in plain listings.
func (s *messagingService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	message, thread, err := s.getOwnMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}

	if err := s.threadRepo.SoftDeleteMessage(ctx, message.ID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.publish(realtime.BoardRoom(thread.BoardID), realtime.EventMessageDeleted, map[string]interface{}{
		"id":       message.ID,
		"threadId": message.ThreadID,
		"boardId":  thread.BoardID,
	})
	return nil
}

// MarkMessagesAsRead zeroes the thread's unread counter and tells the room
// which user caught up, so peers can render read receipts
func (s *messagingService) MarkMessagesAsRead(ctx context.Context, boardID, userID uuid.UUID) error {
	thread, err := s.threadRepo.GetThreadByBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return ErrThreadNotFound
	}

	if err := s.threadRepo.ResetUnread(ctx, thread.ID); err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}

	s.publish(realtime.BoardRoom(boardID), realtime.EventMessagesMarkedAsRead, ReadReceipt{
		BoardID: boardID,
		UserID:  userID,
	})
	return nil
}

// getOwnMessage loads a live message and its thread, enforcing that userID
// is the sender. Soft-deleted messages are treated as missing.
func (s *messagingService) getOwnMessage(ctx context.Context, messageID, userID uuid.UUID) (*models.Message, *models.MessageThread, error) {
	message, err := s.threadRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get message: %w", err)
	}
	if message == nil || message.IsDeleted {
		return nil, nil, ErrMessageNotFound
	}
	if message.SenderID != userID {
		return nil, nil, ErrNotMessageSender
	}

	thread, err := s.threadRepo.GetThreadByID(ctx, message.ThreadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return nil, nil, ErrThreadNotFound
	}
	return message, thread, nil
}

// attachSender builds the detail read-model for a freshly written message
func (s *messagingService) attachSender(ctx context.Context, message *models.Message) (*models.MessageWithSender, error) {
	sender, err := s.userRepo.GetByID(ctx, message.SenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	return &models.MessageWithSender{
		Message: *message,
		Sender: models.MessageSender{
			ID:        sender.ID,
			FirstName: sender.FirstName,
			LastName:  sender.LastName,
			Email:     sender.Email,
			Avatar:    sender.Avatar,
		},
	}, nil
}

// publish sends an event to a room. Broadcast failures are logged and never
// fail the originating request; the write is already durable.
func (s *messagingService) publish(room, event string, payload interface{}) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(room, event, payload); err != nil {
		log.Printf("Failed to publish %s to %s: %v", event, room, err)
	}
}
