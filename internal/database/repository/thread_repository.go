package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

// DefaultMessagePageSize is the page size used when the caller does not ask
// for one; MaxMessagePageSize caps what a caller may ask for.
const (
	DefaultMessagePageSize = 20
	MaxMessagePageSize     = 100
)

// MessagePage describes message pagination. When Cursor is set it wins over
// Skip: the page starts immediately after the cursor row (the cursor row
// itself is excluded). An unknown cursor yields an empty page. Soft-deleted
// rows are left out unless IncludeDeleted is set, and even then their text
// is redacted to an empty tombstone.
type MessagePage struct {
	Skip           int
	Take           int
	Cursor         *uuid.UUID
	IncludeDeleted bool
}

func (p MessagePage) take() int {
	if p.Take <= 0 {
		return DefaultMessagePageSize
	}
	if p.Take > MaxMessagePageSize {
		return MaxMessagePageSize
	}
	return p.Take
}

// ThreadRepository owns MessageThread and Message persistence. It carries no
// broadcast logic; callers publish realtime events after these calls commit.
type ThreadRepository interface {
	Repository
	EnsureThread(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error)
	GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error)
	GetThreadByID(ctx context.Context, id uuid.UUID) (*models.MessageThread, error)
	AppendMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, threadID uuid.UUID, page MessagePage) ([]*models.MessageWithSender, error)
	ListAllMessages(ctx context.Context, threadID uuid.UUID) ([]*models.MessageWithSender, error)
	SearchMessages(ctx context.Context, threadID uuid.UUID, query string, offset, limit int) ([]*models.MessageWithSender, error)
	UpdateMessage(ctx context.Context, message *models.Message) error
	SoftDeleteMessage(ctx context.Context, id uuid.UUID) error
	ResetUnread(ctx context.Context, threadID uuid.UUID) error
}

// threadRepository implements the ThreadRepository interface
type threadRepository struct {
	*BaseRepository
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *sqlx.DB) ThreadRepository {
	return &threadRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// messageSenderColumns joins the sender projection onto message rows.
// Deleted rows come back as tombstones: the row shape survives but the
// text is blanked so removed content never reaches a client.
const messageSenderColumns = `
	m.id, m.thread_id, m.sender_id,
	CASE WHEN m.is_deleted THEN '' ELSE m.text END AS text,
	m.message_type, m.mentioned_users, m.reply_to_id,
	m.is_edited, m.edited_at, m.is_deleted, m.deleted_at, m.created_at,
	u.id AS "sender.id",
	u.first_name AS "sender.first_name",
	u.last_name AS "sender.last_name",
	u.email AS "sender.email",
	u.avatar AS "sender.avatar"
`

// EnsureThread returns the board's thread, creating it if absent. The unique
// constraint on board_id makes this safe under concurrent calls: a lost
// insert race falls through to re-reading the winner's row.
func (r *threadRepository) EnsureThread(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	thread := models.NewMessageThread(boardID)
	insert := `
		INSERT INTO message_threads (id, board_id, unread_count, is_archived, created_at, updated_at)
		VALUES ($1, $2, 0, FALSE, $3, $4)
		ON CONFLICT (board_id) DO NOTHING
	`

	_, err := r.GetDB().ExecContext(ctx, insert, thread.ID, thread.BoardID, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		return nil, err
	}

	existing, err := r.GetThreadByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("thread for board %s missing after ensure", boardID)
	}

	return existing, nil
}

// GetThreadByBoard retrieves the thread for a board
func (r *threadRepository) GetThreadByBoard(ctx context.Context, boardID uuid.UUID) (*models.MessageThread, error) {
	var thread models.MessageThread
	query := `SELECT * FROM message_threads WHERE board_id = $1`

	err := r.GetDB().GetContext(ctx, &thread, query, boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Thread not found
		}
		return nil, err
	}

	return &thread, nil
}

// GetThreadByID retrieves a thread by its own id
func (r *threadRepository) GetThreadByID(ctx context.Context, id uuid.UUID) (*models.MessageThread, error) {
	var thread models.MessageThread
	query := `SELECT * FROM message_threads WHERE id = $1`

	err := r.GetDB().GetContext(ctx, &thread, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Thread not found
		}
		return nil, err
	}

	return &thread, nil
}

// AppendMessage inserts the message row, then bumps the thread's
// last_message_at and unread counter. The metadata update is best-effort:
// the message row is already durable, so a failed counter update is logged
// and does not fail the send.
func (r *threadRepository) AppendMessage(ctx context.Context, message *models.Message) error {
	insert := `
		INSERT INTO messages (id, thread_id, sender_id, text, message_type, mentioned_users,
		                      reply_to_id, is_edited, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE, $8)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		insert,
		message.ID,
		message.ThreadID,
		message.SenderID,
		message.Text,
		message.MessageType,
		message.MentionedUsers,
		message.ReplyToID,
		message.CreatedAt,
	)
	if err != nil {
		return err
	}

	meta := `
		UPDATE message_threads
		SET last_message_at = $1, unread_count = unread_count + 1, updated_at = $1
		WHERE id = $2
	`
	if _, err := r.GetDB().ExecContext(ctx, meta, message.CreatedAt, message.ThreadID); err != nil {
		log.Printf("thread %s metadata update failed after message %s: %v", message.ThreadID, message.ID, err)
	}

	return nil
}

// GetMessageByID retrieves a message by ID, including soft-deleted rows.
// Callers decide whether a deleted row is visible for their purpose.
func (r *threadRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	query := `SELECT * FROM messages WHERE id = $1`

	err := r.GetDB().GetContext(ctx, &message, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Message not found
		}
		return nil, err
	}

	return &message, nil
}

// ListMessages retrieves messages in a thread ascending by (created_at, id),
// with sender fields joined. Soft-deleted rows are skipped unless the page
// opts in; opted-in tombstones carry empty text.
func (r *threadRepository) ListMessages(ctx context.Context, threadID uuid.UUID, page MessagePage) ([]*models.MessageWithSender, error) {
	messages := []*models.MessageWithSender{}

	deletedFilter := "AND m.is_deleted = FALSE"
	if page.IncludeDeleted {
		deletedFilter = ""
	}

	if page.Cursor != nil {
		query := fmt.Sprintf(`
			SELECT %s
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.thread_id = $1
			  %s
			  AND (m.created_at, m.id) > (
			        SELECT c.created_at, c.id FROM messages c
			        WHERE c.id = $2 AND c.thread_id = $1
			      )
			ORDER BY m.created_at ASC, m.id ASC
			LIMIT $3
		`, messageSenderColumns, deletedFilter)

		err := r.GetDB().SelectContext(ctx, &messages, query, threadID, *page.Cursor, page.take())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return []*models.MessageWithSender{}, nil
			}
			return nil, err
		}
		return messages, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id = $1
		  %s
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $2 OFFSET $3
	`, messageSenderColumns, deletedFilter)

	err := r.GetDB().SelectContext(ctx, &messages, query, threadID, page.take(), page.Skip)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// ListAllMessages returns the thread's entire history ascending, with no
// page bound. Tombstones stay in place so replies keep their targets, but
// their text is already blanked by the projection.
func (r *threadRepository) ListAllMessages(ctx context.Context, threadID uuid.UUID) ([]*models.MessageWithSender, error) {
	messages := []*models.MessageWithSender{}
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`, messageSenderColumns)

	err := r.GetDB().SelectContext(ctx, &messages, query, threadID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// SearchMessages retrieves messages whose text or sender name/email matches
// the query, case-insensitively, newest first. Deleted messages are excluded.
func (r *threadRepository) SearchMessages(ctx context.Context, threadID uuid.UUID, search string, offset, limit int) ([]*models.MessageWithSender, error) {
	messages := []*models.MessageWithSender{}
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id = $1
		  AND m.is_deleted = FALSE
		  AND (m.text ILIKE $2
		       OR u.first_name ILIKE $2
		       OR u.last_name ILIKE $2
		       OR u.email ILIKE $2)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3 OFFSET $4
	`, messageSenderColumns)

	err := r.GetDB().SelectContext(ctx, &messages, query, threadID, "%"+search+"%", limit, offset)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// UpdateMessage writes back an edited message's text, mention set and edit
// stamps
func (r *threadRepository) UpdateMessage(ctx context.Context, message *models.Message) error {
	query := `
		UPDATE messages
		SET text = $1, mentioned_users = $2, is_edited = $3, edited_at = $4
		WHERE id = $5 AND is_deleted = FALSE
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		message.Text,
		message.MentionedUsers,
		message.IsEdited,
		message.EditedAt,
		message.ID,
	)

	return err
}

// SoftDeleteMessage marks a message deleted without removing the row
func (r *threadRepository) SoftDeleteMessage(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE messages
		SET is_deleted = TRUE, deleted_at = $1
		WHERE id = $2 AND is_deleted = FALSE
	`

	_, err := r.GetDB().ExecContext(ctx, query, time.Now(), id)
	return err
}

// ResetUnread zeroes the thread's unread counter. Resetting an already-zero
// counter is a no-op, not an error.
func (r *threadRepository) ResetUnread(ctx context.Context, threadID uuid.UUID) error {
	query := `
		UPDATE message_threads
		SET unread_count = 0, updated_at = $1
		WHERE id = $2
	`

	_, err := r.GetDB().ExecContext(ctx, query, time.Now(), threadID)
	return err
}
