package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageThread represents the single chat channel bound to one board.
// There is at most one thread per board, created lazily on the first
// message or eagerly when the board is created.
type MessageThread struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BoardID       uuid.UUID  `json:"boardId" db:"board_id"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
	UnreadCount   int        `json:"unreadCount" db:"unread_count"`
	IsArchived    bool       `json:"isArchived" db:"is_archived"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// NewMessageThread creates a new message thread for the given board
func NewMessageThread(boardID uuid.UUID) *MessageThread {
	now := time.Now()
	return &MessageThread{
		ID:        uuid.New(),
		BoardID:   boardID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
