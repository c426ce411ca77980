package models

import (
	"time"

	"github.com/google/uuid"
)

// Note represents a free-form sticky note attached to a board
type Note struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BoardID   uuid.UUID  `json:"boardId" db:"board_id"`
	AuthorID  uuid.UUID  `json:"authorId" db:"author_id"`
	Content   string     `json:"content" db:"content"`
	Color     string     `json:"color" db:"color"`
	IsPinned  bool       `json:"isPinned" db:"is_pinned"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// NewNote creates a new note on the given board
func NewNote(boardID, authorID uuid.UUID, content, color string) *Note {
	now := time.Now()
	return &Note{
		ID:        uuid.New(),
		BoardID:   boardID,
		AuthorID:  authorID,
		Content:   content,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
