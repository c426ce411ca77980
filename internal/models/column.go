package models

import (
	"time"

	"github.com/google/uuid"
)

// Column represents a vertical lane on a board (e.g. "To Do", "Done")
type Column struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BoardID   uuid.UUID  `json:"boardId" db:"board_id"`
	Name      string     `json:"name" db:"name"`
	Position  int        `json:"position" db:"position"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// NewColumn creates a new column on the given board
func NewColumn(boardID uuid.UUID, name string, position int) *Column {
	now := time.Now()
	return &Column{
		ID:        uuid.New(),
		BoardID:   boardID,
		Name:      name,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rename updates the column's name
func (c *Column) Rename(name string) {
	c.Name = name
	c.UpdatedAt = time.Now()
}
