package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

// NoteRepository defines the interface for note-related database operations
type NoteRepository interface {
	Repository
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID, offset, limit int) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// noteRepository implements the NoteRepository interface
type noteRepository struct {
	*BaseRepository
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *sqlx.DB) NoteRepository {
	return &noteRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new note into the database
func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (id, board_id, author_id, content, color, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		note.ID,
		note.BoardID,
		note.AuthorID,
		note.Content,
		note.Color,
		note.IsPinned,
		note.CreatedAt,
		note.UpdatedAt,
	)

	return err
}

// GetByID retrieves a note by ID
func (r *noteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	var note models.Note
	query := `SELECT * FROM notes WHERE id = $1 AND deleted_at IS NULL`

	err := r.GetDB().GetContext(ctx, &note, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Note not found
		}
		return nil, err
	}

	return &note, nil
}

// ListByBoard retrieves notes on a board, pinned first, newest first
func (r *noteRepository) ListByBoard(ctx context.Context, boardID uuid.UUID, offset, limit int) ([]*models.Note, error) {
	notes := []*models.Note{}
	query := `
		SELECT * FROM notes
		WHERE board_id = $1 AND deleted_at IS NULL
		ORDER BY is_pinned DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.GetDB().SelectContext(ctx, &notes, query, boardID, limit, offset)
	if err != nil {
		return nil, err
	}

	return notes, nil
}

// Update updates an existing note
func (r *noteRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes
		SET content = $1, color = $2, is_pinned = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	note.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, note.Content, note.Color, note.IsPinned, note.UpdatedAt, note.ID)
	return err
}

// Delete soft-deletes a note
func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notes
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	now := time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, now, id)
	return err
}
