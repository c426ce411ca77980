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

// ColumnRepository defines the interface for column-related database operations
type ColumnRepository interface {
	Repository
	Create(ctx context.Context, column *models.Column) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error)
	Update(ctx context.Context, column *models.Column) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetPosition(ctx context.Context, id uuid.UUID, position int) error
}

// columnRepository implements the ColumnRepository interface
type columnRepository struct {
	*BaseRepository
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *sqlx.DB) ColumnRepository {
	return &columnRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new column into the database
func (r *columnRepository) Create(ctx context.Context, column *models.Column) error {
	query := `
		INSERT INTO columns (id, board_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		column.ID,
		column.BoardID,
		column.Name,
		column.Position,
		column.CreatedAt,
		column.UpdatedAt,
	)

	return err
}

// GetByID retrieves a column by ID
func (r *columnRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	var column models.Column
	query := `SELECT * FROM columns WHERE id = $1 AND deleted_at IS NULL`

	err := r.GetDB().GetContext(ctx, &column, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Column not found
		}
		return nil, err
	}

	return &column, nil
}

// ListByBoard retrieves all columns on a board ordered by position
func (r *columnRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error) {
	columns := []*models.Column{}
	query := `
		SELECT * FROM columns
		WHERE board_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`

	err := r.GetDB().SelectContext(ctx, &columns, query, boardID)
	if err != nil {
		return nil, err
	}

	return columns, nil
}

// Update updates an existing column
func (r *columnRepository) Update(ctx context.Context, column *models.Column) error {
	query := `
		UPDATE columns
		SET name = $1, position = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`

	column.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, column.Name, column.Position, column.UpdatedAt, column.ID)
	return err
}

// Delete soft-deletes a column
func (r *columnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE columns
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	now := time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, now, id)
	return err
}

// SetPosition updates only the column's position
func (r *columnRepository) SetPosition(ctx context.Context, id uuid.UUID, position int) error {
	query := `
		UPDATE columns
		SET position = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	_, err := r.GetDB().ExecContext(ctx, query, position, time.Now(), id)
	return err
}
