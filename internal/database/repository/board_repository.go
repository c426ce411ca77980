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

// BoardRepository defines the interface for board-related database operations
type BoardRepository interface {
	Repository
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]*models.Board, error)
	Update(ctx context.Context, board *models.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, boardID, userID uuid.UUID, role models.BoardRole) error
	RemoveMember(ctx context.Context, boardID, userID uuid.UUID) error
	IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, boardID uuid.UUID) ([]*models.BoardMember, error)
}

// boardRepository implements the BoardRepository interface
type boardRepository struct {
	*BaseRepository
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *sqlx.DB) BoardRepository {
	return &boardRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new board into the database
func (r *boardRepository) Create(ctx context.Context, board *models.Board) error {
	query := `
		INSERT INTO boards (id, organization_id, title, description, created_by, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		board.ID,
		board.OrganizationID,
		board.Title,
		board.Description,
		board.CreatedBy,
		board.IsArchived,
		board.CreatedAt,
		board.UpdatedAt,
	)

	return err
}

// GetByID retrieves a board by ID
func (r *boardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	var board models.Board
	query := `SELECT * FROM boards WHERE id = $1 AND deleted_at IS NULL`

	err := r.GetDB().GetContext(ctx, &board, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Board not found
		}
		return nil, err
	}

	return &board, nil
}

// ListByOrganization retrieves boards in an organization with pagination
func (r *boardRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]*models.Board, error) {
	boards := []*models.Board{}
	query := `
		SELECT * FROM boards
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	err := r.GetDB().SelectContext(ctx, &boards, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}

	return boards, nil
}

// Update updates an existing board
func (r *boardRepository) Update(ctx context.Context, board *models.Board) error {
	query := `
		UPDATE boards
		SET title = $1, description = $2, is_archived = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	board.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		board.Title,
		board.Description,
		board.IsArchived,
		board.UpdatedAt,
		board.ID,
	)

	return err
}

// Delete soft-deletes a board
func (r *boardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE boards
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	now := time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, now, id)
	return err
}

// AddMember adds a user to a board, updating the role if already a member
func (r *boardRepository) AddMember(ctx context.Context, boardID, userID uuid.UUID, role models.BoardRole) error {
	query := `
		INSERT INTO board_members (board_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`

	_, err := r.GetDB().ExecContext(ctx, query, boardID, userID, role, time.Now())
	return err
}

// RemoveMember removes a user from a board
func (r *boardRepository) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) error {
	query := `DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`

	_, err := r.GetDB().ExecContext(ctx, query, boardID, userID)
	return err
}

// IsMember reports whether the user belongs to the board
func (r *boardRepository) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM board_members WHERE board_id = $1 AND user_id = $2`

	err := r.GetDB().GetContext(ctx, &count, query, boardID, userID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ListMembers retrieves all board members joined with their user fields.
// The ordering is deterministic so that mention resolution is stable when
// two members share a display name.
func (r *boardRepository) ListMembers(ctx context.Context, boardID uuid.UUID) ([]*models.BoardMember, error) {
	members := []*models.BoardMember{}
	query := `
		SELECT m.board_id, m.user_id, m.role, m.joined_at,
		       u.first_name, u.last_name, u.email, u.avatar
		FROM board_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.board_id = $1 AND u.deleted_at IS NULL
		ORDER BY m.joined_at ASC, m.user_id ASC
	`

	err := r.GetDB().SelectContext(ctx, &members, query, boardID)
	if err != nil {
		return nil, err
	}

	return members, nil
}
