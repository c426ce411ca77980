package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrColumnNotFound = errors.New("column not found")
)

// ColumnService handles column-related business logic
type ColumnService interface {
	CreateColumn(ctx context.Context, boardID, userID uuid.UUID, name string, position int) (*models.Column, error)
	ListColumns(ctx context.Context, boardID, userID uuid.UUID) ([]*models.Column, error)
	UpdateColumn(ctx context.Context, columnID, userID uuid.UUID, name string) (*models.Column, error)
	MoveColumn(ctx context.Context, columnID, userID uuid.UUID, position int) error
	DeleteColumn(ctx context.Context, columnID, userID uuid.UUID) error
}

type columnService struct {
	columnRepo repository.ColumnRepository
	boardSvc   BoardService
}

// NewColumnService creates a new ColumnService
func NewColumnService(columnRepo repository.ColumnRepository, boardSvc BoardService) ColumnService {
	return &columnService{
		columnRepo: columnRepo,
		boardSvc:   boardSvc,
	}
}

// CreateColumn creates a column on a board the user belongs to
func (s *columnService) CreateColumn(ctx context.Context, boardID, userID uuid.UUID, name string, position int) (*models.Column, error) {
	if _, err := s.boardSvc.RequireBoardMember(ctx, boardID, userID); err != nil {
		return nil, err
	}

	column := models.NewColumn(boardID, name, position)
	if err := s.columnRepo.Create(ctx, column); err != nil {
		return nil, err
	}

	return column, nil
}

// ListColumns retrieves the columns on a board, ordered by position
func (s *columnService) ListColumns(ctx context.Context, boardID, userID uuid.UUID) ([]*models.Column, error) {
	if _, err := s.boardSvc.RequireBoardMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.columnRepo.ListByBoard(ctx, boardID)
}

// getColumnForMember fetches the column and checks board membership
func (s *columnService) getColumnForMember(ctx context.Context, columnID, userID uuid.UUID) (*models.Column, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if column == nil {
		return nil, ErrColumnNotFound
	}

	if _, err := s.boardSvc.RequireBoardMember(ctx, column.BoardID, userID); err != nil {
		return nil, err
	}

	return column, nil
}

// UpdateColumn renames a column
func (s *columnService) UpdateColumn(ctx context.Context, columnID, userID uuid.UUID, name string) (*models.Column, error) {
	column, err := s.getColumnForMember(ctx, columnID, userID)
	if err != nil {
		return nil, err
	}

	column.Rename(name)
	if err := s.columnRepo.Update(ctx, column); err != nil {
		return nil, err
	}

	return column, nil
}

// MoveColumn changes a column's position on the board
func (s *columnService) MoveColumn(ctx context.Context, columnID, userID uuid.UUID, position int) error {
	if _, err := s.getColumnForMember(ctx, columnID, userID); err != nil {
		return err
	}
	return s.columnRepo.SetPosition(ctx, columnID, position)
}

// DeleteColumn soft-deletes a column
func (s *columnService) DeleteColumn(ctx context.Context, columnID, userID uuid.UUID) error {
	if _, err := s.getColumnForMember(ctx, columnID, userID); err != nil {
		return err
	}
	return s.columnRepo.Delete(ctx, columnID)
}
