package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrNotBoardMember = errors.New("user is not a member of this board")
	ErrNotBoardAdmin  = errors.New("user may not manage this board")
)

// BoardService handles board-related business logic
type BoardService interface {
	CreateBoard(ctx context.Context, orgID, creatorID uuid.UUID, title, description string) (*models.Board, error)
	GetBoard(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error)
	ListBoards(ctx context.Context, orgID, userID uuid.UUID, page, pageSize int) ([]*models.Board, error)
	UpdateBoard(ctx context.Context, boardID, userID uuid.UUID, title, description string) (*models.Board, error)
	ArchiveBoard(ctx context.Context, boardID, userID uuid.UUID, archived bool) error
	DeleteBoard(ctx context.Context, boardID, userID uuid.UUID) error
	AddMember(ctx context.Context, boardID, actorID, userID uuid.UUID, role models.BoardRole) error
	RemoveMember(ctx context.Context, boardID, actorID, userID uuid.UUID) error
	ListMembers(ctx context.Context, boardID, userID uuid.UUID) ([]*models.BoardMember, error)
	RequireBoardMember(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error)
}

type boardService struct {
	boardRepo  repository.BoardRepository
	orgRepo    repository.OrganizationRepository
	threadRepo repository.ThreadRepository
}

// NewBoardService creates a new BoardService
func NewBoardService(
	boardRepo repository.BoardRepository,
	orgRepo repository.OrganizationRepository,
	threadRepo repository.ThreadRepository,
) BoardService {
	return &boardService{
		boardRepo:  boardRepo,
		orgRepo:    orgRepo,
		threadRepo: threadRepo,
	}
}

// CreateBoard creates a board in an organization the creator belongs to.
// The creator becomes a board admin and the board's message thread is
// created eagerly.
func (s *boardService) CreateBoard(ctx context.Context, orgID, creatorID uuid.UUID, title, description string) (*models.Board, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	member, err := s.orgRepo.GetMember(ctx, orgID, creatorID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	board := models.NewBoard(orgID, creatorID, title, description)

	err = s.boardRepo.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.boardRepo.Create(ctx, board); err != nil {
			return err
		}
		return s.boardRepo.AddMember(ctx, board.ID, creatorID, models.BoardRoleAdmin)
	})
	if err != nil {
		return nil, err
	}

	// Thread creation is idempotent; a failure here is recovered by the
	// lazy path on first message.
	if _, err := s.threadRepo.EnsureThread(ctx, board.ID); err != nil {
		log.Printf("eager thread creation for board %s failed: %v", board.ID, err)
	}

	return board, nil
}

// RequireBoardMember returns the board if the user is a member of it
func (s *boardService) RequireBoardMember(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	isMember, err := s.boardRepo.IsMember(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotBoardMember
	}

	return board, nil
}

// requireBoardAdmin returns the board if the user is a board admin
func (s *boardService) requireBoardAdmin(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	board, err := s.RequireBoardMember(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.boardRepo.ListMembers(ctx, boardID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID == userID && m.Role == models.BoardRoleAdmin {
			return board, nil
		}
	}

	return nil, ErrNotBoardAdmin
}

// GetBoard retrieves a board the user is a member of
func (s *boardService) GetBoard(ctx context.Context, boardID, userID uuid.UUID) (*models.Board, error) {
	return s.RequireBoardMember(ctx, boardID, userID)
}

// ListBoards retrieves the boards of an organization the user belongs to
func (s *boardService) ListBoards(ctx context.Context, orgID, userID uuid.UUID, page, pageSize int) ([]*models.Board, error) {
	member, err := s.orgRepo.GetMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	return s.boardRepo.ListByOrganization(ctx, orgID, offset, pageSize)
}

// UpdateBoard updates a board's title and description; board admin only
func (s *boardService) UpdateBoard(ctx context.Context, boardID, userID uuid.UUID, title, description string) (*models.Board, error) {
	board, err := s.requireBoardAdmin(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	board.Update(title, description)
	if err := s.boardRepo.Update(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// ArchiveBoard sets the board's archived flag; board admin only
func (s *boardService) ArchiveBoard(ctx context.Context, boardID, userID uuid.UUID, archived bool) error {
	board, err := s.requireBoardAdmin(ctx, boardID, userID)
	if err != nil {
		return err
	}

	board.IsArchived = archived
	return s.boardRepo.Update(ctx, board)
}

// DeleteBoard soft-deletes a board; board admin only
func (s *boardService) DeleteBoard(ctx context.Context, boardID, userID uuid.UUID) error {
	if _, err := s.requireBoardAdmin(ctx, boardID, userID); err != nil {
		return err
	}

	return s.boardRepo.Delete(ctx, boardID)
}

// AddMember adds an organization member to the board; board admin only
func (s *boardService) AddMember(ctx context.Context, boardID, actorID, userID uuid.UUID, role models.BoardRole) error {
	board, err := s.requireBoardAdmin(ctx, boardID, actorID)
	if err != nil {
		return err
	}

	orgMember, err := s.orgRepo.GetMember(ctx, board.OrganizationID, userID)
	if err != nil {
		return err
	}
	if orgMember == nil {
		return ErrNotMember
	}

	return s.boardRepo.AddMember(ctx, boardID, userID, role)
}

// RemoveMember removes a user from the board; board admin only, or the
// user removing themselves.
func (s *boardService) RemoveMember(ctx context.Context, boardID, actorID, userID uuid.UUID) error {
	if actorID == userID {
		if _, err := s.RequireBoardMember(ctx, boardID, actorID); err != nil {
			return err
		}
	} else if _, err := s.requireBoardAdmin(ctx, boardID, actorID); err != nil {
		return err
	}

	return s.boardRepo.RemoveMember(ctx, boardID, userID)
}

// ListMembers retrieves the board's members with user fields
func (s *boardService) ListMembers(ctx context.Context, boardID, userID uuid.UUID) ([]*models.BoardMember, error) {
	if _, err := s.RequireBoardMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.boardRepo.ListMembers(ctx, boardID)
}
