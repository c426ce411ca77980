package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrNoteNotFound   = errors.New("note not found")
	ErrNotNoteAuthor  = errors.New("user is not the note's author")
	ErrInvalidContent = errors.New("note content is required")
)

// MaxNoteLength bounds note content, in runes
const MaxNoteLength = 10000

// NoteService handles note-related business logic
type NoteService interface {
	CreateNote(ctx context.Context, boardID, authorID uuid.UUID, content, color string) (*models.Note, error)
	ListNotes(ctx context.Context, boardID, userID uuid.UUID, page, pageSize int) ([]*models.Note, error)
	UpdateNote(ctx context.Context, noteID, userID uuid.UUID, content, color string, pinned bool) (*models.Note, error)
	DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error
}

type noteService struct {
	noteRepo repository.NoteRepository
	boardSvc BoardService
}

// NewNoteService creates a new NoteService
func NewNoteService(noteRepo repository.NoteRepository, boardSvc BoardService) NoteService {
	return &noteService{
		noteRepo: noteRepo,
		boardSvc: boardSvc,
	}
}

// CreateNote creates a note on a board the author belongs to
func (s *noteService) CreateNote(ctx context.Context, boardID, authorID uuid.UUID, content, color string) (*models.Note, error) {
	if content == "" || len([]rune(content)) > MaxNoteLength {
		return nil, ErrInvalidContent
	}

	if _, err := s.boardSvc.RequireBoardMember(ctx, boardID, authorID); err != nil {
		return nil, err
	}

	note := models.NewNote(boardID, authorID, content, color)
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// ListNotes retrieves notes on a board, pinned first
func (s *noteService) ListNotes(ctx context.Context, boardID, userID uuid.UUID, page, pageSize int) ([]*models.Note, error) {
	if _, err := s.boardSvc.RequireBoardMember(ctx, boardID, userID); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	return s.noteRepo.ListByBoard(ctx, boardID, offset, pageSize)
}

// getOwnNote fetches a note and verifies the user authored it
func (s *noteService) getOwnNote(ctx context.Context, noteID, userID uuid.UUID) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	if note.AuthorID != userID {
		return nil, ErrNotNoteAuthor
	}

	return note, nil
}

// UpdateNote updates a note; author only
func (s *noteService) UpdateNote(ctx context.Context, noteID, userID uuid.UUID, content, color string, pinned bool) (*models.Note, error) {
	if content == "" || len([]rune(content)) > MaxNoteLength {
		return nil, ErrInvalidContent
	}

	note, err := s.getOwnNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	note.Content = content
	note.Color = color
	note.IsPinned = pinned

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// DeleteNote soft-deletes a note; author only
func (s *noteService) DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error {
	if _, err := s.getOwnNote(ctx, noteID, userID); err != nil {
		return err
	}
	return s.noteRepo.Delete(ctx, noteID)
}
