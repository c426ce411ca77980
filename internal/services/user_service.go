package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// UserService covers profile and account management for signed-in users.
type UserService interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*models.User, error)
	SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// requireUser loads a live user or reports ErrUserNotFound.
func (s *userService) requireUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.requireUser(ctx, id)
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes the user's display name.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*models.User, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAvatar records the avatar URL after a successful media upload.
func (s *userService) SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	user.Avatar = &avatarURL
	user.UpdatedAt = time.Now()
	return s.userRepo.Update(ctx, user)
}

// DeleteUser soft-deletes the account.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.requireUser(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// ChangePassword verifies the current password before storing the new one.
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}
	if !validatePassword(newPassword) {
		return ErrWeakPassword
	}

	if err := user.UpdatePassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}
