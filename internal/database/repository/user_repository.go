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

// UserRepository covers account rows. Lookups return (nil, nil) when no
// live row matches; soft-deleted users are invisible everywhere.
type UserRepository interface {
	Repository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	*BaseRepository
}

// NewUserRepository returns the sqlx-backed UserRepository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.GetDB().ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, avatar, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Avatar, user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.GetDB().GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Update writes every mutable column and stamps updated_at.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4,
		    avatar = $5, is_admin = $6, updated_at = $7, deleted_at = $8
		WHERE id = $9`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Avatar, user.IsAdmin, user.UpdatedAt, user.DeletedAt, user.ID,
	)
	return err
}

// Delete marks the user deleted; the row stays for audit and joins.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.GetDB().ExecContext(ctx, `
		UPDATE users
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`,
		now, id,
	)
	return err
}

// List returns live users newest first.
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	users := []*models.User{}
	err := r.GetDB().SelectContext(ctx, &users, `
		SELECT * FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, err
	}
	return count, nil
}
