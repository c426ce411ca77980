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

// InvitationRepository defines the interface for invitation-related database operations
type InvitationRepository interface {
	Repository
	Upsert(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetByToken(ctx context.Context, token string) (*models.InvitationWithInviter, error)
	GetByOrgEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error)
	ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.InvitationWithInviter, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedAt *time.Time) error
}

const invitationInviterColumns = `
	i.id, i.organization_id, i.email, i.role, i.invited_by, i.token,
	i.status, i.expires_at, i.accepted_at, i.created_at, i.updated_at,
	u.id AS "inviter.id", u.first_name AS "inviter.first_name",
	u.last_name AS "inviter.last_name", u.email AS "inviter.email"`

// invitationRepository implements the InvitationRepository interface
type invitationRepository struct {
	*BaseRepository
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *sqlx.DB) InvitationRepository {
	return &invitationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Upsert inserts an invitation, or re-issues the existing one for the same
// (organization, email) pair: role, token, and expiry are replaced and the
// status returns to pending. The stored row's id and created_at are written
// back into the given invitation.
func (r *invitationRepository) Upsert(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, organization_id, email, role, invited_by, token,
			status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (organization_id, email) DO UPDATE SET
			role = EXCLUDED.role,
			invited_by = EXCLUDED.invited_by,
			token = EXCLUDED.token,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			accepted_at = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	return r.GetDB().QueryRowxContext(
		ctx,
		query,
		invitation.ID,
		invitation.OrganizationID,
		invitation.Email,
		invitation.Role,
		invitation.InvitedBy,
		invitation.Token,
		invitation.Status,
		invitation.ExpiresAt,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	).Scan(&invitation.ID, &invitation.CreatedAt)
}

// GetByID retrieves an invitation by ID
func (r *invitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var invitation models.Invitation
	query := `SELECT * FROM invitations WHERE id = $1`

	err := r.GetDB().GetContext(ctx, &invitation, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Invitation not found
		}
		return nil, err
	}

	return &invitation, nil
}

// GetByToken retrieves an invitation by its signed token, joined with the
// inviting user
func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.InvitationWithInviter, error) {
	var invitation models.InvitationWithInviter
	query := `
		SELECT ` + invitationInviterColumns + `
		FROM invitations i
		JOIN users u ON u.id = i.invited_by
		WHERE i.token = $1
	`

	err := r.GetDB().GetContext(ctx, &invitation, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &invitation, nil
}

// GetByOrgEmail retrieves the invitation for an email within an organization
func (r *invitationRepository) GetByOrgEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	var invitation models.Invitation
	query := `SELECT * FROM invitations WHERE organization_id = $1 AND email = $2`

	err := r.GetDB().GetContext(ctx, &invitation, query, orgID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &invitation, nil
}

// ListPending retrieves an organization's open invitations, newest first
func (r *invitationRepository) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.InvitationWithInviter, error) {
	invitations := []*models.InvitationWithInviter{}
	query := `
		SELECT ` + invitationInviterColumns + `
		FROM invitations i
		JOIN users u ON u.id = i.invited_by
		WHERE i.organization_id = $1 AND i.status = $2
		ORDER BY i.created_at DESC
	`

	err := r.GetDB().SelectContext(ctx, &invitations, query, orgID, models.InvitationStatusPending)
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

// UpdateStatus moves an invitation to a new lifecycle state
func (r *invitationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedAt *time.Time) error {
	query := `
		UPDATE invitations
		SET status = $1, accepted_at = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.GetDB().ExecContext(ctx, query, status, acceptedAt, time.Now(), id)
	return err
}
