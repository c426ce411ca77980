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

// OrganizationRepository defines the interface for organization-related database operations
type OrganizationRepository interface {
	Repository
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *models.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error
	GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error)
}

// organizationRepository implements the OrganizationRepository interface
type organizationRepository struct {
	*BaseRepository
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *sqlx.DB) OrganizationRepository {
	return &organizationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new organization into the database
func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		org.ID,
		org.Name,
		org.Description,
		org.OwnerID,
		org.CreatedAt,
		org.UpdatedAt,
	)

	return err
}

// GetByID retrieves an organization by ID
func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	query := `SELECT * FROM organizations WHERE id = $1 AND deleted_at IS NULL`

	err := r.GetDB().GetContext(ctx, &org, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Organization not found
		}
		return nil, err
	}

	return &org, nil
}

// ListByUser retrieves all organizations the user is a member of
func (r *organizationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	orgs := []*models.Organization{}
	query := `
		SELECT o.* FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1 AND o.deleted_at IS NULL
		ORDER BY o.created_at ASC
	`

	err := r.GetDB().SelectContext(ctx, &orgs, query, userID)
	if err != nil {
		return nil, err
	}

	return orgs, nil
}

// Update updates an existing organization
func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, description = $2, owner_id = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	org.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		org.Name,
		org.Description,
		org.OwnerID,
		org.UpdatedAt,
		org.ID,
	)

	return err
}

// Delete soft-deletes an organization
func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE organizations
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	now := time.Now()

	_, err := r.GetDB().ExecContext(ctx, query, now, id)
	return err
}

// AddMember adds a user to an organization. Adding an existing member
// updates their role instead of failing.
func (r *organizationRepository) AddMember(ctx context.Context, member *models.OrganizationMember) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`

	_, err := r.GetDB().ExecContext(
		ctx,
		query,
		member.OrganizationID,
		member.UserID,
		member.Role,
		member.JoinedAt,
	)

	return err
}

// RemoveMember removes a user from an organization
func (r *organizationRepository) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	query := `DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`

	_, err := r.GetDB().ExecContext(ctx, query, orgID, userID)
	return err
}

// GetMember retrieves a single organization membership
func (r *organizationRepository) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	query := `SELECT * FROM organization_members WHERE organization_id = $1 AND user_id = $2`

	err := r.GetDB().GetContext(ctx, &member, query, orgID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not a member
		}
		return nil, err
	}

	return &member, nil
}

// ListMembers retrieves all members of an organization
func (r *organizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error) {
	members := []*models.OrganizationMember{}
	query := `
		SELECT * FROM organization_members
		WHERE organization_id = $1
		ORDER BY joined_at ASC, user_id ASC
	`

	err := r.GetDB().SelectContext(ctx, &members, query, orgID)
	if err != nil {
		return nil, err
	}

	return members, nil
}
