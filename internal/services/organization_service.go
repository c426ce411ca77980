package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNotOrganizationAdmin = errors.New("user may not manage this organization")
	ErrNotOrganizationOwner = errors.New("only the owner may do this")
	ErrNotMember            = errors.New("user is not a member")
)

// OrganizationService handles organization-related business logic
type OrganizationService interface {
	CreateOrganization(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Organization, error)
	GetOrganization(ctx context.Context, orgID, userID uuid.UUID) (*models.Organization, error)
	ListOrganizations(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	UpdateOrganization(ctx context.Context, orgID, userID uuid.UUID, name, description string) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, orgID, userID uuid.UUID) error
	AddMember(ctx context.Context, orgID, actorID, userID uuid.UUID, role models.OrganizationRole) error
	RemoveMember(ctx context.Context, orgID, actorID, userID uuid.UUID) error
	ListMembers(ctx context.Context, orgID, userID uuid.UUID) ([]*models.OrganizationMember, error)
	RequireMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error)
}

type organizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) OrganizationService {
	return &organizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// CreateOrganization creates an organization with the creator as owner
func (s *organizationService) CreateOrganization(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Organization, error) {
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	org := models.NewOrganization(ownerID, name, description)

	err = s.orgRepo.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.orgRepo.Create(ctx, org); err != nil {
			return err
		}
		return s.orgRepo.AddMember(ctx, &models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         ownerID,
			Role:           models.OrganizationRoleOwner,
			JoinedAt:       time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// RequireMember returns the membership of the user in the organization, or
// ErrNotMember / ErrOrganizationNotFound.
func (s *organizationService) RequireMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	member, err := s.orgRepo.GetMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	return member, nil
}

// GetOrganization retrieves an organization the user belongs to
func (s *organizationService) GetOrganization(ctx context.Context, orgID, userID uuid.UUID) (*models.Organization, error) {
	if _, err := s.RequireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.orgRepo.GetByID(ctx, orgID)
}

// ListOrganizations retrieves the organizations the user belongs to
func (s *organizationService) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	return s.orgRepo.ListByUser(ctx, userID)
}

// UpdateOrganization updates name/description; owner or admin only
func (s *organizationService) UpdateOrganization(ctx context.Context, orgID, userID uuid.UUID, name, description string) (*models.Organization, error) {
	member, err := s.RequireMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !member.CanManage() {
		return nil, ErrNotOrganizationAdmin
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	org.Update(name, description)

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

// DeleteOrganization soft-deletes an organization; owner only
func (s *organizationService) DeleteOrganization(ctx context.Context, orgID, userID uuid.UUID) error {
	member, err := s.RequireMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.OrganizationRoleOwner {
		return ErrNotOrganizationOwner
	}

	return s.orgRepo.Delete(ctx, orgID)
}

// AddMember adds a user to the organization; owner or admin only
func (s *organizationService) AddMember(ctx context.Context, orgID, actorID, userID uuid.UUID, role models.OrganizationRole) error {
	actor, err := s.RequireMember(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !actor.CanManage() {
		return ErrNotOrganizationAdmin
	}

	// Only the owner role transfer path may create owners
	if role == models.OrganizationRoleOwner {
		return ErrNotOrganizationOwner
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.orgRepo.AddMember(ctx, &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	})
}

// RemoveMember removes a user from the organization; owner or admin only,
// and the owner cannot be removed.
func (s *organizationService) RemoveMember(ctx context.Context, orgID, actorID, userID uuid.UUID) error {
	actor, err := s.RequireMember(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !actor.CanManage() && actorID != userID {
		return ErrNotOrganizationAdmin
	}

	target, err := s.orgRepo.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotMember
	}
	if target.Role == models.OrganizationRoleOwner {
		return ErrNotOrganizationOwner
	}

	return s.orgRepo.RemoveMember(ctx, orgID, userID)
}

// ListMembers retrieves the organization's members
func (s *organizationService) ListMembers(ctx context.Context, orgID, userID uuid.UUID) ([]*models.OrganizationMember, error) {
	if _, err := s.RequireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.orgRepo.ListMembers(ctx, orgID)
}
