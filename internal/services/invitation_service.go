package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/models"
)

var (
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrInvitationNotPending  = errors.New("invitation has already been processed")
	ErrInvitationExpired     = errors.New("invitation has expired")
	ErrInvitationAlreadySent = errors.New("invitation already sent to this email")
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
	ErrInvalidInvitation     = errors.New("invalid or expired invitation token")
)

// InvitationTTL is how long an invitation stays acceptable
const InvitationTTL = 7 * 24 * time.Hour

// InvitationService manages email invites into organizations. Tokens are
// signed JWTs so the accept link is self-contained; the invitation row is
// the source of truth for status and expiry.
type InvitationService interface {
	SendInvitation(ctx context.Context, orgID, actorID uuid.UUID, email string, role models.OrganizationRole) (*models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.InvitationWithInviter, *models.Organization, error)
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.Organization, models.OrganizationRole, error)
	ListPendingInvitations(ctx context.Context, orgID, actorID uuid.UUID) ([]*models.InvitationWithInviter, error)
	RevokeInvitation(ctx context.Context, invitationID, actorID uuid.UUID) error
}

type invitationService struct {
	invitationRepo repository.InvitationRepository
	orgRepo        repository.OrganizationRepository
	userRepo       repository.UserRepository
	mailer         Mailer
	jwtSecret      []byte
}

// NewInvitationService creates a new InvitationService signing invite
// tokens with the given secret.
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	mailer Mailer,
	jwtSecret string,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		jwtSecret:      []byte(jwtSecret),
	}
}

// SendInvitation creates or re-issues an invitation and emails the invite
// link. Any member may invite as member; only owners and admins may grant
// the admin role, and the owner role is never grantable by invite.
func (s *invitationService) SendInvitation(ctx context.Context, orgID, actorID uuid.UUID, email string, role models.OrganizationRole) (*models.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validateEmail(email) {
		return nil, ErrInvalidEmail
	}

	if role == "" {
		role = models.OrganizationRoleMember
	}
	if role == models.OrganizationRoleOwner {
		return nil, ErrNotOrganizationOwner
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	actor, err := s.orgRepo.GetMember(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrNotMember
	}
	if role != models.OrganizationRoleMember && !actor.CanManage() {
		return nil, ErrNotOrganizationAdmin
	}

	invitee, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if invitee != nil {
		member, err := s.orgRepo.GetMember(ctx, orgID, invitee.ID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			return nil, ErrAlreadyMember
		}
	}

	existing, err := s.invitationRepo.GetByOrgEmail(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	// An open, unexpired invite must be revoked before re-sending; a lapsed
	// one is silently re-issued.
	if existing != nil && existing.Status == models.InvitationStatusPending && !existing.IsExpired() {
		return nil, ErrInvitationAlreadySent
	}

	token, err := s.signInvitation(email, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign invitation token: %w", err)
	}

	invitation := models.NewInvitation(orgID, email, role, actorID, token, time.Now().Add(InvitationTTL))
	if err := s.invitationRepo.Upsert(ctx, invitation); err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	inviter, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if inviter == nil {
		return nil, ErrUserNotFound
	}

	mail := InvitationMail{
		To:               email,
		OrganizationName: org.Name,
		InviterName:      inviter.FullName(),
		Role:             role,
		Token:            token,
		ExpiresAt:        invitation.ExpiresAt,
	}
	if err := s.mailer.SendInvitation(ctx, mail); err != nil {
		return nil, fmt.Errorf("failed to send invitation email: %w", err)
	}

	return invitation, nil
}

// GetInvitationByToken resolves an invite link to its invitation and
// organization. Only open, unexpired invitations are visible.
func (s *invitationService) GetInvitationByToken(ctx context.Context, token string) (*models.InvitationWithInviter, *models.Organization, error) {
	if err := s.verifyInvitation(token); err != nil {
		return nil, nil, err
	}

	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if invitation == nil {
		return nil, nil, ErrInvitationNotFound
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, nil, ErrInvitationNotPending
	}
	if invitation.IsExpired() {
		return nil, nil, ErrInvitationExpired
	}

	org, err := s.orgRepo.GetByID(ctx, invitation.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	if org == nil {
		return nil, nil, ErrOrganizationNotFound
	}

	return invitation, org, nil
}

// AcceptInvitation adds the user to the invitation's organization with the
// invited role and closes the invitation. A lapsed invitation is marked
// expired on the accept attempt.
func (s *invitationService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.Organization, models.OrganizationRole, error) {
	if err := s.verifyInvitation(token); err != nil {
		return nil, "", err
	}

	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if invitation == nil {
		return nil, "", ErrInvitationNotFound
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, "", ErrInvitationNotPending
	}
	if invitation.IsExpired() {
		if err := s.invitationRepo.UpdateStatus(ctx, invitation.ID, models.InvitationStatusExpired, nil); err != nil {
			return nil, "", err
		}
		return nil, "", ErrInvitationExpired
	}

	member, err := s.orgRepo.GetMember(ctx, invitation.OrganizationID, userID)
	if err != nil {
		return nil, "", err
	}
	if member != nil {
		// The invite is spent either way
		now := time.Now()
		if err := s.invitationRepo.UpdateStatus(ctx, invitation.ID, models.InvitationStatusAccepted, &now); err != nil {
			return nil, "", err
		}
		return nil, "", ErrAlreadyMember
	}

	now := time.Now()
	err = s.orgRepo.AddMember(ctx, &models.OrganizationMember{
		OrganizationID: invitation.OrganizationID,
		UserID:         userID,
		Role:           invitation.Role,
		JoinedAt:       now,
	})
	if err != nil {
		return nil, "", err
	}

	if err := s.invitationRepo.UpdateStatus(ctx, invitation.ID, models.InvitationStatusAccepted, &now); err != nil {
		return nil, "", err
	}

	org, err := s.orgRepo.GetByID(ctx, invitation.OrganizationID)
	if err != nil {
		return nil, "", err
	}
	return org, invitation.Role, nil
}

// ListPendingInvitations retrieves an organization's open invitations,
// newest first. Members only.
func (s *invitationService) ListPendingInvitations(ctx context.Context, orgID, actorID uuid.UUID) ([]*models.InvitationWithInviter, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	actor, err := s.orgRepo.GetMember(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrNotMember
	}

	return s.invitationRepo.ListPending(ctx, orgID)
}

// RevokeInvitation cancels an open invitation. Allowed for the inviter and
// for organization owners and admins.
func (s *invitationService) RevokeInvitation(ctx context.Context, invitationID, actorID uuid.UUID) error {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation == nil {
		return ErrInvitationNotFound
	}
	if invitation.Status != models.InvitationStatusPending {
		return ErrInvitationNotPending
	}

	if invitation.InvitedBy != actorID {
		actor, err := s.orgRepo.GetMember(ctx, invitation.OrganizationID, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.CanManage() {
			return ErrNotOrganizationAdmin
		}
	}

	return s.invitationRepo.UpdateStatus(ctx, invitationID, models.InvitationStatusRevoked, nil)
}

func (s *invitationService) signInvitation(email string, orgID uuid.UUID, role models.OrganizationRole) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":          email,
		"organizationId": orgID.String(),
		"role":           string(role),
		"type":           "invitation",
		"exp":            now.Add(InvitationTTL).Unix(),
		"iat":            now.Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// verifyInvitation checks the token's signature and "type" claim. Status
// and expiry are enforced against the stored row, not the claims.
func (s *invitationService) verifyInvitation(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidInvitation
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidInvitation
	}
	if typ, ok := claims["type"].(string); !ok || typ != "invitation" {
		return ErrInvalidInvitation
	}
	return nil
}
