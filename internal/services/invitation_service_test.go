package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

type invitationFixture struct {
	invitationRepo *mockInvitationRepository
	orgRepo        *mockOrganizationRepository
	userRepo       *mockUserRepository
	service        InvitationService
}

func newInvitationFixture() *invitationFixture {
	f := &invitationFixture{
		invitationRepo: new(mockInvitationRepository),
		orgRepo:        new(mockOrganizationRepository),
		userRepo:       new(mockUserRepository),
	}
	f.service = NewInvitationService(f.invitationRepo, f.orgRepo, f.userRepo, NewLogMailer(), "test-secret")
	return f
}

func testOrgMember(orgID, userID uuid.UUID, role models.OrganizationRole) *models.OrganizationMember {
	return &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	}
}

func TestSendInvitationCreatesPendingInvite(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleAdmin), nil)
	f.userRepo.On("GetByEmail", mock.Anything, "newhire@example.com").Return(nil, nil)
	f.invitationRepo.On("GetByOrgEmail", mock.Anything, org.ID, "newhire@example.com").Return(nil, nil)
	f.invitationRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, actorID).Return(testSender(actorID), nil)

	invitation, err := f.service.SendInvitation(context.Background(), org.ID, actorID, "Newhire@Example.com ", models.OrganizationRoleMember)
	assert.NoError(t, err)
	assert.Equal(t, "newhire@example.com", invitation.Email)
	assert.Equal(t, models.InvitationStatusPending, invitation.Status)
	assert.NotEmpty(t, invitation.Token)
	assert.WithinDuration(t, time.Now().Add(InvitationTTL), invitation.ExpiresAt, time.Minute)
	f.invitationRepo.AssertExpectations(t)
}

func TestSendInvitationRejectsExistingMember(t *testing.T) {
	actorID := uuid.New()
	inviteeID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")
	invitee := testSender(inviteeID)
	invitee.Email = "taken@example.com"

	f := newInvitationFixture()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleOwner), nil)
	f.userRepo.On("GetByEmail", mock.Anything, "taken@example.com").Return(invitee, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, inviteeID).
		Return(testOrgMember(org.ID, inviteeID, models.OrganizationRoleMember), nil)

	_, err := f.service.SendInvitation(context.Background(), org.ID, actorID, "taken@example.com", models.OrganizationRoleMember)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	f.invitationRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSendInvitationRejectsOpenDuplicate(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")
	existing := models.NewInvitation(org.ID, "pending@example.com", models.OrganizationRoleMember, actorID, "tok", time.Now().Add(time.Hour))

	f := newInvitationFixture()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleAdmin), nil)
	f.userRepo.On("GetByEmail", mock.Anything, "pending@example.com").Return(nil, nil)
	f.invitationRepo.On("GetByOrgEmail", mock.Anything, org.ID, "pending@example.com").Return(existing, nil)

	_, err := f.service.SendInvitation(context.Background(), org.ID, actorID, "pending@example.com", models.OrganizationRoleMember)
	assert.ErrorIs(t, err, ErrInvitationAlreadySent)
}

func TestSendInvitationReissuesLapsedInvite(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")
	lapsed := models.NewInvitation(org.ID, "slow@example.com", models.OrganizationRoleMember, actorID, "tok", time.Now().Add(-time.Hour))

	f := newInvitationFixture()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleAdmin), nil)
	f.userRepo.On("GetByEmail", mock.Anything, "slow@example.com").Return(nil, nil)
	f.invitationRepo.On("GetByOrgEmail", mock.Anything, org.ID, "slow@example.com").Return(lapsed, nil)
	f.invitationRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, actorID).Return(testSender(actorID), nil)

	invitation, err := f.service.SendInvitation(context.Background(), org.ID, actorID, "slow@example.com", models.OrganizationRoleMember)
	assert.NoError(t, err)
	assert.True(t, invitation.ExpiresAt.After(time.Now()))
	f.invitationRepo.AssertExpectations(t)
}

func TestSendInvitationMemberCannotElevate(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(uuid.New(), "Acme", "")

	f := newInvitationFixture()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleMember), nil)

	_, err := f.service.SendInvitation(context.Background(), org.ID, actorID, "peer@example.com", models.OrganizationRoleAdmin)
	assert.ErrorIs(t, err, ErrNotOrganizationAdmin)
}

func TestSendInvitationNeverGrantsOwner(t *testing.T) {
	f := newInvitationFixture()

	_, err := f.service.SendInvitation(context.Background(), uuid.New(), uuid.New(), "boss@example.com", models.OrganizationRoleOwner)
	assert.ErrorIs(t, err, ErrNotOrganizationOwner)
}

// sendInvite runs a full send against the fixture and returns the signed
// token so accept-path tests exercise real tokens
func sendInvite(t *testing.T, f *invitationFixture, org *models.Organization, actorID uuid.UUID, email string) *models.Invitation {
	t.Helper()
	f.orgRepo.On("GetByID", mock.Anything, org.ID).Return(org, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, actorID).
		Return(testOrgMember(org.ID, actorID, models.OrganizationRoleAdmin), nil)
	f.userRepo.On("GetByEmail", mock.Anything, email).Return(nil, nil)
	f.invitationRepo.On("GetByOrgEmail", mock.Anything, org.ID, email).Return(nil, nil)
	f.invitationRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, actorID).Return(testSender(actorID), nil)

	invitation, err := f.service.SendInvitation(context.Background(), org.ID, actorID, email, models.OrganizationRoleMember)
	assert.NoError(t, err)
	return invitation
}

func TestAcceptInvitationAddsMember(t *testing.T) {
	actorID := uuid.New()
	joiningID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	invitation := sendInvite(t, f, org, actorID, "newhire@example.com")

	stored := &models.InvitationWithInviter{Invitation: *invitation}
	f.invitationRepo.On("GetByToken", mock.Anything, invitation.Token).Return(stored, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, joiningID).Return(nil, nil)
	f.orgRepo.On("AddMember", mock.Anything, mock.MatchedBy(func(m *models.OrganizationMember) bool {
		return m.OrganizationID == org.ID && m.UserID == joiningID && m.Role == models.OrganizationRoleMember
	})).Return(nil)
	f.invitationRepo.On("UpdateStatus", mock.Anything, invitation.ID, models.InvitationStatusAccepted, mock.Anything).Return(nil)

	joined, role, err := f.service.AcceptInvitation(context.Background(), invitation.Token, joiningID)
	assert.NoError(t, err)
	assert.Equal(t, org.ID, joined.ID)
	assert.Equal(t, models.OrganizationRoleMember, role)
	f.orgRepo.AssertExpectations(t)
	f.invitationRepo.AssertExpectations(t)
}

func TestAcceptLapsedInvitationMarksExpired(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	invitation := sendInvite(t, f, org, actorID, "slow@example.com")
	invitation.ExpiresAt = time.Now().Add(-time.Minute)

	stored := &models.InvitationWithInviter{Invitation: *invitation}
	f.invitationRepo.On("GetByToken", mock.Anything, invitation.Token).Return(stored, nil)
	f.invitationRepo.On("UpdateStatus", mock.Anything, invitation.ID, models.InvitationStatusExpired, (*time.Time)(nil)).Return(nil)

	_, _, err := f.service.AcceptInvitation(context.Background(), invitation.Token, uuid.New())
	assert.ErrorIs(t, err, ErrInvitationExpired)
	f.invitationRepo.AssertExpectations(t)
}

func TestAcceptInvitationByExistingMemberSpendsInvite(t *testing.T) {
	actorID := uuid.New()
	memberID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	invitation := sendInvite(t, f, org, actorID, "rejoin@example.com")

	stored := &models.InvitationWithInviter{Invitation: *invitation}
	f.invitationRepo.On("GetByToken", mock.Anything, invitation.Token).Return(stored, nil)
	f.orgRepo.On("GetMember", mock.Anything, org.ID, memberID).
		Return(testOrgMember(org.ID, memberID, models.OrganizationRoleMember), nil)
	f.invitationRepo.On("UpdateStatus", mock.Anything, invitation.ID, models.InvitationStatusAccepted, mock.Anything).Return(nil)

	_, _, err := f.service.AcceptInvitation(context.Background(), invitation.Token, memberID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	f.orgRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
	f.invitationRepo.AssertExpectations(t)
}

func TestAcceptInvitationRejectsGarbageToken(t *testing.T) {
	f := newInvitationFixture()

	_, _, err := f.service.AcceptInvitation(context.Background(), "not-a-jwt", uuid.New())
	assert.ErrorIs(t, err, ErrInvalidInvitation)
	f.invitationRepo.AssertNotCalled(t, "GetByToken", mock.Anything, mock.Anything)
}

func TestAcceptInvitationRejectsProcessedInvite(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	invitation := sendInvite(t, f, org, actorID, "late@example.com")
	invitation.Status = models.InvitationStatusRevoked

	stored := &models.InvitationWithInviter{Invitation: *invitation}
	f.invitationRepo.On("GetByToken", mock.Anything, invitation.Token).Return(stored, nil)

	_, _, err := f.service.AcceptInvitation(context.Background(), invitation.Token, uuid.New())
	assert.ErrorIs(t, err, ErrInvitationNotPending)
}

func TestGetInvitationByTokenReturnsOrganization(t *testing.T) {
	actorID := uuid.New()
	org := models.NewOrganization(actorID, "Acme", "")

	f := newInvitationFixture()
	invitation := sendInvite(t, f, org, actorID, "curious@example.com")

	stored := &models.InvitationWithInviter{Invitation: *invitation}
	f.invitationRepo.On("GetByToken", mock.Anything, invitation.Token).Return(stored, nil)

	got, gotOrg, err := f.service.GetInvitationByToken(context.Background(), invitation.Token)
	assert.NoError(t, err)
	assert.Equal(t, invitation.Email, got.Email)
	assert.Equal(t, org.ID, gotOrg.ID)
}

func TestRevokeInvitationByInviter(t *testing.T) {
	inviterID := uuid.New()
	invitation := models.NewInvitation(uuid.New(), "gone@example.com", models.OrganizationRoleMember, inviterID, "tok", time.Now().Add(time.Hour))

	f := newInvitationFixture()
	f.invitationRepo.On("GetByID", mock.Anything, invitation.ID).Return(invitation, nil)
	f.invitationRepo.On("UpdateStatus", mock.Anything, invitation.ID, models.InvitationStatusRevoked, (*time.Time)(nil)).Return(nil)

	err := f.service.RevokeInvitation(context.Background(), invitation.ID, inviterID)
	assert.NoError(t, err)
	f.invitationRepo.AssertExpectations(t)
}

func TestRevokeInvitationRequiresInviterOrAdmin(t *testing.T) {
	orgID := uuid.New()
	strangerID := uuid.New()
	invitation := models.NewInvitation(orgID, "gone@example.com", models.OrganizationRoleMember, uuid.New(), "tok", time.Now().Add(time.Hour))

	f := newInvitationFixture()
	f.invitationRepo.On("GetByID", mock.Anything, invitation.ID).Return(invitation, nil)
	f.orgRepo.On("GetMember", mock.Anything, orgID, strangerID).
		Return(testOrgMember(orgID, strangerID, models.OrganizationRoleMember), nil)

	err := f.service.RevokeInvitation(context.Background(), invitation.ID, strangerID)
	assert.ErrorIs(t, err, ErrNotOrganizationAdmin)
	f.invitationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
