package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the lifecycle state of an invitation
type InvitationStatus string

const (
	// InvitationStatusPending means the invite is open and can be accepted
	InvitationStatusPending InvitationStatus = "pending"
	// InvitationStatusAccepted means the invitee joined the organization
	InvitationStatusAccepted InvitationStatus = "accepted"
	// InvitationStatusRevoked means the invite was cancelled before acceptance
	InvitationStatusRevoked InvitationStatus = "revoked"
	// InvitationStatusExpired means the invite lapsed before acceptance
	InvitationStatusExpired InvitationStatus = "expired"
)

// Invitation represents an email invite into an organization. The token is
// a signed JWT that also serves as the lookup key for the public accept
// flow; at most one invitation exists per (organization, email) pair.
type Invitation struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID uuid.UUID        `json:"organizationId" db:"organization_id"`
	Email          string           `json:"email" db:"email"`
	Role           OrganizationRole `json:"role" db:"role"`
	InvitedBy      uuid.UUID        `json:"invitedBy" db:"invited_by"`
	Token          string           `json:"-" db:"token"`
	Status         InvitationStatus `json:"status" db:"status"`
	ExpiresAt      time.Time        `json:"expiresAt" db:"expires_at"`
	AcceptedAt     *time.Time       `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// NewInvitation creates a pending invitation
func NewInvitation(orgID uuid.UUID, email string, role OrganizationRole, invitedBy uuid.UUID, token string, expiresAt time.Time) *Invitation {
	now := time.Now()
	return &Invitation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		InvitedBy:      invitedBy,
		Token:          token,
		Status:         InvitationStatusPending,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsExpired reports whether the invitation has lapsed
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// InvitationInviter is the projection of the inviting user embedded in
// invitation reads
type InvitationInviter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
}

// InvitationWithInviter is an invitation joined with its inviter
type InvitationWithInviter struct {
	Invitation
	Inviter InvitationInviter `json:"inviter" db:"inviter"`
}
