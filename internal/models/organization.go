package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationRole represents a member's role within an organization
type OrganizationRole string

const (
	// OrganizationRoleOwner is the creating user; exactly one per organization
	OrganizationRoleOwner OrganizationRole = "owner"
	// OrganizationRoleAdmin can manage members and boards
	OrganizationRoleAdmin OrganizationRole = "admin"
	// OrganizationRoleMember has read access and board-level permissions
	OrganizationRoleMember OrganizationRole = "member"
)

// Organization represents a tenant that owns boards
type Organization struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	OwnerID     uuid.UUID  `json:"ownerId" db:"owner_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// NewOrganization creates a new organization owned by the given user
func NewOrganization(ownerID uuid.UUID, name, description string) *Organization {
	now := time.Now()
	return &Organization{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Update updates the organization's name and description
func (o *Organization) Update(name, description string) {
	o.Name = name
	o.Description = description
	o.UpdatedAt = time.Now()
}

// OrganizationMember represents a user's membership in an organization
type OrganizationMember struct {
	OrganizationID uuid.UUID        `json:"organizationId" db:"organization_id"`
	UserID         uuid.UUID        `json:"userId" db:"user_id"`
	Role           OrganizationRole `json:"role" db:"role"`
	JoinedAt       time.Time        `json:"joinedAt" db:"joined_at"`
}

// CanManage reports whether the member may mutate organization resources
func (m *OrganizationMember) CanManage() bool {
	return m.Role == OrganizationRoleOwner || m.Role == OrganizationRoleAdmin
}
