package models

import (
	"time"

	"github.com/google/uuid"
)

// BoardRole represents a member's role on a board
type BoardRole string

const (
	// BoardRoleAdmin can manage the board, its columns and members
	BoardRoleAdmin BoardRole = "admin"
	// BoardRoleMember can work with tasks, notes and chat
	BoardRoleMember BoardRole = "member"
)

// Board represents a project board within an organization
type Board struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organizationId" db:"organization_id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	CreatedBy      uuid.UUID  `json:"createdBy" db:"created_by"`
	IsArchived     bool       `json:"isArchived" db:"is_archived"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// NewBoard creates a new board in the given organization
func NewBoard(organizationID, createdBy uuid.UUID, title, description string) *Board {
	now := time.Now()
	return &Board{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Title:          title,
		Description:    description,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Update updates the board's title and description
func (b *Board) Update(title, description string) {
	b.Title = title
	b.Description = description
	b.UpdatedAt = time.Now()
}

// Archive marks the board as archived
func (b *Board) Archive() {
	b.IsArchived = true
	b.UpdatedAt = time.Now()
}

// BoardMember represents a user's membership on a board. The embedded user
// fields are populated by joined queries and drive mention resolution.
type BoardMember struct {
	BoardID   uuid.UUID `json:"boardId" db:"board_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Role      BoardRole `json:"role" db:"role"`
	JoinedAt  time.Time `json:"joinedAt" db:"joined_at"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar"`
}

// FullName returns the member's display name
func (m *BoardMember) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MentionText returns the @-token that resolves to this member
func (m *BoardMember) MentionText() string {
	return (&User{FirstName: m.FirstName, LastName: m.LastName}).MentionText()
}
