package services

import (
	"context"
	"log"
	"time"

	"github.com/mosaicpm/mosaic/backend/internal/models"
)

// InvitationMail carries everything the invitation email template needs
type InvitationMail struct {
	To               string
	OrganizationName string
	InviterName      string
	Role             models.OrganizationRole
	Token            string
	ExpiresAt        time.Time
}

// Mailer delivers outbound mail. The invitation flow only needs the one
// message type for now.
type Mailer interface {
	SendInvitation(ctx context.Context, mail InvitationMail) error
}

// logMailer writes the would-be email to the log instead of sending it.
// Used until an SMTP transport is configured.
type logMailer struct{}

// NewLogMailer creates a Mailer that logs instead of sending
func NewLogMailer() Mailer {
	return logMailer{}
}

func (logMailer) SendInvitation(ctx context.Context, mail InvitationMail) error {
	log.Printf("Invitation email for %s: join %s as %s (invited by %s, expires %s)",
		mail.To, mail.OrganizationName, mail.Role, mail.InviterName, mail.ExpiresAt.Format(time.RFC3339))
	return nil
}
