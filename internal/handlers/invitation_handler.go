package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// InvitationHandler handles organization invitation endpoints
type InvitationHandler struct {
	invitationService services.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler
func NewInvitationHandler(invitationService services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
	}
}

// InvitationRequest represents the request body for sending an invitation.
// Role defaults to member when omitted.
type InvitationRequest struct {
	Email string                  `json:"email" binding:"required"`
	Role  models.OrganizationRole `json:"role"`
}

func invitationErrorStatus(err error) int {
	switch err {
	case services.ErrInvitationNotFound, services.ErrOrganizationNotFound:
		return http.StatusNotFound
	case services.ErrNotOrganizationAdmin, services.ErrNotOrganizationOwner, services.ErrNotMember:
		return http.StatusForbidden
	case services.ErrInvitationNotPending, services.ErrInvitationExpired,
		services.ErrInvitationAlreadySent, services.ErrAlreadyMember,
		services.ErrInvalidInvitation, services.ErrInvalidEmail:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendInvitation invites an email address into the organization
func (h *InvitationHandler) SendInvitation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid organization ID")
		return
	}

	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	invitation, err := h.invitationService.SendInvitation(c.Request.Context(), orgID, user.ID, req.Email, req.Role)
	if err != nil {
		respondError(c, invitationErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"invitation": invitation})
}

// ListInvitations lists the organization's pending invitations
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid organization ID")
		return
	}

	invitations, err := h.invitationService.ListPendingInvitations(c.Request.Context(), orgID, user.ID)
	if err != nil {
		respondError(c, invitationErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"invitations": invitations})
}

// RevokeInvitation cancels a pending invitation
func (h *InvitationHandler) RevokeInvitation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid invitation ID")
		return
	}

	if err := h.invitationService.RevokeInvitation(c.Request.Context(), invitationID, user.ID); err != nil {
		respondError(c, invitationErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Invitation revoked successfully"})
}

// GetInvitation resolves an invite link to its details. Public; the invitee
// may not have an account yet.
func (h *InvitationHandler) GetInvitation(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "Invitation token is required")
		return
	}

	invitation, org, err := h.invitationService.GetInvitationByToken(c.Request.Context(), token)
	if err != nil {
		respondError(c, invitationErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{
		"invitation": invitation,
		"organization": gin.H{
			"id":   org.ID,
			"name": org.Name,
		},
	})
}

// AcceptInvitation joins the caller to the inviting organization
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	token := c.Param("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "Invitation token is required")
		return
	}

	org, role, err := h.invitationService.AcceptInvitation(c.Request.Context(), token, user.ID)
	if err != nil {
		respondError(c, invitationErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"organization": org, "role": role})
}

// RegisterRoutes registers the invitation routes. The token routes are
// outside the organization group so invite links work before membership.
func (h *InvitationHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	orgs := router.Group("/organizations")
	orgs.Use(authMiddleware)
	{
		orgs.POST("/:orgId/invitations", h.SendInvitation)
		orgs.GET("/:orgId/invitations", h.ListInvitations)
		orgs.DELETE("/:orgId/invitations/:invitationId", h.RevokeInvitation)
	}

	invitations := router.Group("/invitations")
	{
		invitations.GET("/:token", h.GetInvitation)
		invitations.POST("/:token/accept", authMiddleware, h.AcceptInvitation)
	}
}
