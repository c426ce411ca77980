package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	orgService services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgService services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// OrganizationRequest represents the request body for creating or updating
// an organization
type OrganizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// OrganizationMemberRequest represents the request body for adding a member
type OrganizationMemberRequest struct {
	UserID uuid.UUID               `json:"userId" binding:"required"`
	Role   models.OrganizationRole `json:"role" binding:"required"`
}

func orgErrorStatus(err error) int {
	switch err {
	case services.ErrOrganizationNotFound:
		return http.StatusNotFound
	case services.ErrNotOrganizationAdmin, services.ErrNotOrganizationOwner, services.ErrNotMember:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CreateOrganization creates an organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusCreated, gin.H{"organization": org})
}

// GetOrganization fetches one organization the caller belongs to
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
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

	org, err := h.orgService.GetOrganization(c.Request.Context(), orgID, user.ID)
	if err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"organization": org})
}

// ListOrganizations lists the organizations the caller belongs to
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	orgs, err := h.orgService.ListOrganizations(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list organizations")
		return
	}

	respond(c, http.StatusOK, gin.H{"organizations": orgs})
}

// UpdateOrganization updates name and description
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
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

	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.orgService.UpdateOrganization(c.Request.Context(), orgID, user.ID, req.Name, req.Description)
	if err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"organization": org})
}

// DeleteOrganization removes an organization. Owner only.
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
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

	if err := h.orgService.DeleteOrganization(c.Request.Context(), orgID, user.ID); err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Organization deleted successfully"})
}

// AddMember adds or updates an organization member
func (h *OrganizationHandler) AddMember(c *gin.Context) {
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

	var req OrganizationMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orgService.AddMember(c.Request.Context(), orgID, user.ID, req.UserID, req.Role); err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Member added successfully"})
}

// RemoveMember removes an organization member
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
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

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.orgService.RemoveMember(c.Request.Context(), orgID, user.ID, memberID); err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// ListMembers lists an organization's members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
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

	members, err := h.orgService.ListMembers(c.Request.Context(), orgID, user.ID)
	if err != nil {
		respondError(c, orgErrorStatus(err), err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"members": members})
}

// RegisterRoutes registers the organization routes
func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	orgs := router.Group("/organizations")
	orgs.Use(authMiddleware)
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("", h.ListOrganizations)
		orgs.GET("/:orgId", h.GetOrganization)
		orgs.PUT("/:orgId", h.UpdateOrganization)
		orgs.DELETE("/:orgId", h.DeleteOrganization)
		orgs.GET("/:orgId/members", h.ListMembers)
		orgs.POST("/:orgId/members", h.AddMember)
		orgs.DELETE("/:orgId/members/:userId", h.RemoveMember)
	}
}
