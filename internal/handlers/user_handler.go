package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	userService    services.UserService
	storageService services.StorageService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserService, storageService services.StorageService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		storageService: storageService,
	}
}

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// ChangePasswordRequest represents the request body for changing a password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func userDetail(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"firstName":  user.FirstName,
		"lastName":   user.LastName,
		"avatar":     user.Avatar,
		"createdAt": user.CreatedAt,
		"updatedAt": user.UpdatedAt,
	}
}

// GetCurrentUser returns the current authenticated user
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	fullUser, err := h.userService.GetUserByID(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve user details")
		return
	}
	if fullUser == nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	respond(c, http.StatusOK, gin.H{"user": userDetail(fullUser)})
}

// UpdateProfile updates the current user's name
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, req.FirstName, req.LastName)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	respond(c, http.StatusOK, gin.H{"user": userDetail(updated)})
}

// UploadAvatar stores a new avatar image and attaches its URL to the user
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	if h.storageService == nil {
		respondError(c, http.StatusServiceUnavailable, "Media storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read avatar file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	info, err := h.storageService.UploadFile(c.Request.Context(), file, fileHeader.Filename, contentType, fileHeader.Size, user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	if err := h.userService.SetAvatar(c.Request.Context(), user.ID, info.URL); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	respond(c, http.StatusOK, gin.H{"avatar": info.URL})
}

// ChangePassword changes the current user's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case services.ErrInvalidCredentials:
			status = http.StatusUnauthorized
		case services.ErrWeakPassword:
			status = http.StatusBadRequest
		}
		respondError(c, status, err.Error())
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// DeleteUser deletes the current user's account
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), user.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	users := router.Group("/users")
	users.Use(authMiddleware)
	{
		users.GET("/me", h.GetCurrentUser)
		users.PUT("/me", h.UpdateProfile)
		users.POST("/me/avatar", h.UploadAvatar)
		users.POST("/me/change-password", h.ChangePassword)
		users.DELETE("/me", h.DeleteUser)
	}
}
