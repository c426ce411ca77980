package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case services.ErrUserAlreadyExists:
			status = http.StatusConflict
		case services.ErrInvalidEmail, services.ErrWeakPassword:
			status = http.StatusBadRequest
		}
		log.Printf("AuthHandler.Register: error response status %d: %v", status, err)
		respondError(c, status, err.Error())
		return
	}

	h.setRefreshCookie(c, tokens)
	respond(c, http.StatusCreated, gin.H{
		"user":  userPayload(user),
		"token": tokenPayload(tokens),
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrInvalidCredentials {
			status = http.StatusUnauthorized
		}
		log.Printf("AuthHandler.Login: error response status %d: %v", status, err)
		respondError(c, status, err.Error())
		return
	}

	h.setRefreshCookie(c, tokens)
	respond(c, http.StatusOK, gin.H{
		"user":  userPayload(user),
		"token": tokenPayload(tokens),
	})
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	tokens, err := h.authService.RefreshTokens(c.Request.Context(), refreshToken)
	if err != nil {
		log.Printf("AuthHandler.RefreshToken: invalid refresh token: %v", err)
		respondError(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	h.setRefreshCookie(c, tokens)
	respond(c, http.StatusOK, gin.H{
		"token": tokenPayload(tokens),
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, tokens *services.TokenPair) {
	c.SetCookie(
		"refresh_token",
		tokens.RefreshToken,
		int(time.Until(tokens.ExpiresAt.Add(24*time.Hour*7)).Seconds()), // 7 days
		"/",
		"",
		false, // Set to true in production with HTTPS
		true,  // HTTP only
	)
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"avatar":    user.Avatar,
	}
}

func tokenPayload(tokens *services.TokenPair) gin.H {
	return gin.H{
		"accessToken": tokens.AccessToken,
		"expiresAt":   tokens.ExpiresAt,
	}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}
}
