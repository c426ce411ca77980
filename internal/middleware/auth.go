package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mosaicpm/mosaic/backend/internal/models"
	"github.com/mosaicpm/mosaic/backend/internal/services"
)

// AuthMiddleware creates a middleware for JWT authentication. The token is
// read from the Authorization header, or from the `token` query parameter
// for websocket upgrades where custom headers are not available.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization required"})
			c.Abort()
			return
		}

		token, err := authService.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			log.Printf("AuthMiddleware: Invalid or expired token for %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			c.Abort()
			return
		}

		user, err := authService.GetUserFromToken(c.Request.Context(), tokenString)
		if err != nil || user == nil {
			log.Printf("AuthMiddleware: Invalid user in token for %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid user in token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// CurrentUser returns the authenticated user set by AuthMiddleware
func CurrentUser(c *gin.Context) (*models.User, bool) {
	userObj, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := userObj.(*models.User)
	return user, ok
}
