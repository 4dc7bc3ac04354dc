package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/auth"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// bearerToken extracts the token from an "Authorization: Bearer xxx" header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity ('userID', 'userRole') on the context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required (Bearer token)"})
			c.Abort()
			return
		}

		userID, role, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// but lets anonymous requests through. Order creation uses this: guests may
// check out without an account.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if userID, role, err := auth.ValidateToken(tokenString); err == nil {
				c.Set("userID", userID)
				c.Set("userRole", role)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. It checks the role embedded in
// the token, so no extra database round trip is needed.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("userRole")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required (RequireAuth must run first)"})
			c.Abort()
			return
		}

		if role.(string) != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied: admin role required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
