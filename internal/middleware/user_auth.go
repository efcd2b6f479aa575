package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/store"
)

// RequireAdmin re-reads the caller's role on every request, so a demotion
// takes effect without waiting for the token to expire. It must run after
// Authenticate.
func RequireAdmin(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied. Please log in to continue."})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			log.Println("[AUTH] [ERROR] admin check for unknown user:", userID.Hex())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authentication token"})
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] admin lookup failed:", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
		if !user.IsAdmin() {
			log.Println("[AUTH] [ERROR] admin access denied for:", user.Email)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}

		c.Next()
	}
}
