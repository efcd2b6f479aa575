package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
)

const (
	// CookieName carries the session token for browser clients.
	CookieName = "token"

	ContextUserID = "userId"
)

// Authenticate accepts the token from the cookie first, then from an
// Authorization: Bearer header, and injects the caller's id into the context.
func Authenticate(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Access denied. Please log in to continue.",
				"details": "No authentication token found in request",
			})
			return
		}

		claims, err := issuer.Parse(raw)
		if errors.Is(err, auth.ErrTokenExpired) {
			log.Println("[AUTH] [ERROR] token expired")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Your session has expired. Please log in again."})
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authentication token"})
			return
		}

		c.Set(ContextUserID, claims.UserObjectID())
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// UserID returns the id set by Authenticate.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}
