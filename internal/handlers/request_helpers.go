package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// respondServerError logs the cause and answers with a generic message.
func respondServerError(c *gin.Context, route string, message string, err error) {
	log.Printf("[%s] internal error: %v", route, err)
	respondWithError(c, http.StatusInternalServerError, route, message)
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func currentUserID(c *gin.Context, route string) (primitive.ObjectID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		log.Printf("[%s] userId missing in context", route)
		respondWithError(c, http.StatusUnauthorized, route, "Access denied. Please log in to continue.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func parseObjectID(c *gin.Context, route, value, message string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, message)
		return primitive.NilObjectID, false
	}
	return id, true
}
