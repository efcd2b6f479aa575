package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

// TokenSettings controls how session tokens reach the client.
type TokenSettings struct {
	Issuer *auth.Issuer
	// SecureCookie marks the token cookie Secure; enabled outside development.
	SecureCookie bool
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Signup(st store.Store, tokens TokenSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /signup"
		defer handlePanic(c, route)

		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Name is required", "errors": []string{"Name is required"}})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := requestContext(c)
		defer cancel()

		if _, err := st.Users().FindByEmail(ctx, email); err == nil {
			log.Println("[AUTH] [ERROR] signup email exists:", email)
			respondWithError(c, http.StatusBadRequest, route, "You are already registered with this email!")
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			respondServerError(c, route, "Server error", err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondServerError(c, route, "Server error", err)
			return
		}

		now := time.Now()
		user := models.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleUser,
			Addresses:    []models.Address{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := st.Users().Create(ctx, &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, http.StatusBadRequest, route, "You are already registered with this email!")
				return
			}
			respondServerError(c, route, "Server error", err)
			return
		}

		token, ok := startSession(c, st, tokens, user, route)
		if !ok {
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

func Login(st store.Store, tokens TokenSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := st.Users().FindByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			log.Println("[AUTH] [ERROR] login unknown email:", email)
			respondWithError(c, http.StatusUnauthorized, route, "Invalid email or password")
			return
		}
		if err != nil {
			respondServerError(c, route, "Server error", err)
			return
		}
		if !auth.CheckPassword(user.PasswordHash, req.Password) {
			log.Println("[AUTH] [ERROR] login invalid credentials for:", email)
			respondWithError(c, http.StatusUnauthorized, route, "Invalid email or password")
			return
		}

		token, ok := startSession(c, st, tokens, user, route)
		if !ok {
			return
		}

		log.Println("[AUTH] [INFO] user login succeeded:", email)
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

// startSession issues a token, records its session and sets the cookie.
func startSession(c *gin.Context, st store.Store, tokens TokenSettings, user models.User, route string) (string, bool) {
	token, claims, err := tokens.Issuer.Issue(user.ID, user.Email)
	if err != nil {
		respondServerError(c, route, "Server error", err)
		return "", false
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session := models.Session{
		SessionID: claims.SessionID(),
		UserID:    user.ID,
		Data:      bson.M{"userAgent": c.Request.UserAgent(), "ip": c.ClientIP()},
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: time.Now(),
	}
	if err := st.Sessions().Create(ctx, &session); err != nil {
		log.Println("[AUTH] [ERROR] session record failed:", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, token, int(tokens.Issuer.TTL().Seconds()), "/", "", tokens.SecureCookie, true)
	return token, true
}

// Logout clears the cookie and drops the session record when the presented
// token is still readable. It never fails.
func Logout(st store.Store, tokens TokenSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /logout"
		defer handlePanic(c, route)

		raw, _ := c.Cookie(middleware.CookieName)
		if raw == "" {
			if parts := strings.Fields(c.GetHeader("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				raw = parts[1]
			}
		}
		if raw != "" {
			if claims, err := tokens.Issuer.Parse(raw); err == nil {
				ctx, cancel := requestContext(c)
				defer cancel()
				if err := st.Sessions().Delete(ctx, claims.SessionID()); err != nil {
					log.Println("[AUTH] [ERROR] session delete failed:", err)
				}
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.CookieName, "", -1, "/", "", tokens.SecureCookie, true)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func GetMe(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/me"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.FindByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}
		if err != nil {
			respondServerError(c, route, "Server error", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
