package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(issuer *auth.Issuer, users store.Users) *gin.Engine {
	r := gin.New()
	r.GET("/me", Authenticate(issuer), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.Hex()})
	})
	r.GET("/admin", Authenticate(issuer), RequireAdmin(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	msg, _ := body["message"].(string)
	return msg
}

func TestAuthenticateMessages(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	expired, _, _ := auth.NewIssuer("secret", -time.Hour).Issue(primitive.NewObjectID(), "a@example.com")
	r := newAuthRouter(issuer, store.NewMemoryStore().Users())

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing", "", "Access denied. Please log in to continue."},
		{"garbage", "Bearer nope", "Invalid authentication token"},
		{"wrong scheme", "Basic abc", "Access denied. Please log in to continue."},
		{"expired", "Bearer " + expired, "Your session has expired. Please log in again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := messageOf(t, rec); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}
}

func TestAuthenticatePrefersCookie(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	cookieUser := primitive.NewObjectID()
	cookieToken, _, _ := issuer.Issue(cookieUser, "cookie@example.com")
	headerToken, _, _ := issuer.Issue(primitive.NewObjectID(), "header@example.com")
	r := newAuthRouter(issuer, store.NewMemoryStore().Users())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["userId"] != cookieUser.Hex() {
		t.Fatalf("expected cookie user, got %s", body["userId"])
	}
}

func TestRequireAdminUsesLiveRole(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	st := store.NewMemoryStore()
	ctx := context.Background()
	user := models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	if err := st.Users().Create(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, _ := issuer.Issue(user.ID, user.Email)
	r := newAuthRouter(issuer, st.Users())

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := call(); rec.Code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}

	if err := st.Users().SetRole(ctx, user.ID, models.RoleUser); err != nil {
		t.Fatalf("demote: %v", err)
	}
	rec := call()
	if rec.Code != http.StatusForbidden || messageOf(t, rec) != "Admin access required" {
		t.Fatalf("expected 403 after demotion with the same token, got %d", rec.Code)
	}
}
