package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/store"
)

func newAuthRouter(st *store.MemoryStore) (*gin.Engine, TokenSettings) {
	tokens := TokenSettings{Issuer: auth.NewIssuer("test-secret", time.Hour)}
	r := gin.New()
	r.POST("/signup", Signup(st, tokens))
	r.POST("/login", Login(st, tokens))
	r.POST("/logout", Logout(st, tokens))
	r.GET("/me", middleware.Authenticate(tokens.Issuer), GetMe(st.Users()))
	return r, tokens
}

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.CookieName {
			return cookie
		}
	}
	return nil
}

func TestSignupIssuesTokenAndRejectsDuplicates(t *testing.T) {
	st := store.NewMemoryStore()
	r, tokens := newAuthRouter(st)
	body := gin.H{"name": "Asha", "email": "Asha@Example.com", "password": "pw123456"}

	rec := doJSON(t, r, http.MethodPost, "/signup", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatal("password hash leaked in signup response")
	}

	var resp struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.User.Email != "asha@example.com" || resp.User.Role != "user" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	claims, err := tokens.Issuer.Parse(resp.Token)
	if err != nil || claims.UserID != resp.User.ID {
		t.Fatalf("token does not belong to the new user: %v", err)
	}

	cookie := tokenCookie(rec)
	if cookie == nil || !cookie.HttpOnly || cookie.Value != resp.Token {
		t.Fatalf("expected http-only token cookie, got %+v", cookie)
	}
	if st.SessionCount() != 1 {
		t.Fatalf("expected one session record, got %d", st.SessionCount())
	}

	rec = doJSON(t, r, http.MethodPost, "/signup", body)
	if rec.Code != http.StatusBadRequest || messageOf(t, rec) != "You are already registered with this email!" {
		t.Fatalf("expected duplicate rejection, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	r, _ := newAuthRouter(store.NewMemoryStore())

	rec := doJSON(t, r, http.MethodPost, "/signup", gin.H{"name": "A", "email": "nope", "password": "x"})
	if rec.Code != http.StatusBadRequest || messageOf(t, rec) != "Valid email is required" {
		t.Fatalf("expected email validation error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/signup", gin.H{"name": "  ", "email": "a@example.com", "password": "x"})
	if rec.Code != http.StatusBadRequest || messageOf(t, rec) != "Name is required" {
		t.Fatalf("expected name validation error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginAndLogout(t *testing.T) {
	st := store.NewMemoryStore()
	r, _ := newAuthRouter(st)
	doJSON(t, r, http.MethodPost, "/signup", gin.H{"name": "Ravi", "email": "ravi@example.com", "password": "secret1"})

	rec := doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "ravi@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized || messageOf(t, rec) != "Invalid email or password" {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "nobody@example.com", "password": "secret1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "RAVI@example.com", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := tokenCookie(rec)
	if cookie == nil {
		t.Fatal("expected token cookie on login")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), "ravi@example.com") {
		t.Fatalf("expected profile via cookie, got %d %s", me.Code, me.Body.String())
	}

	sessions := st.SessionCount()
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	if out.Code != http.StatusOK || messageOf(t, out) != "Logged out successfully" {
		t.Fatalf("unexpected logout response %d %s", out.Code, out.Body.String())
	}
	cleared := tokenCookie(out)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", cleared)
	}
	if st.SessionCount() != sessions-1 {
		t.Fatalf("expected session to be removed, %d -> %d", sessions, st.SessionCount())
	}
}
