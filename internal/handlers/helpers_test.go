package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
	"storefront/internal/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for Authenticate.
func asUser(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}

func newTestShop(st store.Store) *workflow.Shop {
	return workflow.NewShop(st, notify.Multi{}, nil, workflow.Options{
		PublicBaseURL: "http://api.test",
		FrontendURL:   "http://shop.test",
	})
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	decode(t, rec, &body)
	msg, _ := body["message"].(string)
	return msg
}

func createProduct(t *testing.T, st store.Store, name string, price float64, stock int) models.Product {
	t.Helper()
	now := time.Now()
	product := models.Product{
		Name:      name,
		Price:     price,
		Category:  models.CategoryElectronics,
		Company:   "Acme",
		Stock:     stock,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.Products().Create(context.Background(), &product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func createUser(t *testing.T, st store.Store, email string) models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: email, Role: models.RoleUser}
	if err := st.Users().Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
