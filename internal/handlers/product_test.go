package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

func newProductRouter(st store.Store, userID primitive.ObjectID) *gin.Engine {
	r := gin.New()
	r.POST("/add", asUser(userID), AddProduct(st.Products()))
	r.GET("/show", ListProducts(st.Products()))
	r.GET("/search/:key", SearchProducts(st.Products()))
	r.GET("/product/:id", GetProduct(st.Products()))
	r.PATCH("/update/:id", UpdateProduct(st.Products()))
	r.DELETE("/delete/:id", DeleteProduct(st.Products()))
	return r
}

func TestAddProductDefaultsAndCanonicalCategory(t *testing.T) {
	st := store.NewMemoryStore()
	owner := primitive.NewObjectID()
	r := newProductRouter(st, owner)

	rec := doJSON(t, r, http.MethodPost, "/add", gin.H{
		"name":     "  Kettle ",
		"price":    25.5,
		"category": "home",
		"company":  "Acme",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var product models.Product
	decode(t, rec, &product)
	if product.Name != "Kettle" || product.Category != models.CategoryHome {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.Stock != 1 || !product.IsActive || !product.InStock {
		t.Fatalf("expected stock 1 and active, got stock=%d active=%v", product.Stock, product.IsActive)
	}
	if product.UserID != owner {
		t.Fatalf("expected owner %s, got %s", owner.Hex(), product.UserID.Hex())
	}
}

func TestAddProductValidationMessages(t *testing.T) {
	st := store.NewMemoryStore()
	r := newProductRouter(st, primitive.NewObjectID())

	cases := []struct {
		name    string
		body    gin.H
		message string
	}{
		{"missing name", gin.H{"price": 1, "category": "Books", "company": "A"}, "Product name is required"},
		{"blank name", gin.H{"name": "   ", "price": 1, "category": "Books", "company": "A"}, "Product name is required"},
		{"negative price", gin.H{"name": "x", "price": -1, "category": "Books", "company": "A"}, "Price cannot be negative"},
		{"unknown category", gin.H{"name": "x", "price": 1, "category": "Toys", "company": "A"}, "Invalid category"},
		{"negative stock", gin.H{"name": "x", "price": 1, "category": "Books", "company": "A", "stock": -2}, "Stock cannot be negative"},
		{"price type", gin.H{"name": "x", "price": "free", "category": "Books", "company": "A"}, "price has an invalid type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/add", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := messageOf(t, rec); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}

	if count, _ := st.Products().Count(context.Background()); count != 0 {
		t.Fatalf("expected no products stored, got %d", count)
	}
}

func TestSearchProducts(t *testing.T) {
	st := store.NewMemoryStore()
	createProduct(t, st, "Laptop Pro", 999, 3)
	createProduct(t, st, "Phone", 499, 3)
	r := newProductRouter(st, primitive.NewObjectID())

	rec := doJSON(t, r, http.MethodGet, "/search/LAPTOP", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var found []models.Product
	decode(t, rec, &found)
	if len(found) != 1 || found[0].Name != "Laptop Pro" {
		t.Fatalf("unexpected results %+v", found)
	}

	rec = doJSON(t, r, http.MethodGet, "/search/tablet", nil)
	if rec.Code != http.StatusNotFound || messageOf(t, rec) != "result not found" {
		t.Fatalf("expected 404 result not found, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestListProductsPagination(t *testing.T) {
	st := store.NewMemoryStore()
	for _, name := range []string{"a", "b", "c"} {
		createProduct(t, st, name, 1, 1)
	}
	r := newProductRouter(st, primitive.NewObjectID())

	var all []models.Product
	decode(t, doJSON(t, r, http.MethodGet, "/show", nil), &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}

	var page []models.Product
	decode(t, doJSON(t, r, http.MethodGet, "/show?page=2&limit=2", nil), &page)
	if len(page) != 1 {
		t.Fatalf("expected 1 product on page 2, got %d", len(page))
	}

	if rec := doJSON(t, r, http.MethodGet, "/show?page=0&limit=2", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/show?category=Toys", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
}

func TestGetUpdateDeleteProduct(t *testing.T) {
	st := store.NewMemoryStore()
	product := createProduct(t, st, "Camera", 300, 4)
	r := newProductRouter(st, primitive.NewObjectID())
	path := "/product/" + product.ID.Hex()

	if rec := doJSON(t, r, http.MethodGet, "/product/not-an-id", nil); rec.Code != http.StatusBadRequest || messageOf(t, rec) != "Invalid product ID" {
		t.Fatalf("expected 400 Invalid product ID, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/product/"+primitive.NewObjectID().Hex(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec := doJSON(t, r, http.MethodPatch, "/update/"+product.ID.Hex(), gin.H{
		"name":     "Camera II",
		"price":    350,
		"category": "Electronics",
		"company":  "Acme",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.Product
	decode(t, doJSON(t, r, http.MethodGet, path, nil), &updated)
	if updated.Name != "Camera II" || updated.Price != 350 || updated.Stock != 4 {
		t.Fatalf("expected name/price changed and stock kept, got %+v", updated)
	}

	rec = doJSON(t, r, http.MethodDelete, "/delete/"+product.ID.Hex(), nil)
	if rec.Code != http.StatusOK || messageOf(t, rec) != "Product deleted successfully" {
		t.Fatalf("unexpected delete response %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, r, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
