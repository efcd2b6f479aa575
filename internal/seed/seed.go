// Package seed prepares a fresh database: the configured admin account and,
// on request, a demo catalog.
package seed

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Options struct {
	AdminEmail    string
	AdminPassword string
	DemoData      bool
}

type demoProduct struct {
	name        string
	price       float64
	category    models.ProductCategory
	company     string
	stock       int
	description string
}

var demoCatalog = []demoProduct{
	{"iPhone 15 Pro Max", 1199, models.CategoryElectronics, "Apple", 25, "Latest iPhone with Pro camera system and titanium design"},
	{"MacBook Pro 14\" M3", 1999, models.CategoryElectronics, "Apple", 15, "Powerful laptop with M3 chip for professional work"},
	{"Samsung Galaxy S24 Ultra", 1299, models.CategoryElectronics, "Samsung", 30, "Premium Android smartphone with S Pen and advanced camera"},
	{"Sony WH-1000XM5 Wireless Headphones", 349, models.CategoryElectronics, "Sony", 45, "Industry-leading noise canceling wireless headphones"},
	{"Nike Air Max 270", 129, models.CategoryClothing, "Nike", 80, "Comfortable running shoes with Air Max cushioning"},
	{"Levi's 501 Original Jeans", 89, models.CategoryClothing, "Levi's", 60, "Classic straight fit jeans, the original since 1873"},
	{"H&M Cotton T-Shirt", 19, models.CategoryClothing, "H&M", 150, "Soft cotton t-shirt, perfect for everyday wear"},
	{"The Great Gatsby", 12, models.CategoryBooks, "Penguin Books", 100, "Classic American novel by F. Scott Fitzgerald"},
	{"Dune", 18, models.CategoryBooks, "Ace Books", 50, "Epic science fiction novel by Frank Herbert"},
	{"Dyson V15 Detect Vacuum", 699, models.CategoryHome, "Dyson", 12, "Cordless vacuum with laser dust detection"},
	{"Instant Pot Duo 7-in-1", 89, models.CategoryHome, "Instant Pot", 25, "Multi-use pressure cooker"},
	{"Yoga Mat Premium", 49, models.CategoryOther, "Manduka", 35, "Non-slip yoga mat for daily practice"},
}

// Run is safe to call on every start: an existing admin is left alone (or
// promoted) and the demo catalog only lands in an empty products collection.
func Run(ctx context.Context, st store.Store, opts Options) error {
	ownerID, err := ensureAdmin(ctx, st.Users(), opts)
	if err != nil {
		return err
	}
	if !opts.DemoData {
		return nil
	}
	return seedCatalog(ctx, st.Products(), ownerID)
}

func ensureAdmin(ctx context.Context, users store.Users, opts Options) (primitive.ObjectID, error) {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		log.Println("[SEED] [INFO] ADMIN_EMAIL not set, skipping admin account")
		return primitive.NilObjectID, nil
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing.ID, nil
		}
		if err := users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return primitive.NilObjectID, err
		}
		log.Printf("[SEED] [INFO] promoted %s to admin", email)
		return existing.ID, nil
	case !errors.Is(err, store.ErrNotFound):
		return primitive.NilObjectID, err
	}

	if opts.AdminPassword == "" {
		log.Printf("[SEED] [WARN] ADMIN_PASSWORD not set, cannot create admin %s", email)
		return primitive.NilObjectID, nil
	}
	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return primitive.NilObjectID, err
	}

	now := time.Now()
	admin := models.User{
		Name:         "Admin User",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Addresses:    []models.Address{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, &admin); err != nil {
		return primitive.NilObjectID, err
	}
	log.Printf("[SEED] [INFO] created admin %s", email)
	return admin.ID, nil
}

func seedCatalog(ctx context.Context, products store.Products, ownerID primitive.ObjectID) error {
	count, err := products.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[SEED] [INFO] catalog already has %d products, skipping demo data", count)
		return nil
	}

	now := time.Now()
	for i, demo := range demoCatalog {
		// Distinct timestamps keep the newest-first listing in catalog order.
		created := now.Add(-time.Duration(i) * time.Second)
		product := models.Product{
			Name:        demo.name,
			Price:       demo.price,
			Category:    demo.category,
			Company:     demo.company,
			Description: demo.description,
			Stock:       demo.stock,
			IsActive:    true,
			UserID:      ownerID,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if err := products.Create(ctx, &product); err != nil {
			return err
		}
	}
	log.Printf("[SEED] [INFO] inserted %d demo products", len(demoCatalog))
	return nil
}
