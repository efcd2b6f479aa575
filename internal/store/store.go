// Package store persists the storefront documents. The Mongo implementation
// is used in production; MemoryStore backs tests and local runs.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductFilter narrows product listings. Search is a case-insensitive
// substring match over name, company and category.
type ProductFilter struct {
	Category string
	Search   string
	Skip     int64
	Limit    int64
}

type Users interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	UpdateAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address) error
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
}

type Products interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdjustStock adds delta to the product stock. A negative delta only
	// applies while stock >= -delta, otherwise ErrInsufficientStock.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
}

type Carts interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	// Save recalculates the total and upserts the user's cart.
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type Orders interface {
	Create(ctx context.Context, order *models.Order) error
	// FindByRef resolves either the human-readable orderId or the hex _id.
	FindByRef(ctx context.Context, ref string) (models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	// Count counts orders, restricted to status when it is not empty.
	Count(ctx context.Context, status models.OrderStatus) (int64, error)
}

type Payments interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) (models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	// RevenueByMethod sums completed payments grouped by payment method.
	RevenueByMethod(ctx context.Context) (map[string]models.RevenueBucket, error)
}

type Sessions interface {
	Create(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, sessionID string) error
}

type Store interface {
	Users() Users
	Products() Products
	Carts() Carts
	Orders() Orders
	Payments() Payments
	Sessions() Sessions
	// WithTransaction runs fn so that either all of its writes commit or
	// none do. Repositories must be called with the ctx passed to fn.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
