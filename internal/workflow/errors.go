package workflow

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/store"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = store.ErrInsufficientStock
	ErrCartNotFound         = errors.New("cart not found")
	ErrItemNotInCart        = errors.New("item not found in cart")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotCancellable       = errors.New("order cannot be cancelled at this stage")
	ErrInvalidStatus        = errors.New("invalid order status")
)

// StockError reports the checkout line that could not be fulfilled.
type StockError struct {
	ProductID primitive.ObjectID
	Name      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.Name)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
