// Package workflow holds the storefront business rules: the cart, checkout,
// cancellation, payment verification and admin status transitions. Every
// operation that writes runs inside a single store transaction.
package workflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

const publishTimeout = 2 * time.Second

type Options struct {
	// PublicBaseURL prefixes the mock gateway link returned by InitiatePayment.
	PublicBaseURL string
	// FrontendURL prefixes the confirmation redirect returned by VerifyPayment.
	FrontendURL string
}

type Shop struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.ShopMetrics
	opts     Options
	now      func() time.Time
}

func NewShop(st store.Store, notifier notify.Notifier, m *metrics.ShopMetrics, opts Options) *Shop {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &Shop{
		store:    st,
		notifier: notifier,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *Shop) publish(ctx context.Context, eventType string, order models.Order) {
	if s.notifier == nil {
		return
	}
	// The order is already committed; a client hanging up must not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, notify.NewEvent(eventType, order)); err != nil {
		log.Printf("[NOTIFY] [ERROR] %s for %s failed: %v", eventType, order.OrderID, err)
	}
}

/* =========================
   CART
========================= */

// GetCart returns the user's cart with product details attached. A user
// without a cart gets an empty one; nothing is persisted.
func (s *Shop) GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	cart, err := s.store.Carts().FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	if err := s.populate(ctx, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (s *Shop) populate(ctx context.Context, cart *models.Cart) error {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.store.Products().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range cart.Items {
		if product, ok := products[cart.Items[i].ProductID]; ok {
			p := product
			cart.Items[i].Product = &p
		}
	}
	return nil
}

// AddToCart appends a line at the product's current price or grows an
// existing line. The combined quantity must fit the live stock.
func (s *Shop) AddToCart(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, ErrInvalidQuantity
	}

	var cart models.Cart
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		product, err := s.store.Products().FindByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !product.IsActive) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		cart, err = s.store.Carts().FindByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			cart = models.Cart{UserID: userID, Items: []models.CartItem{}}
		} else if err != nil {
			return err
		}

		idx := cart.IndexOf(productID)
		wanted := quantity
		if idx >= 0 {
			wanted += cart.Items[idx].Quantity
		}
		if product.Stock < wanted {
			return ErrInsufficientStock
		}

		if idx >= 0 {
			cart.Items[idx].Quantity = wanted
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				Quantity:  quantity,
				Price:     product.Price,
			})
		}
		return s.store.Carts().Save(ctx, &cart)
	})
	if err != nil {
		return models.Cart{}, err
	}
	return cart, s.populate(ctx, &cart)
}

// UpdateCartItem sets the quantity of an existing line after checking it
// against the live product stock.
func (s *Shop) UpdateCartItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, ErrInvalidQuantity
	}

	var cart models.Cart
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.store.Carts().FindByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return err
		}

		idx := cart.IndexOf(productID)
		if idx < 0 {
			return ErrItemNotInCart
		}

		product, err := s.store.Products().FindByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if product.Stock < quantity {
			return ErrInsufficientStock
		}

		cart.Items[idx].Quantity = quantity
		return s.store.Carts().Save(ctx, &cart)
	})
	if err != nil {
		return models.Cart{}, err
	}
	return cart, s.populate(ctx, &cart)
}

func (s *Shop) RemoveCartItem(ctx context.Context, userID, productID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.store.Carts().FindByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return err
		}

		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		return s.store.Carts().Save(ctx, &cart)
	})
	if err != nil {
		return models.Cart{}, err
	}
	return cart, s.populate(ctx, &cart)
}

// ClearCart deletes the cart document rather than emptying it.
func (s *Shop) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.store.Carts().DeleteByUser(ctx, userID)
}
