package workflow

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

type PlaceOrderInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   models.PaymentMethod
}

// PlaceOrder converts the user's cart into an order with its payment record,
// takes the ordered quantities out of stock and deletes the cart. Either all
// of it commits or none of it does.
func (s *Shop) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (models.Order, models.Payment, error) {
	if !in.PaymentMethod.Valid() {
		return models.Order{}, models.Payment{}, ErrInvalidPaymentMethod
	}

	var (
		order   models.Order
		payment models.Payment
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.store.Carts().FindByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartEmpty
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return ErrCartEmpty
		}

		ids := make([]primitive.ObjectID, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := s.store.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return ErrProductNotFound
			}
			if product.Stock < item.Quantity {
				return &StockError{ProductID: product.ID, Name: product.Name, Available: product.Stock, Requested: item.Quantity}
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Name:      product.Name,
				Company:   product.Company,
			})
		}

		now := s.now()
		cart.Recalculate()
		order = models.Order{
			UserID:          userID,
			Items:           items,
			TotalAmount:     cart.TotalAmount,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentPending,
			OrderStatus:     models.OrderPending,
			OrderDate:       now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		order.EnsureOrderID(now)
		if err := s.store.Orders().Create(ctx, &order); err != nil {
			return err
		}

		payment = models.Payment{
			OrderID:       order.ID,
			UserID:        userID,
			Amount:        order.TotalAmount,
			PaymentMethod: in.PaymentMethod,
			Status:        models.PaymentRecordPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.PaymentMethod == models.PaymentOnline {
			payment.Status = models.PaymentRecordCompleted
			payment.PaymentDate = &now
		}
		if err := s.store.Payments().Create(ctx, &payment); err != nil {
			return err
		}

		for _, item := range items {
			err := s.store.Products().AdjustStock(ctx, item.ProductID, -item.Quantity)
			if errors.Is(err, store.ErrInsufficientStock) {
				product := products[item.ProductID]
				return &StockError{ProductID: item.ProductID, Name: product.Name, Available: product.Stock, Requested: item.Quantity}
			}
			if err != nil {
				return err
			}
		}

		return s.store.Carts().DeleteByUser(ctx, userID)
	})
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) {
			s.metrics.StockRejected()
		}
		return models.Order{}, models.Payment{}, err
	}

	log.Printf("[ORDER] [INFO] order %s placed by %s (%s, %.2f)", order.OrderID, userID.Hex(), order.PaymentMethod, order.TotalAmount)
	s.metrics.OrderPlaced(string(order.PaymentMethod))
	if payment.Status == models.PaymentRecordCompleted {
		log.Printf("[PAYMENT] [INFO] online revenue %.2f recognized for %s", payment.Amount, order.OrderID)
		s.metrics.Revenue(string(payment.PaymentMethod), payment.Amount)
	}
	s.publish(ctx, notify.EventOrderPlaced, order)

	return order, payment, nil
}

func (s *Shop) ListOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID)
}

// GetOrder resolves ref for its owner only; other users' orders are
// reported as missing.
func (s *Shop) GetOrder(ctx context.Context, userID primitive.ObjectID, ref string) (models.Order, error) {
	order, err := s.store.Orders().FindByRef(ctx, ref)
	if errors.Is(err, store.ErrNotFound) || (err == nil && order.UserID != userID) {
		return models.Order{}, ErrOrderNotFound
	}
	return order, err
}

// CancelOrder cancels an order that has not shipped yet, refunds it when it
// was paid and puts every line back into stock.
func (s *Shop) CancelOrder(ctx context.Context, userID primitive.ObjectID, ref string) (models.Order, error) {
	var order models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.GetOrder(ctx, userID, ref)
		if err != nil {
			return err
		}
		if !order.OrderStatus.Cancellable() {
			return ErrNotCancellable
		}

		wasPaid := order.PaymentStatus == models.PaymentPaid
		order.OrderStatus = models.OrderCancelled
		if wasPaid {
			order.PaymentStatus = models.PaymentRefunded
		}
		if err := s.store.Orders().Update(ctx, &order); err != nil {
			return err
		}

		if wasPaid {
			payment, err := s.store.Payments().FindByOrder(ctx, order.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				log.Printf("[ORDER] [WARN] no payment record to refund for %s", order.OrderID)
			case err != nil:
				return err
			default:
				payment.Status = models.PaymentRecordRefunded
				if err := s.store.Payments().Update(ctx, &payment); err != nil {
					return err
				}
			}
		}

		for _, item := range order.Items {
			err := s.store.Products().AdjustStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("[ORDER] [WARN] product %s no longer exists, stock not restored", item.ProductID.Hex())
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	log.Printf("[ORDER] [INFO] order %s cancelled by %s", order.OrderID, userID.Hex())
	s.metrics.Cancelled()
	return order, nil
}
