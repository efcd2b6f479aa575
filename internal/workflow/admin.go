package workflow

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

// ListAllOrders returns every order, newest first, with the owner's name and
// email attached.
func (s *Shop) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Shop) attachCustomers(ctx context.Context, orders []models.Order) error {
	seen := make(map[primitive.ObjectID]struct{}, len(orders))
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.UserID]; !ok {
			seen[order.UserID] = struct{}{}
			ids = append(ids, order.UserID)
		}
	}
	users, err := s.store.Users().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		if user, ok := users[orders[i].UserID]; ok {
			orders[i].Customer = &models.OrderCustomer{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}
	return nil
}

// UpdateOrderStatus moves an order to status. A cash-on-delivery order that
// becomes delivered has its payment completed, which is when its revenue
// counts; repeating delivered leaves the payment alone.
func (s *Shop) UpdateOrderStatus(ctx context.Context, ref string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ErrInvalidStatus
	}

	var (
		order      models.Order
		recognized float64
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.store.Orders().FindByRef(ctx, ref)
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		previous := order.OrderStatus
		order.OrderStatus = status
		if err := s.store.Orders().Update(ctx, &order); err != nil {
			return err
		}

		if order.PaymentMethod != models.PaymentCOD || status != models.OrderDelivered || previous == models.OrderDelivered {
			return nil
		}

		payment, err := s.store.Payments().FindByOrder(ctx, order.ID)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[ADMIN] [WARN] COD revenue not recorded: no payment for %s", order.OrderID)
			return nil
		}
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentRecordCompleted {
			return nil
		}

		now := s.now()
		payment.Status = models.PaymentRecordCompleted
		payment.PaymentDate = &now
		if err := s.store.Payments().Update(ctx, &payment); err != nil {
			return err
		}
		recognized = payment.Amount
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	if recognized > 0 {
		log.Printf("[ADMIN] [INFO] COD revenue %.2f recognized for %s", recognized, order.OrderID)
		s.metrics.Revenue(string(models.PaymentCOD), recognized)
	}

	orders := []models.Order{order}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

func (s *Shop) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	total, err := s.store.Orders().Count(ctx, "")
	if err != nil {
		return models.DashboardStats{}, err
	}
	pending, err := s.store.Orders().Count(ctx, models.OrderPending)
	if err != nil {
		return models.DashboardStats{}, err
	}
	breakdown, err := s.store.Payments().RevenueByMethod(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}

	amounts := make([]float64, 0, len(breakdown))
	for _, bucket := range breakdown {
		amounts = append(amounts, bucket.Amount)
	}
	return models.DashboardStats{
		TotalOrders:      total,
		PendingOrders:    pending,
		TotalRevenue:     models.SumAmounts(amounts...),
		RevenueBreakdown: breakdown,
	}, nil
}
