package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

var testAddress = models.ShippingAddress{
	Name:    "Asha",
	Address: "12 Market Road",
	City:    "Pune",
	Pincode: "411001",
	Phone:   "9999999999",
}

func (f *fixture) checkout(t *testing.T, method models.PaymentMethod) (models.Order, models.Payment) {
	t.Helper()
	order, payment, err := f.shop.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		ShippingAddress: testAddress,
		PaymentMethod:   method,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order, payment
}

func TestPlaceOrderSnapshotsCartAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phone := f.product(t, "Phone", 100, 10)
	book := f.product(t, "Book", 12.5, 4)
	_, _ = f.shop.AddToCart(ctx, f.userID, phone.ID, 3)
	_, _ = f.shop.AddToCart(ctx, f.userID, book.ID, 2)

	order, payment := f.checkout(t, models.PaymentCOD)

	if order.OrderID == "" || order.TotalAmount != 325 || len(order.Items) != 2 {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.OrderStatus != models.OrderPending || order.PaymentStatus != models.PaymentPending {
		t.Fatalf("unexpected statuses %s / %s", order.OrderStatus, order.PaymentStatus)
	}
	if order.ShippingAddress != testAddress {
		t.Fatalf("shipping address not copied: %+v", order.ShippingAddress)
	}
	if payment.OrderID != order.ID || payment.Status != models.PaymentRecordPending || payment.PaymentDate != nil {
		t.Fatalf("unexpected cod payment %+v", payment)
	}
	if payment.TransactionID != "" {
		t.Fatal("cod payments carry no transaction id")
	}

	if got := f.stock(t, phone.ID); got != 7 {
		t.Fatalf("expected phone stock 7, got %d", got)
	}
	if got := f.stock(t, book.ID); got != 2 {
		t.Fatalf("expected book stock 2, got %d", got)
	}
	if _, err := f.store.Carts().FindByUser(ctx, f.userID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cart to be deleted, got %v", err)
	}
	if count, _ := f.store.Orders().Count(ctx, ""); count != 1 {
		t.Fatalf("expected exactly one order, got %d", count)
	}
	if _, err := f.store.Payments().FindByOrder(ctx, order.ID); err != nil {
		t.Fatalf("expected a payment record: %v", err)
	}
	if types := f.notifier.types(); len(types) != 1 || types[0] != notify.EventOrderPlaced {
		t.Fatalf("expected one order.placed event, got %v", types)
	}
}

func TestPlaceOrderItemsSurviveCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 1)
	order, _ := f.checkout(t, models.PaymentCOD)

	p.Name = "Renamed"
	p.Price = 1
	_ = f.store.Products().Update(ctx, &p)

	got, err := f.shop.GetOrder(ctx, f.userID, order.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Items[0].Name != "Phone" || got.Items[0].Price != 100 || got.Items[0].Company != "Acme" {
		t.Fatalf("order snapshot changed: %+v", got.Items[0])
	}
}

func TestPlaceOrderOnlineCompletesPaymentImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 1)

	order, payment := f.checkout(t, models.PaymentOnline)
	if payment.Status != models.PaymentRecordCompleted || payment.PaymentDate == nil || payment.TransactionID == "" {
		t.Fatalf("unexpected online payment %+v", payment)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Fatalf("order stays pending until verification, got %s", order.PaymentStatus)
	}

	stats, err := f.shop.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.TotalRevenue != 100 || stats.RevenueBreakdown["online"].Count != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPlaceOrderRejectsEmptyCartAndShortStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.shop.PlaceOrder(ctx, f.userID, PlaceOrderInput{PaymentMethod: models.PaymentCOD})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	_, _, err = f.shop.PlaceOrder(ctx, f.userID, PlaceOrderInput{PaymentMethod: "barter"})
	if !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	p := f.product(t, "Phone", 100, 5)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 5)
	if err := f.store.Products().AdjustStock(ctx, p.ID, -3); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	_, _, err = f.shop.PlaceOrder(ctx, f.userID, PlaceOrderInput{PaymentMethod: models.PaymentCOD})
	var stockErr *StockError
	if !errors.As(err, &stockErr) || stockErr.Error() != "Insufficient stock for Phone" {
		t.Fatalf("expected stock error for Phone, got %v", err)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("stock error should unwrap to ErrInsufficientStock")
	}
	if got := f.stock(t, p.ID); got != 2 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
	if count, _ := f.store.Orders().Count(ctx, ""); count != 0 {
		t.Fatalf("expected no order, got %d", count)
	}
	if _, err := f.store.Carts().FindByUser(ctx, f.userID); err != nil {
		t.Fatalf("cart must survive a failed checkout: %v", err)
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Console", 300, 3)

	users := make([]primitive.ObjectID, 6)
	for i := range users {
		users[i] = primitive.NewObjectID()
		if _, err := f.shop.AddToCart(ctx, users[i], p.ID, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, userID := range users {
		wg.Add(1)
		go func(i int, userID primitive.ObjectID) {
			defer wg.Done()
			_, _, errs[i] = f.shop.PlaceOrder(ctx, userID, PlaceOrderInput{PaymentMethod: models.PaymentCOD})
		}(i, userID)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, ErrInsufficientStock):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if placed != 3 {
		t.Fatalf("expected 3 orders, got %d", placed)
	}
	if got := f.stock(t, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestNotifierFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(context.Background(), f.userID, p.ID, 1)

	f.checkout(t, models.PaymentCOD)
}

func TestOrderEventOutlivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(context.Background(), f.userID, p.ID, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := f.shop.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		ShippingAddress: testAddress,
		PaymentMethod:   models.PaymentCOD,
	}); err != nil {
		t.Fatalf("place order: %v", err)
	}

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.ctxErrs) != 1 || f.notifier.ctxErrs[0] != nil {
		t.Fatalf("expected the notifier to get a live context, got %v", f.notifier.ctxErrs)
	}
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 1)
	order, _ := f.checkout(t, models.PaymentCOD)

	if _, err := f.shop.GetOrder(ctx, primitive.NewObjectID(), order.OrderID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := f.shop.GetOrder(ctx, f.userID, order.ID.Hex()); err != nil {
		t.Fatalf("lookup by hex id: %v", err)
	}
	orders, err := f.shop.ListOrders(ctx, f.userID)
	if err != nil || len(orders) != 1 {
		t.Fatalf("expected one order, got %d (%v)", len(orders), err)
	}
}

func TestCancelOrderRestoresStockAndRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 4)
	order, _ := f.checkout(t, models.PaymentOnline)

	if _, err := f.shop.VerifyPayment(ctx, VerifyInput{OrderRef: order.OrderID, Method: GatewayUPI, UpiID: "a@upi"}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	cancelled, err := f.shop.CancelOrder(ctx, f.userID, order.OrderID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.OrderStatus != models.OrderCancelled || cancelled.PaymentStatus != models.PaymentRefunded {
		t.Fatalf("unexpected statuses %s / %s", cancelled.OrderStatus, cancelled.PaymentStatus)
	}
	if got := f.stock(t, p.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
	payment, _ := f.store.Payments().FindByOrder(ctx, order.ID)
	if payment.Status != models.PaymentRecordRefunded {
		t.Fatalf("expected refunded payment, got %s", payment.Status)
	}

	stats, _ := f.shop.Dashboard(ctx)
	if stats.TotalRevenue != 0 {
		t.Fatalf("refunded orders must not count as revenue, got %v", stats.TotalRevenue)
	}
}

func TestCancelOrderUnpaidKeepsPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 2)
	order, _ := f.checkout(t, models.PaymentCOD)

	cancelled, err := f.shop.CancelOrder(ctx, f.userID, order.ID.Hex())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.PaymentStatus != models.PaymentPending {
		t.Fatalf("expected pending payment status, got %s", cancelled.PaymentStatus)
	}
	if got := f.stock(t, p.ID); got != 10 {
		t.Fatalf("expected stock 10, got %d", got)
	}
}

func TestCancelOrderOnlyBeforeShipping(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderShipped, models.OrderDelivered, models.OrderCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.product(t, "Phone", 100, 10)
			_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 2)
			order, _ := f.checkout(t, models.PaymentCOD)

			if _, err := f.shop.UpdateOrderStatus(ctx, order.OrderID, status); err != nil {
				t.Fatalf("update status: %v", err)
			}
			if _, err := f.shop.CancelOrder(ctx, f.userID, order.OrderID); !errors.Is(err, ErrNotCancellable) {
				t.Fatalf("expected ErrNotCancellable, got %v", err)
			}
			if got := f.stock(t, p.ID); got != 8 {
				t.Fatalf("stock must not be restored, got %d", got)
			}
		})
	}
}

func TestCancelOrderOfAnotherUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Phone", 100, 10)
	_, _ = f.shop.AddToCart(ctx, f.userID, p.ID, 1)
	order, _ := f.checkout(t, models.PaymentCOD)

	if _, err := f.shop.CancelOrder(ctx, primitive.NewObjectID(), order.OrderID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
