package workflow

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

const Currency = "INR"

// Gateway methods accepted by VerifyPayment.
const (
	GatewayUPI        = "upi"
	GatewayCard       = "card"
	GatewayNetbanking = "netbanking"
)

type PaymentSession struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentURL    string  `json:"paymentUrl"`
	TransactionID string  `json:"transactionId"`
}

type GatewayPage struct {
	OrderID   string   `json:"orderId"`
	Amount    float64  `json:"amount"`
	Currency  string   `json:"currency"`
	VerifyURL string   `json:"verifyUrl"`
	Methods   []string `json:"methods"`
}

type VerifyInput struct {
	OrderRef      string
	Method        string
	TransactionID string
	UpiID         string
	CardNumber    string
	Bank          string
}

type VerifyResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
}

// InitiatePayment hands out the mock gateway link for one of the user's
// online orders.
func (s *Shop) InitiatePayment(ctx context.Context, userID primitive.ObjectID, ref string) (PaymentSession, error) {
	order, err := s.GetOrder(ctx, userID, ref)
	if err != nil {
		return PaymentSession{}, err
	}
	if order.PaymentMethod != models.PaymentOnline {
		return PaymentSession{}, ErrOrderNotFound
	}

	transactionID := ""
	payment, err := s.store.Payments().FindByOrder(ctx, order.ID)
	switch {
	case err == nil:
		transactionID = payment.TransactionID
	case !errors.Is(err, store.ErrNotFound):
		return PaymentSession{}, err
	}
	if transactionID == "" {
		transactionID = models.NewTransactionID(s.now())
	}

	return PaymentSession{
		OrderID:       order.OrderID,
		Amount:        order.TotalAmount,
		Currency:      Currency,
		PaymentURL:    s.opts.PublicBaseURL + "/api/payment/mock-gateway/" + order.OrderID,
		TransactionID: transactionID,
	}, nil
}

// MockGateway describes the simulated payment form for an order.
func (s *Shop) MockGateway(ctx context.Context, ref string) (GatewayPage, error) {
	order, err := s.store.Orders().FindByRef(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return GatewayPage{}, ErrOrderNotFound
	}
	if err != nil {
		return GatewayPage{}, err
	}
	return GatewayPage{
		OrderID:   order.OrderID,
		Amount:    order.TotalAmount,
		Currency:  Currency,
		VerifyURL: s.opts.PublicBaseURL + "/api/payment/verify",
		Methods:   []string{GatewayUPI, GatewayCard, GatewayNetbanking},
	}, nil
}

// VerifyPayment records a gateway confirmation: the order becomes paid and
// confirmed and its payment record completed. The caller is not checked
// against the order owner.
func (s *Shop) VerifyPayment(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	var (
		order      models.Order
		recognized float64
		method     string
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.store.Orders().FindByRef(ctx, in.OrderRef)
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		order.PaymentStatus = models.PaymentPaid
		order.OrderStatus = models.OrderConfirmed
		if err := s.store.Orders().Update(ctx, &order); err != nil {
			return err
		}

		payment, err := s.store.Payments().FindByOrder(ctx, order.ID)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[PAYMENT] [WARN] no payment record for %s", order.OrderID)
			return nil
		}
		if err != nil {
			return err
		}

		if payment.Status != models.PaymentRecordCompleted {
			recognized = payment.Amount
			method = string(payment.PaymentMethod)
		}
		now := s.now()
		payment.Status = models.PaymentRecordCompleted
		payment.PaymentGateway = in.Method
		payment.Metadata = gatewayMetadata(in)
		if in.TransactionID != "" {
			payment.TransactionID = in.TransactionID
		} else if payment.TransactionID == "" {
			payment.TransactionID = models.NewTransactionID(now)
		}
		if payment.PaymentDate == nil {
			payment.PaymentDate = &now
		}
		return s.store.Payments().Update(ctx, &payment)
	})
	if err != nil {
		return VerifyResult{}, err
	}

	log.Printf("[PAYMENT] [INFO] payment verified for %s via %q", order.OrderID, in.Method)
	s.metrics.Verified()
	s.metrics.Revenue(method, recognized)
	s.publish(ctx, notify.EventPaymentVerified, order)

	return VerifyResult{
		Success:     true,
		Message:     "Payment verified successfully",
		OrderID:     order.OrderID,
		RedirectURL: s.opts.FrontendURL + "/order-confirmation/" + order.OrderID,
	}, nil
}

// gatewayMetadata keeps only the detail relevant to the chosen method. Card
// numbers are reduced to their last four digits.
func gatewayMetadata(in VerifyInput) bson.M {
	meta := bson.M{}
	switch in.Method {
	case GatewayUPI:
		if in.UpiID != "" {
			meta["upiId"] = in.UpiID
		}
	case GatewayCard:
		digits := strings.ReplaceAll(in.CardNumber, " ", "")
		if len(digits) > 4 {
			digits = digits[len(digits)-4:]
		}
		if digits != "" {
			meta["cardLastFour"] = digits
		}
	case GatewayNetbanking:
		if in.Bank != "" {
			meta["bank"] = in.Bank
		}
	}
	return meta
}
