// Package notify tells administrators about new orders and confirmed
// payments. Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

const (
	EventOrderPlaced     = "order.placed"
	EventPaymentVerified = "payment.verified"
)

type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	OrderID   string         `json:"order_id"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent builds the envelope shared by every notifier.
func NewEvent(eventType string, order models.Order) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   order.OrderID,
		CreatedAt: time.Now().UTC(),
		Payload: map[string]any{
			"userId":        order.UserID.Hex(),
			"totalAmount":   order.TotalAmount,
			"paymentMethod": order.PaymentMethod,
			"paymentStatus": order.PaymentStatus,
			"orderStatus":   order.OrderStatus,
			"items":         len(order.Items),
		},
	}
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes each event as one JSON line.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(w io.Writer) *LogNotifier {
	return &LogNotifier{logger: log.New(w, "[NOTIFY] [INFO] ", log.LstdFlags)}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	n.logger.Println(string(data))
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
