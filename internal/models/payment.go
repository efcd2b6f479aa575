package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordRefunded  PaymentRecordStatus = "refunded"
)

// Payment tracks settlement of one order. A completed payment counts as revenue.
type Payment struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID        primitive.ObjectID  `bson:"orderId" json:"orderId"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	Amount         float64             `bson:"amount" json:"amount"`
	PaymentMethod  PaymentMethod       `bson:"paymentMethod" json:"paymentMethod"`
	TransactionID  string              `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Status         PaymentRecordStatus `bson:"status" json:"status"`
	PaymentGateway string              `bson:"paymentGateway,omitempty" json:"paymentGateway,omitempty"`
	PaymentDate    *time.Time          `bson:"paymentDate" json:"paymentDate"`
	Metadata       bson.M              `bson:"metadata" json:"metadata"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EnsureTransactionID generates a transaction id for online payments that
// do not carry one yet.
func (p *Payment) EnsureTransactionID(now time.Time) {
	if p.PaymentMethod == PaymentOnline && p.TransactionID == "" {
		p.TransactionID = NewTransactionID(now)
	}
}

// RevenueBucket aggregates completed payments of one method.
type RevenueBucket struct {
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

type DashboardStats struct {
	TotalOrders      int64                    `json:"totalOrders"`
	PendingOrders    int64                    `json:"pendingOrders"`
	TotalRevenue     float64                  `json:"totalRevenue"`
	RevenueBreakdown map[string]RevenueBucket `json:"revenueBreakdown"`
}
