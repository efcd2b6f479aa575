package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/workflow"
)

type initiatePaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type verifyPaymentRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
	UpiID         string `json:"upiId"`
	CardNumber    string `json:"cardNumber"`
	Bank          string `json:"bank"`
}

func InitiatePayment(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/initiate"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		var req initiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		session, err := shop.InitiatePayment(ctx, userID, strings.TrimSpace(req.OrderID))
		if err != nil {
			respondWorkflowError(c, route, err, "Error initiating payment")
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// MockGateway stands in for the hosted payment page; it needs no login.
func MockGateway(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payment/mock-gateway/:orderId"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		page, err := shop.MockGateway(ctx, c.Param("orderId"))
		if err != nil {
			respondWorkflowError(c, route, err, "Error loading payment gateway")
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func VerifyPayment(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/verify"
		defer handlePanic(c, route)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := shop.VerifyPayment(ctx, workflow.VerifyInput{
			OrderRef:      strings.TrimSpace(req.OrderID),
			Method:        strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
			TransactionID: strings.TrimSpace(req.TransactionID),
			UpiID:         strings.TrimSpace(req.UpiID),
			CardNumber:    req.CardNumber,
			Bank:          strings.TrimSpace(req.Bank),
		})
		if err != nil {
			respondWorkflowError(c, route, err, "Payment verification failed")
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
