package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/workflow"
)

/* =========================
   REQUEST DTOs
========================= */

type shippingAddressRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Pincode string `json:"pincode" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

type placeOrderRequest struct {
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=cod online"`
}

func (r shippingAddressRequest) toModel() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    strings.TrimSpace(r.Name),
		Address: strings.TrimSpace(r.Address),
		City:    strings.TrimSpace(r.City),
		State:   strings.TrimSpace(r.State),
		Pincode: strings.TrimSpace(r.Pincode),
		Phone:   strings.TrimSpace(r.Phone),
	}
}

/* =========================
   CUSTOMER ORDERS
========================= */

func PlaceOrder(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, payment, err := shop.PlaceOrder(ctx, userID, workflow.PlaceOrderInput{
			ShippingAddress: req.ShippingAddress.toModel(),
			PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		})
		if err != nil {
			respondWorkflowError(c, route, err, "Error placing order")
			return
		}

		log.Printf("[%s] order %s placed by %s", route, order.OrderID, userID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"message": "Order placed successfully",
			"order":   order,
			"payment": payment,
		})
	}
}

func ListOrders(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		orders, err := shop.ListOrders(ctx, userID)
		if err != nil {
			respondWorkflowError(c, route, err, "Error fetching orders")
			return
		}
		if orders == nil {
			orders = []models.Order{}
		}
		c.JSON(http.StatusOK, orders)
	}
}

func GetOrder(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:orderId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := shop.GetOrder(ctx, userID, c.Param("orderId"))
		if err != nil {
			respondWorkflowError(c, route, err, "Error fetching order")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func CancelOrder(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:orderId/cancel"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := shop.CancelOrder(ctx, userID, c.Param("orderId"))
		if err != nil {
			respondWorkflowError(c, route, err, "Error cancelling order")
			return
		}

		log.Printf("[%s] order %s cancelled", route, order.OrderID)
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
	}
}
