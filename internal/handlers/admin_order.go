package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/workflow"
)

type updateStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

func ListAllOrders(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		orders, err := shop.ListAllOrders(ctx)
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

func UpdateOrderStatus(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:orderId/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		status := models.OrderStatus(strings.ToLower(strings.TrimSpace(req.OrderStatus)))

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := shop.UpdateOrderStatus(ctx, c.Param("orderId"), status)
		if err != nil {
			respondWorkflowError(c, route, err, "Error updating order status")
			return
		}

		log.Printf("[%s] order %s is now %s", route, order.OrderID, order.OrderStatus)
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "order": order})
	}
}

func Dashboard(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/dashboard"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		stats, err := shop.Dashboard(ctx)
		if err != nil {
			respondWorkflowError(c, route, err, "Error fetching dashboard stats")
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
