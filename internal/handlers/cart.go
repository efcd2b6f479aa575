package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/workflow"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"omitempty,gte=1"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func GetCart(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := shop.GetCart(ctx, userID)
		if err != nil {
			respondWorkflowError(c, route, err, "Error fetching cart")
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func AddToCart(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/add"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, ok := parseObjectID(c, route, req.ProductID, "Invalid product ID")
		if !ok {
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := shop.AddToCart(ctx, userID, productID, quantity)
		if err != nil {
			respondWorkflowError(c, route, err, "Error adding to cart")
			return
		}

		log.Printf("[%s] %d x %s added for %s", route, quantity, productID.Hex(), userID.Hex())
		c.JSON(http.StatusOK, cart)
	}
}

func UpdateCartItem(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/update/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}
		productID, ok := parseObjectID(c, route, c.Param("productId"), "Invalid product ID")
		if !ok {
			return
		}

		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := shop.UpdateCartItem(ctx, userID, productID, *req.Quantity)
		if err != nil {
			respondWorkflowError(c, route, err, "Error updating cart")
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func RemoveCartItem(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/remove/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}
		productID, ok := parseObjectID(c, route, c.Param("productId"), "Invalid product ID")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := shop.RemoveCartItem(ctx, userID, productID)
		if err != nil {
			respondWorkflowError(c, route, err, "Error removing from cart")
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func ClearCart(shop *workflow.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/clear"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := shop.ClearCart(ctx, userID); err != nil {
			respondWorkflowError(c, route, err, "Error clearing cart")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
	}
}
