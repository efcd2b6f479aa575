package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/workflow"
)

// respondWorkflowError maps Shop errors onto the API envelope. Anything it
// does not recognise is logged and answered with fallback as a 500.
func respondWorkflowError(c *gin.Context, route string, err error, fallback string) {
	var stockErr *workflow.StockError
	switch {
	case errors.As(err, &stockErr):
		respondWithError(c, http.StatusBadRequest, route, stockErr.Error())
	case errors.Is(err, workflow.ErrInvalidQuantity):
		respondWithError(c, http.StatusBadRequest, route, "Quantity must be greater than 0")
	case errors.Is(err, workflow.ErrInsufficientStock):
		respondWithError(c, http.StatusBadRequest, route, "Insufficient stock")
	case errors.Is(err, workflow.ErrProductNotFound):
		respondWithError(c, http.StatusNotFound, route, "Product not found")
	case errors.Is(err, workflow.ErrCartNotFound):
		respondWithError(c, http.StatusNotFound, route, "Cart not found")
	case errors.Is(err, workflow.ErrItemNotInCart):
		respondWithError(c, http.StatusNotFound, route, "Item not found in cart")
	case errors.Is(err, workflow.ErrCartEmpty):
		respondWithError(c, http.StatusBadRequest, route, "Cart is empty")
	case errors.Is(err, workflow.ErrInvalidPaymentMethod):
		respondWithError(c, http.StatusBadRequest, route, "Payment method must be cod or online")
	case errors.Is(err, workflow.ErrOrderNotFound):
		respondWithError(c, http.StatusNotFound, route, "Order not found")
	case errors.Is(err, workflow.ErrNotCancellable):
		respondWithError(c, http.StatusBadRequest, route, "Order cannot be cancelled at this stage. Please contact customer support.")
	case errors.Is(err, workflow.ErrInvalidStatus):
		respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
	default:
		respondServerError(c, route, fallback, err)
	}
}
