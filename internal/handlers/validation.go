package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/internal/models"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			_, known := models.ParseCategory(fl.Field().String())
			return known
		})
	}
}

// fieldMessages holds the user-facing text for a failed rule, keyed by
// "<struct>.<field>.<tag>".
var fieldMessages = map[string]string{
	"signupRequest.Name.required":     "Name is required",
	"signupRequest.Email.required":    "Valid email is required",
	"signupRequest.Email.email":       "Valid email is required",
	"signupRequest.Password.required": "Password is required",
	"loginRequest.Email.required":     "Valid email is required",
	"loginRequest.Email.email":        "Valid email is required",
	"loginRequest.Password.required":  "Password is required",

	"productRequest.Name.required":     "Product name is required",
	"productRequest.Name.max":          "Product name cannot exceed 100 characters",
	"productRequest.Price.required":    "Price must be a number",
	"productRequest.Price.gte":         "Price cannot be negative",
	"productRequest.Category.required": "Category is required",
	"productRequest.Category.category": "Invalid category",
	"productRequest.Company.required":  "Company name is required",
	"productRequest.Stock.gte":         "Stock cannot be negative",

	"addToCartRequest.ProductID.required":      "Product ID is required",
	"addToCartRequest.Quantity.gte":            "Quantity must be greater than 0",
	"updateCartRequest.Quantity.required":      "Quantity is required",
	"placeOrderRequest.PaymentMethod.required": "Payment method must be cod or online",
	"placeOrderRequest.PaymentMethod.oneof":    "Payment method must be cod or online",
	"initiatePaymentRequest.OrderID.required":  "Order ID is required",
	"verifyPaymentRequest.OrderID.required":    "Order ID is required",
	"updateStatusRequest.OrderStatus.required": "Invalid order status",
}

// respondValidationError answers 400 with the first message and the full
// list, e.g. {"message": "Name is required", "errors": [...]}.
func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			details = append(details, validationMessage(fieldError))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": details[0],
			"errors":  details,
		})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		msg := fmt.Sprintf("%s has an invalid type", typeErr.Field)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg, "errors": []string{msg}})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "errors": []string{err.Error()}})
}

func validationMessage(fieldError validator.FieldError) string {
	key := fieldError.StructNamespace() + "." + fieldError.Tag()
	if msg, ok := fieldMessages[key]; ok {
		return msg
	}

	field := lowerCamel(fieldError.Field())
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
