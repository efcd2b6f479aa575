package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type addressRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	Pincode   string `json:"pincode" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

func (r addressRequest) apply(addr *models.Address) {
	addr.Name = strings.TrimSpace(r.Name)
	addr.Address = strings.TrimSpace(r.Address)
	addr.City = strings.TrimSpace(r.City)
	addr.State = strings.TrimSpace(r.State)
	addr.Pincode = strings.TrimSpace(r.Pincode)
	addr.Phone = strings.TrimSpace(r.Phone)
	addr.IsDefault = r.IsDefault
}

// loadUser fetches the caller's document, answering 404 or 500 itself.
func loadUser(c *gin.Context, users store.Users, route string) (models.User, bool) {
	userID, ok := currentUserID(c, route)
	if !ok {
		return models.User{}, false
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(c, http.StatusNotFound, route, "User not found")
		return models.User{}, false
	}
	if err != nil {
		respondServerError(c, route, "Error fetching user", err)
		return models.User{}, false
	}
	return user, true
}

func saveAddresses(c *gin.Context, users store.Users, route string, userID primitive.ObjectID, addresses []models.Address, failure string) bool {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := users.UpdateAddresses(ctx, userID, addresses); err != nil {
		respondServerError(c, route, failure, err)
		return false
	}
	return true
}

func indexOfAddress(addresses []models.Address, id string) int {
	for i := range addresses {
		if addresses[i].ID == id {
			return i
		}
	}
	return -1
}

func GetAddresses(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/addresses"
		defer handlePanic(c, route)

		user, ok := loadUser(c, users, route)
		if !ok {
			return
		}
		addresses := user.Addresses
		if addresses == nil {
			addresses = []models.Address{}
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func GetDefaultAddress(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/addresses/default"
		defer handlePanic(c, route)

		user, ok := loadUser(c, users, route)
		if !ok {
			return
		}
		addr, found := user.DefaultAddress()
		if !found {
			respondWithError(c, http.StatusNotFound, route, "No default address found")
			return
		}
		c.JSON(http.StatusOK, addr)
	}
}

// CreateAddress appends an address. The first address is always the default
// and a new default clears the flag on the others.
func CreateAddress(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/addresses"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, ok := loadUser(c, users, route)
		if !ok {
			return
		}

		addr := models.Address{ID: uuid.NewString()}
		req.apply(&addr)
		if len(user.Addresses) == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			for i := range user.Addresses {
				user.Addresses[i].IsDefault = false
			}
		}
		user.Addresses = append(user.Addresses, addr)

		if !saveAddresses(c, users, route, user.ID, user.Addresses, "Error adding address") {
			return
		}

		log.Printf("[%s] address %s created for %s", route, addr.ID, user.ID.Hex())
		c.JSON(http.StatusCreated, addr)
	}
}

func UpdateAddress(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/addresses/:addressId"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, ok := loadUser(c, users, route)
		if !ok {
			return
		}

		index := indexOfAddress(user.Addresses, c.Param("addressId"))
		if index < 0 {
			respondWithError(c, http.StatusNotFound, route, "Address not found")
			return
		}
		wasDefault := user.Addresses[index].IsDefault
		if req.IsDefault {
			for i := range user.Addresses {
				user.Addresses[i].IsDefault = false
			}
		}
		req.apply(&user.Addresses[index])
		// Clearing the flag on the default hands it to the first address.
		if wasDefault && !req.IsDefault {
			user.Addresses[0].IsDefault = true
		}

		if !saveAddresses(c, users, route, user.ID, user.Addresses, "Error updating address") {
			return
		}
		c.JSON(http.StatusOK, user.Addresses[index])
	}
}

// DeleteAddress removes an address; when it was the default the first
// remaining address takes over.
func DeleteAddress(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/addresses/:addressId"
		defer handlePanic(c, route)

		user, ok := loadUser(c, users, route)
		if !ok {
			return
		}

		index := indexOfAddress(user.Addresses, c.Param("addressId"))
		if index < 0 {
			respondWithError(c, http.StatusNotFound, route, "Address not found")
			return
		}
		wasDefault := user.Addresses[index].IsDefault
		remaining := append(user.Addresses[:index:index], user.Addresses[index+1:]...)
		if wasDefault && len(remaining) > 0 {
			remaining[0].IsDefault = true
		}

		if !saveAddresses(c, users, route, user.ID, remaining, "Error deleting address") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
	}
}
