package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/store"
)

type productRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Category    string   `json:"category" binding:"required,category"`
	Company     string   `json:"company" binding:"required"`
	Stock       *int     `json:"stock" binding:"omitempty,gte=0"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	IsActive    *bool    `json:"isActive"`
}

// trimmed returns the request with whitespace removed and reports the first
// required field left empty by trimming.
func (r productRequest) trimmed() (productRequest, string) {
	r.Name = strings.TrimSpace(r.Name)
	r.Company = strings.TrimSpace(r.Company)
	r.Description = strings.TrimSpace(r.Description)
	r.Image = strings.TrimSpace(r.Image)
	switch {
	case r.Name == "":
		return r, "Product name is required"
	case r.Company == "":
		return r, "Company name is required"
	}
	return r, ""
}

func bindProduct(c *gin.Context) (productRequest, bool) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return req, false
	}
	req, problem := req.trimmed()
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": problem, "errors": []string{problem}})
		return req, false
	}
	return req, true
}

/* =========================
   CREATE
========================= */

func AddProduct(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /add"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c, route)
		if !ok {
			return
		}
		req, ok := bindProduct(c)
		if !ok {
			return
		}

		category, _ := models.ParseCategory(req.Category)
		stock := 1
		if req.Stock != nil {
			stock = *req.Stock
		}
		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		now := time.Now()
		product := models.Product{
			Name:        req.Name,
			Price:       *req.Price,
			Category:    category,
			Company:     req.Company,
			Description: req.Description,
			Image:       req.Image,
			Stock:       stock,
			IsActive:    isActive,
			UserID:      userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := products.Create(ctx, &product); err != nil {
			respondServerError(c, route, "Error adding product", err)
			return
		}

		log.Printf("[%s] product created: %s", route, product.ID.Hex())
		c.JSON(http.StatusCreated, product)
	}
}

/* =========================
   READ
========================= */

// ListProducts returns the whole catalog, newest first. Pagination applies
// only when both page and limit are given.
func ListProducts(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /show"
		defer handlePanic(c, route)

		filter := store.ProductFilter{}
		if raw := strings.TrimSpace(c.Query("category")); raw != "" {
			category, ok := models.ParseCategory(raw)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "Invalid category")
				return
			}
			filter.Category = string(category)
		}

		pageStr, limitStr := c.Query("page"), c.Query("limit")
		if pageStr != "" && limitStr != "" {
			skip, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "Invalid pagination params")
				return
			}
			filter.Skip, filter.Limit = skip, limit
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := products.List(ctx, filter)
		if err != nil {
			respondServerError(c, route, "Error fetching products", err)
			return
		}

		log.Printf("[%s] returning %d products", route, len(list))
		c.JSON(http.StatusOK, list)
	}
}

func SearchProducts(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /search/:key"
		defer handlePanic(c, route)

		key := strings.TrimSpace(c.Param("key"))
		if key == "" {
			respondWithError(c, http.StatusBadRequest, route, "Search key is required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := products.List(ctx, store.ProductFilter{Search: key})
		if err != nil {
			respondServerError(c, route, "Error searching products", err)
			return
		}
		if len(list) == 0 {
			respondWithError(c, http.StatusNotFound, route, "result not found")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetProduct(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, c.Param("id"), "Invalid product ID")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondServerError(c, route, "Error fetching product", err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

/* =========================
   UPDATE / DELETE
========================= */

// UpdateProduct replaces the editable fields. Stock and the active flag keep
// their stored values when omitted.
func UpdateProduct(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /update/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, c.Param("id"), "Invalid product ID")
		if !ok {
			return
		}
		req, ok := bindProduct(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondServerError(c, route, "Error updating product", err)
			return
		}

		category, _ := models.ParseCategory(req.Category)
		product.Name = req.Name
		product.Price = *req.Price
		product.Category = category
		product.Company = req.Company
		product.Description = req.Description
		product.Image = req.Image
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		product.UpdatedAt = time.Now()

		if err := products.Update(ctx, &product); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "Product not found")
				return
			}
			respondServerError(c, route, "Error updating product", err)
			return
		}

		log.Printf("[%s] product updated: %s", route, id.Hex())
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(products store.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /delete/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, c.Param("id"), "Invalid product ID")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := products.Delete(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "Product not found")
				return
			}
			respondServerError(c, route, "Error deleting product", err)
			return
		}

		log.Printf("[%s] product deleted: %s", route, id.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
