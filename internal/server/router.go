// Package server wires the HTTP routes onto a gin engine.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"storefront/internal/auth"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/store"
	"storefront/internal/workflow"
)

type Deps struct {
	Store          store.Store
	Shop           *workflow.Shop
	Issuer         *auth.Issuer
	SecureCookie   bool
	AllowedOrigins []string
	AllowAll       bool
	ServerMetrics  *metrics.ServerMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(d.AllowedOrigins, d.AllowAll))
	if d.ServerMetrics != nil {
		r.Use(middleware.Metrics(d.ServerMetrics))
	}

	tokens := handlers.TokenSettings{Issuer: d.Issuer, SecureCookie: d.SecureCookie}
	requireAuth := middleware.Authenticate(d.Issuer)
	requireAdmin := middleware.RequireAdmin(d.Store.Users())

	r.GET("/", handlers.Home())
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	api := r.Group("/api")
	api.GET("/health", handlers.Health())
	api.GET("/categories", handlers.GetCategories())
	api.GET("/me", requireAuth, handlers.GetMe(d.Store.Users()))

	// Auth and catalog routes answer both at the root and under /api.
	for _, g := range []*gin.RouterGroup{&r.RouterGroup, api} {
		g.POST("/signup", handlers.Signup(d.Store, tokens))
		g.POST("/login", handlers.Login(d.Store, tokens))
		g.POST("/logout", handlers.Logout(d.Store, tokens))

		g.GET("/show", handlers.ListProducts(d.Store.Products()))
		g.GET("/search/:key", handlers.SearchProducts(d.Store.Products()))
		g.GET("/product/:id", handlers.GetProduct(d.Store.Products()))
		g.POST("/add", requireAuth, requireAdmin, handlers.AddProduct(d.Store.Products()))
		g.PATCH("/update/:id", requireAuth, requireAdmin, handlers.UpdateProduct(d.Store.Products()))
		g.DELETE("/delete/:id", requireAuth, requireAdmin, handlers.DeleteProduct(d.Store.Products()))
	}

	cart := api.Group("/cart", requireAuth)
	{
		cart.GET("", handlers.GetCart(d.Shop))
		cart.POST("/add", handlers.AddToCart(d.Shop))
		cart.PUT("/update/:productId", handlers.UpdateCartItem(d.Shop))
		cart.DELETE("/remove/:productId", handlers.RemoveCartItem(d.Shop))
		cart.DELETE("/clear", handlers.ClearCart(d.Shop))
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.POST("", handlers.PlaceOrder(d.Shop))
		orders.GET("", handlers.ListOrders(d.Shop))
		orders.GET("/:orderId", handlers.GetOrder(d.Shop))
		orders.PUT("/:orderId/cancel", handlers.CancelOrder(d.Shop))
	}

	payment := api.Group("/payment")
	{
		payment.POST("/initiate", requireAuth, handlers.InitiatePayment(d.Shop))
		payment.GET("/mock-gateway/:orderId", handlers.MockGateway(d.Shop))
		payment.POST("/verify", requireAuth, handlers.VerifyPayment(d.Shop))
	}

	addresses := api.Group("/addresses", requireAuth)
	{
		addresses.GET("", handlers.GetAddresses(d.Store.Users()))
		addresses.GET("/default", handlers.GetDefaultAddress(d.Store.Users()))
		addresses.POST("", handlers.CreateAddress(d.Store.Users()))
		addresses.PUT("/:addressId", handlers.UpdateAddress(d.Store.Users()))
		addresses.DELETE("/:addressId", handlers.DeleteAddress(d.Store.Users()))
	}

	admin := api.Group("/admin", requireAuth, requireAdmin)
	{
		admin.GET("/orders", handlers.ListAllOrders(d.Shop))
		admin.PUT("/orders/:orderId/status", handlers.UpdateOrderStatus(d.Shop))
		admin.GET("/dashboard", handlers.Dashboard(d.Shop))
	}

	return r
}
