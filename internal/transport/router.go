package transport

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-backend/internal/identity"
	"storefront-backend/internal/metrics"
	"storefront-backend/internal/service"
)

type Services struct {
	Carts     service.CartService
	Orders    service.OrderService
	Accounts  service.AccountService
	Addresses service.AddressService
	Catalog   service.CatalogService
	Admin     service.AdminService
}

type Options struct {
	Prefix       string
	CORSOrigins  []string
	AuthHeader   string
	AdminEnforce bool
	Verifier     identity.Verifier
	Metrics      *metrics.ServerMetrics
}

func NewRouter(s Services, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(opts)))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)
	api.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"message": "Server is running!"})
	})

	auth := authenticate(opts.Verifier)

	accounts := &accountHandler{accounts: s.Accounts}
	api.POST("/auth/signup", accounts.signup)
	api.POST("/auth/login", accounts.login)
	if identity.Asserted(opts.Verifier) {
		api.POST("/auth/firebase-user", accounts.firebaseUser)
	} else {
		api.POST("/auth/firebase-user", auth, accounts.verifiedFirebaseUser)
	}
	api.GET("/auth/profile", auth, accounts.profile)

	carts := &cartHandler{carts: s.Carts}
	cart := api.Group("/cart", auth)
	{
		cart.GET("", carts.get)
		cart.POST("", carts.add)
		cart.PUT("/:productId", carts.update)
		cart.DELETE("/:productId", carts.remove)
		cart.DELETE("", carts.clear)
	}

	orders := &orderHandler{orders: s.Orders}
	order := api.Group("/orders", auth)
	{
		order.POST("", orders.create)
		order.GET("", orders.list)
	}

	addresses := &addressHandler{addresses: s.Addresses}
	api.POST("/address/add", addresses.add)
	api.GET("/address/:email", addresses.list)

	(&catalogHandler{catalog: s.Catalog}).register(api)

	admins := &adminHandler{admin: s.Admin}
	admin := api.Group("/admin", auth)
	if opts.AdminEnforce {
		admin.Use(requireAdmin(s.Accounts))
	}
	{
		admin.GET("/dashboard", admins.dashboard)
		admin.GET("/products", admins.listProducts)
		admin.POST("/products", admins.addProduct)
		admin.PUT("/products/:id", admins.updateProduct)
		admin.DELETE("/products/:id", admins.deleteProduct)
		admin.GET("/orders", admins.listOrders)
		admin.PUT("/orders/:id/status", admins.updateOrderStatus)
		admin.GET("/users", admins.listUsers)
		admin.DELETE("/users/:id", admins.deleteUser)
		admin.GET("/deleted-products", admins.listDeletedProducts)
		admin.POST("/restore-product/:id", admins.restoreProduct)
	}

	return r
}

func corsConfig(opts Options) cors.Config {
	authHeader := opts.AuthHeader
	if authHeader == "" {
		authHeader = identity.DefaultHeader
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", authHeader, idempotencyHeader, requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	for _, origin := range opts.CORSOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = opts.CORSOrigins
	cfg.AllowCredentials = true
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}
