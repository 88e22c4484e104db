package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/config"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/handler"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/middleware"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Receipt *handler.ReceiptHandler
	Invoice *handler.InvoiceHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager   *utils.JWTManager
	Cfg          *config.Config
	Log          *zap.Logger
	Gatherer     prometheus.Gatherer
	LoginLimiter *middleware.IPRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h, deps)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.Idempotency())

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	auth := v1.Group("/auth")
	{
		login := []gin.HandlerFunc{h.Auth.Login}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{deps.LoginLimiter.Middleware()}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/logout", middleware.AuthMiddleware(deps.JWTManager), h.Auth.Logout)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/profile", h.Auth.GetProfile)

	registerCatalogRoutes(protected, h)
	registerReceiptRoutes(protected, h)
	registerInvoiceRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerCatalogRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/clients", h.Catalog.ListClients)
	protected.GET("/products", h.Catalog.ListProducts)
}

func registerReceiptRoutes(protected *gin.RouterGroup, h *Handlers) {
	receipt := protected.Group("/receipt")
	{
		receipt.GET("", h.Receipt.View)
		receipt.GET("/catalog", h.Receipt.Catalog)
		receipt.POST("/client", h.Receipt.SelectClient)
		receipt.POST("/refresh", h.Receipt.Refresh)
		receipt.POST("/lines", h.Receipt.AddLine)
		receipt.PUT("/lines/:product_id", h.Receipt.UpdateLine)
		receipt.DELETE("/lines/:product_id", h.Receipt.RemoveLine)
		receipt.DELETE("/lines", h.Receipt.ClearLines)
		receipt.POST("/cancel", h.Receipt.Cancel)
		receipt.POST("/generate", h.Receipt.Generate)
	}
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers) {
	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Invoice.List)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.POST("/:id/receipt", h.Invoice.Rerender)
		invoices.POST("/:id/print", h.Printer.PrintInvoice)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/printer/status", h.Printer.GetStatus)
}
