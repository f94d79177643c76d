package router

import (
	"github.com/cablenet/billing/internal/interfaces/http/handler"
	"github.com/cablenet/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups the HTTP handlers of the billing API
type Handlers struct {
	System  *handler.SystemHandler
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Client  *handler.ClientHandler
	Invoice *handler.InvoiceHandler
	Payment *handler.PaymentHandler
	Service *handler.ServiceOfferingHandler
}

// Guards holds the middleware attached to particular routes. A nil guard is
// skipped.
type Guards struct {
	// Authenticate runs on every versioned API route and must skip the
	// public ones itself.
	Authenticate gin.HandlerFunc
	// LoginLimit throttles the token endpoint.
	LoginLimit gin.HandlerFunc
	// Idempotency makes payment and generation requests safe to retry.
	Idempotency gin.HandlerFunc
	// Docs gates /swagger; the docs are not mounted when nil.
	Docs gin.HandlerFunc
	// After runs after authentication, e.g. span enrichment.
	After []gin.HandlerFunc
}

// Mount registers the banner, health check, docs and every /api/v1 route
func Mount(engine *gin.Engine, h Handlers, g Guards) *API {
	engine.GET("/", h.System.Root)
	engine.GET("/health", h.System.Health)
	if g.Docs != nil {
		engine.GET("/swagger/*any", g.Docs, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireAdmin()

	authRoutes := NewResource("/auth")
	authRoutes.POST("/token", g.LoginLimit, h.Auth.Token)
	authRoutes.POST("/refresh", g.LoginLimit, h.Auth.Refresh)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)

	userRoutes := NewResource("/users")
	userRoutes.POST("/register", g.LoginLimit, h.User.Register)
	userRoutes.POST("", admin, h.User.Create)
	userRoutes.GET("", h.User.List)
	userRoutes.DELETE("/:username", admin, h.User.Delete)

	clientRoutes := NewResource("/clients")
	clientRoutes.POST("", h.Client.Create)
	clientRoutes.GET("", h.Client.List)
	clientRoutes.GET("/:id", h.Client.GetByID)
	clientRoutes.PUT("/:id", h.Client.Update)
	clientRoutes.DELETE("/:id", h.Client.Delete)
	clientRoutes.GET("/:id/invoices", h.Client.ListInvoices)

	invoiceRoutes := NewResource("/invoices")
	invoiceRoutes.GET("", h.Invoice.List)
	invoiceRoutes.POST("", h.Invoice.Create)
	invoiceRoutes.POST("/generate", admin, g.Idempotency, h.Invoice.Generate)
	invoiceRoutes.GET("/generation-runs", h.Invoice.GenerationRuns)
	invoiceRoutes.GET("/:id", h.Invoice.GetByID)
	invoiceRoutes.PUT("/:id", h.Invoice.Update)
	invoiceRoutes.PUT("/:id/pay", h.Invoice.MarkPaid)
	invoiceRoutes.DELETE("/:id", h.Invoice.Delete)

	paymentRoutes := NewResource("/payments")
	paymentRoutes.POST("", g.Idempotency, h.Payment.Record)
	paymentRoutes.GET("", h.Payment.List)
	paymentRoutes.GET("/:id", h.Payment.GetByID)

	serviceRoutes := NewResource("/services")
	serviceRoutes.POST("", h.Service.Create)
	serviceRoutes.GET("", h.Service.List)
	serviceRoutes.GET("/:id", h.Service.GetByID)
	serviceRoutes.PUT("/:id", h.Service.Update)
	serviceRoutes.DELETE("/:id", h.Service.Delete)

	api := NewAPI(engine, "v1")
	api.Use(g.Authenticate)
	api.Use(g.After...)
	api.Add(authRoutes, userRoutes, clientRoutes, invoiceRoutes, paymentRoutes, serviceRoutes)
	api.Mount()

	return api
}
