// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/security"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds the services the API is served from.
type RouterConfig struct {
	Logger *logger.Logger

	// DB backs the readiness probe.
	DB handlers.Pinger

	Policy   *security.Policy
	Location *time.Location

	// Development disables the security header checks.
	Development bool

	Actors middleware.ActorResolver

	// Idempotency is optional; nil disables replay protection.
	Idempotency middleware.IdempotencyStore

	Catalog handlers.CatalogService
	Ledger  handlers.LedgerService
	Opname  handlers.OpnameService
	Reports handlers.ReportService
	Audit   handlers.AuditHistory
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.SecureHeaders(cfg.Development))
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor(cfg.Actors))
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler(cfg.Policy, cfg.Location)
	registerCatalogRoutes(v1, base, cfg)
	registerLedgerRoutes(v1, base, cfg)
	registerOpnameRoutes(v1, base, cfg)
	registerReportRoutes(v1, base, cfg)
	registerAuditRoutes(v1, base, cfg)

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Catalog)
	manage := middleware.RequireAction(cfg.Policy, security.ActionManageProducts)

	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/search", h.Search)
		products.GET("/low-stock", h.LowStock)
		products.GET("/:id", h.Get)
		products.POST("", manage, h.Create)
		products.PATCH("/:id", manage, h.Update)
		products.DELETE("/:id", manage, h.Delete)
	}
	rg.GET("/brands", h.Brands)
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewLedgerHandler(base, cfg.Ledger, cfg.Catalog)
	write := middleware.RequireAction(cfg.Policy, security.ActionWriteLedger)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/receipts", write, h.Receive)
		ledger.POST("/issues", write, h.Issue)
		ledger.GET("/issues/check", h.CheckIssue)
		ledger.POST("/adjustments", write, h.Adjust)
		ledger.GET("/entries", h.History)
		ledger.GET("/entries/recent", h.Recent)
		ledger.DELETE("/entries/:id", middleware.RequireAction(cfg.Policy, security.ActionDeleteEntry), h.DeleteEntry)
	}
}

func registerOpnameRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewOpnameHandler(base, cfg.Opname)

	opname := rg.Group("/opname")
	{
		opname.GET("/preview", h.Preview)
		opname.GET("/records", h.List)
		opname.GET("/records/:scope/:date", h.Get)
		opname.POST("/records", middleware.RequireAction(cfg.Policy, security.ActionWriteOpname), h.Save)
		opname.DELETE("/records/:id", middleware.RequireAction(cfg.Policy, security.ActionDeleteOpname), h.Delete)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportHandler(base, cfg.Reports)

	reports := rg.Group("/reports")
	{
		reports.GET("/daily-totals", h.DailyTotals)
		reports.GET("/monthly-sales", h.MonthlySales)
		reports.GET("/dashboard", h.Dashboard)
	}
}

func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}
	h := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit/:entity_type/:id", middleware.RequireAction(cfg.Policy, security.ActionViewAudit), h.History)
}
