package api

import (
	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/api/v1"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/rest/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Health  *v1.HealthHandler
	Webhook *v1.WebhookHandler
	Billing *v1.BillingHandler
}

// NewRouter builds the gin engine with the full middleware chain. The
// webhook route skips auth (signature verification is its authenticity
// boundary) but gets a per-IP rate limit; billing reads require a session
// and an admin or office role.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandlerMiddleware(log),
	)

	router.GET("/health", handlers.Health.Health)

	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(cfg.Webhook.RateLimitRPS, cfg.Webhook.RateLimitBurst))
	webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)

	private := router.Group("/v1")
	private.Use(
		middleware.AuthenticateMiddleware(cfg, log),
		middleware.SentryCompanyContextMiddleware,
	)

	billing := private.Group("/billing")
	billing.Use(middleware.RequireBillingRoleMiddleware)
	billing.GET("/status", handlers.Billing.GetBillingStatus)
	billing.GET("/entitlements", handlers.Billing.GetEntitlements)

	return router
}
