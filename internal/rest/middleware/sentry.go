package middleware

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// SentryMiddleware returns a middleware that captures errors and performance data
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryCompanyContextMiddleware sets company_id on the Sentry scope when it
// is present in the request context (e.g. after auth). Add this after
// AuthenticateMiddleware so the auto-captured span includes the tag for
// private routes.
func SentryCompanyContextMiddleware(c *gin.Context) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		c.Next()
		return
	}
	ctx := c.Request.Context()
	if companyID := types.GetCompanyID(ctx); companyID != "" {
		hub.Scope().SetTag("company_id", companyID)
	}
	c.Next()
}
