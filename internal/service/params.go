package service

import (
	"github.com/tradeflowhq/tradeflow/internal/cache"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	"github.com/tradeflowhq/tradeflow/internal/domain/fulfillment"
	"github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	"github.com/tradeflowhq/tradeflow/internal/integration/stripe"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
)

// ServiceParams bundles the dependencies shared by all services so
// constructors stay stable as the dependency set grows.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	CompanyRepo      company.Repository
	BillingRepo      billing.Repository
	WebhookEventRepo webhookevent.Repository
	TagOrderRepo     fulfillment.Repository

	Cache  cache.Cache
	Bypass BypassResolver

	SubscriptionFetcher stripe.SubscriptionFetcher
	CustomerFetcher     stripe.CustomerFetcher
}
