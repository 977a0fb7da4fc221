package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"
	"github.com/tradeflowhq/tradeflow/internal/cache"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// Stores groups the in-memory repositories for service tests.
type Stores struct {
	CompanyRepo      *InMemoryCompanyStore
	BillingRepo      *InMemoryBillingStore
	WebhookEventRepo *InMemoryWebhookEventStore
	TagOrderRepo     *InMemoryTagOrderStore
}

// BaseServiceTestSuite provides shared setup for service tests: a context
// with an authenticated user, in-memory stores and fakes for the external
// dependencies.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	cfg    *config.Configuration
	log    *logger.Logger
	db     *FakeDBClient
	stores Stores
	cache  cache.Cache

	subscriptionFetcher *FakeSubscriptionFetcher
	customerFetcher     *FakeCustomerFetcher
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.log = logger.NewNopLogger()
	s.db = NewFakeDBClient()
	s.cache = cache.NewInMemoryCache(s.cfg)
	s.subscriptionFetcher = NewFakeSubscriptionFetcher()
	s.customerFetcher = NewFakeCustomerFetcher()
	s.stores = Stores{
		CompanyRepo:      NewInMemoryCompanyStore(),
		BillingRepo:      NewInMemoryBillingStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
		TagOrderRepo:     NewInMemoryTagOrderStore(),
	}

	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxRequestID, "req_test")
	ctx = context.WithValue(ctx, types.CtxCompanyID, "comp_test")
	ctx = context.WithValue(ctx, types.CtxUserID, "user_test")
	ctx = context.WithValue(ctx, types.CtxUserEmail, "office@example.com")
	ctx = context.WithValue(ctx, types.CtxUserRole, string(types.UserRoleOffice))
	s.ctx = ctx
}

func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) GetContext() context.Context { return s.ctx }

// SetContextUser swaps the authenticated user on the suite context.
func (s *BaseServiceTestSuite) SetContextUser(userID, email, role string) {
	ctx := s.ctx
	ctx = context.WithValue(ctx, types.CtxUserID, userID)
	ctx = context.WithValue(ctx, types.CtxUserEmail, email)
	ctx = context.WithValue(ctx, types.CtxUserRole, role)
	s.ctx = ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration { return s.cfg }
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger        { return s.log }
func (s *BaseServiceTestSuite) GetDB() postgres.IClient          { return s.db }
func (s *BaseServiceTestSuite) GetStores() Stores                { return s.stores }
func (s *BaseServiceTestSuite) GetCache() cache.Cache            { return s.cache }

func (s *BaseServiceTestSuite) GetSubscriptionFetcher() *FakeSubscriptionFetcher {
	return s.subscriptionFetcher
}

func (s *BaseServiceTestSuite) GetCustomerFetcher() *FakeCustomerFetcher {
	return s.customerFetcher
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.CompanyRepo.Clear()
	s.stores.BillingRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
	s.stores.TagOrderRepo.Clear()
}
