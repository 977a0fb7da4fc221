package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/testutil"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type EntitlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EntitlementService
	params  ServiceParams
}

func TestEntitlementService(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	cfg := s.GetConfig()
	cfg.Auth.BypassEmails = []string{"Support@TradeflowHQ.com"}

	s.params = ServiceParams{
		Logger:              s.GetLogger(),
		Config:              cfg,
		DB:                  s.GetDB(),
		CompanyRepo:         s.GetStores().CompanyRepo,
		BillingRepo:         s.GetStores().BillingRepo,
		WebhookEventRepo:    s.GetStores().WebhookEventRepo,
		TagOrderRepo:        s.GetStores().TagOrderRepo,
		Cache:               s.GetCache(),
		Bypass:              NewBypassResolver(cfg),
		SubscriptionFetcher: s.GetSubscriptionFetcher(),
		CustomerFetcher:     s.GetCustomerFetcher(),
	}
	s.service = NewEntitlementService(s.params)
}

func (s *EntitlementServiceSuite) TestNumericLimitsAddBaseAndAddons() {
	entitlements := billing.OrgEntitlements{
		Plan:           types.PlanTierStarter,
		ExtraUsers:     5,
		ExtraEntities:  2,
		ExtraStorageMB: 512,
	}

	limit := s.service.GetLimit(entitlements, types.EntitlementUsers, "user@example.com")
	s.Equal(int64(8), limit.Value) // 3 base + 5 purchased
	s.False(limit.Boolean)

	limit = s.service.GetLimit(entitlements, types.EntitlementLegalEntities, "user@example.com")
	s.Equal(int64(3), limit.Value)

	limit = s.service.GetLimit(entitlements, types.EntitlementStorageMB, "user@example.com")
	s.Equal(int64(1536), limit.Value)

	// No add-on applies to invoice volume.
	limit = s.service.GetLimit(entitlements, types.EntitlementInvoicesPerMonth, "user@example.com")
	s.Equal(int64(50), limit.Value)
}

func (s *EntitlementServiceSuite) TestUnknownPlanDegradesToFree() {
	entitlements := billing.OrgEntitlements{Plan: types.PlanTier("platinum")}

	limit := s.service.GetLimit(entitlements, types.EntitlementUsers, "user@example.com")
	s.Equal(int64(1), limit.Value)

	limit = s.service.GetLimit(entitlements, types.EntitlementModuleCRM, "user@example.com")
	s.False(limit.Enabled)
}

func (s *EntitlementServiceSuite) TestModulesFromSubscriptionAndTier() {
	entitlements := billing.OrgEntitlements{
		Plan:           types.PlanTierStarter,
		EnabledModules: []types.ModuleKey{types.ModuleCertificates},
	}

	limit := s.service.GetLimit(entitlements, types.EntitlementModuleCertificates, "user@example.com")
	s.True(limit.Enabled)
	s.True(limit.Boolean)

	limit = s.service.GetLimit(entitlements, types.EntitlementModulePortal, "user@example.com")
	s.False(limit.Enabled)

	// Pro grants crm and tools regardless of price metadata.
	proEntitlements := billing.OrgEntitlements{Plan: types.PlanTierPro}
	limit = s.service.GetLimit(proEntitlements, types.EntitlementModuleCRM, "user@example.com")
	s.True(limit.Enabled)
	limit = s.service.GetLimit(proEntitlements, types.EntitlementModuleTools, "user@example.com")
	s.True(limit.Enabled)
	limit = s.service.GetLimit(proEntitlements, types.EntitlementModulePortal, "user@example.com")
	s.False(limit.Enabled)
}

func (s *EntitlementServiceSuite) TestUnknownKeyFailsClosed() {
	entitlements := billing.OrgEntitlements{Plan: types.PlanTierEnterprise}

	limit := s.service.GetLimit(entitlements, types.EntitlementKey("module_payroll"), "user@example.com")
	s.False(limit.Enabled)
	s.Zero(limit.Value)
}

func (s *EntitlementServiceSuite) TestBypassGrantsEverything() {
	entitlements := billing.OrgEntitlements{Plan: types.PlanTierFree}

	// Matching is case-insensitive.
	limit := s.service.GetLimit(entitlements, types.EntitlementUsers, "support@tradeflowhq.com")
	s.Equal(int64(math.MaxInt32), limit.Value)

	limit = s.service.GetLimit(entitlements, types.EntitlementModulePortal, "support@tradeflowhq.com")
	s.True(limit.Enabled)

	def := s.service.GetPlanDefinition(types.PlanTierFree, "support@tradeflowhq.com")
	s.Equal(types.PlanTierEnterprise, def.Tier)

	trial := s.service.GetTrialStatus(nil, nil, "support@tradeflowhq.com")
	s.True(trial.Active)
	s.Nil(trial.DaysRemaining)
}

func (s *EntitlementServiceSuite) TestTrialStatus() {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := s.service.(*entitlementService)
	svc.now = func() time.Time { return now }

	// No trial ever started.
	status := svc.GetTrialStatus(nil, nil, "user@example.com")
	s.False(status.Active)
	s.False(status.Expired)

	// Explicit end in the future.
	start := now.Add(-48 * time.Hour)
	end := now.Add(5 * 24 * time.Hour)
	status = svc.GetTrialStatus(&start, &end, "user@example.com")
	s.True(status.Active)
	s.Equal(5, *status.DaysRemaining)

	// Missing end falls back to the default trial length.
	status = svc.GetTrialStatus(&start, nil, "user@example.com")
	s.True(status.Active)
	s.Equal(12, *status.DaysRemaining) // 14 days minus the 2 elapsed

	// Past end.
	oldStart := now.Add(-30 * 24 * time.Hour)
	status = svc.GetTrialStatus(&oldStart, nil, "user@example.com")
	s.False(status.Active)
	s.True(status.Expired)
}

func (s *EntitlementServiceSuite) TestPlanDefinition() {
	def := s.service.GetPlanDefinition(types.PlanTierPro, "user@example.com")
	s.Equal(types.PlanTierPro, def.Tier)
	s.Equal("Pro", def.Label)
	s.Equal(int64(10), def.Limits["users"])
	s.ElementsMatch([]types.ModuleKey{types.ModuleCRM, types.ModuleTools}, def.Modules)
}

func (s *EntitlementServiceSuite) TestBypassResolverNormalization() {
	cfg := config.GetDefaultConfig()
	cfg.Auth.BypassEmails = []string{"  Ops@Example.COM  ", ""}
	resolver := NewBypassResolver(cfg)

	s.True(resolver.ResolveBypass("ops@example.com"))
	s.True(resolver.ResolveBypass("OPS@EXAMPLE.COM"))
	s.False(resolver.ResolveBypass(""))
	s.False(resolver.ResolveBypass("other@example.com"))
}
