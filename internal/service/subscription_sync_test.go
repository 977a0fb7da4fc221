package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	"github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/testutil"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type SubscriptionSyncSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionSyncService
	params  ServiceParams
}

func TestSubscriptionSyncService(t *testing.T) {
	suite.Run(t, new(SubscriptionSyncSuite))
}

func (s *SubscriptionSyncSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetDB(),
		CompanyRepo:         s.GetStores().CompanyRepo,
		BillingRepo:         s.GetStores().BillingRepo,
		WebhookEventRepo:    s.GetStores().WebhookEventRepo,
		TagOrderRepo:        s.GetStores().TagOrderRepo,
		Cache:               s.GetCache(),
		Bypass:              NewBypassResolver(s.GetConfig()),
		SubscriptionFetcher: s.GetSubscriptionFetcher(),
		CustomerFetcher:     s.GetCustomerFetcher(),
	}
	s.service = NewSubscriptionSyncService(s.params)

	_ = s.GetStores().CompanyRepo.Create(s.GetContext(), &company.Company{
		ID:        "comp_test",
		Name:      "Test Trades Ltd",
		Plan:      "basic",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	})
}

func (s *SubscriptionSyncSuite) proSubscription() *stripelib.Subscription {
	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	return &stripelib.Subscription{
		ID:     "sub_123",
		Status: stripelib.SubscriptionStatusActive,
		Items: &stripelib.SubscriptionItemList{
			Data: []*stripelib.SubscriptionItem{
				{
					Quantity:           1,
					CurrentPeriodStart: periodStart.Unix(),
					CurrentPeriodEnd:   periodEnd.Unix(),
					Price: &stripelib.Price{
						ID:        "price_pro",
						LookupKey: "pro_monthly",
						Metadata: map[string]string{
							"plan":    "pro",
							"modules": "crm,tools",
						},
					},
				},
				{
					Quantity:           4,
					CurrentPeriodStart: periodStart.Unix(),
					CurrentPeriodEnd:   periodEnd.Unix(),
					Price: &stripelib.Price{
						ID: "price_extra_users",
						Metadata: map[string]string{
							"addon": "extra_users",
						},
					},
				},
			},
		},
	}
}

func (s *SubscriptionSyncSuite) TestSyncDerivesFullSnapshot() {
	result, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", s.proSubscription(), "evt_1")
	s.NoError(err)
	s.True(result.Success)
	s.False(result.Skipped)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierPro, row.Plan)
	s.Equal(types.SubscriptionStatusActive, row.SubscriptionStatus)
	s.Equal("sub_123", row.StripeSubscriptionID)
	s.Equal([]types.ModuleKey{types.ModuleCRM, types.ModuleTools}, row.EnabledModules)
	s.Equal(int64(4), row.ExtraUsers)
	s.NotNil(row.CurrentPeriodStart)
	s.NotNil(row.CurrentPeriodEnd)

	// Legacy company columns mirror the snapshot.
	comp, err := s.GetStores().CompanyRepo.Get(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal("pro", comp.Plan)
	s.Equal(types.SubscriptionStatusActive, comp.SubscriptionStatus)
}

func (s *SubscriptionSyncSuite) TestDuplicateEventIsSkipped() {
	sub := s.proSubscription()

	result, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", sub, "evt_dup")
	s.NoError(err)
	s.True(result.Success)

	// Mutate the payload; the replay must not apply it.
	sub.Items.Data[1].Quantity = 99
	result, err = s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", sub, "evt_dup")
	s.NoError(err)
	s.True(result.Success)
	s.True(result.Skipped)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(int64(4), row.ExtraUsers)
}

func (s *SubscriptionSyncSuite) TestDuplicateMarkerKeepsTransactionCommittable() {
	_, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", s.proSubscription(), "evt_replay")
	s.NoError(err)

	// The marker insert runs inside the sync transaction. A redelivered
	// event must not abort it: the duplicate is a skip signal, and the
	// commit has to stay healthy.
	err = s.GetDB().WithTx(s.GetContext(), func(ctx context.Context) error {
		createErr := s.GetStores().WebhookEventRepo.Create(ctx, &webhookevent.ProcessedEvent{
			ID:          "marker_replay",
			CompanyID:   "comp_test",
			EventID:     "evt_replay",
			EventType:   "subscription.sync",
			ProcessedAt: time.Now().UTC(),
		})
		s.True(ierr.IsAlreadyExists(createErr))
		return nil
	})
	s.NoError(err)

	result, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", s.proSubscription(), "evt_replay")
	s.NoError(err)
	s.True(result.Success)
	s.True(result.Skipped)
}

func (s *SubscriptionSyncSuite) TestSyncOverwritesWholeRow() {
	_, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", s.proSubscription(), "evt_1")
	s.NoError(err)

	// The subscription drops the add-on and downgrades.
	downgraded := &stripelib.Subscription{
		ID:     "sub_123",
		Status: stripelib.SubscriptionStatusActive,
		Items: &stripelib.SubscriptionItemList{
			Data: []*stripelib.SubscriptionItem{
				{
					Quantity: 1,
					Price: &stripelib.Price{
						ID:       "price_starter",
						Metadata: map[string]string{"plan": "starter"},
					},
				},
			},
		},
	}

	_, err = s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", downgraded, "evt_2")
	s.NoError(err)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierStarter, row.Plan)
	s.Zero(row.ExtraUsers)
	s.Empty(row.EnabledModules)
}

func (s *SubscriptionSyncSuite) TestPlanFromLookupKeyFallback() {
	sub := &stripelib.Subscription{
		ID:     "sub_lookup",
		Status: stripelib.SubscriptionStatusTrialing,
		Items: &stripelib.SubscriptionItemList{
			Data: []*stripelib.SubscriptionItem{
				{
					Quantity: 1,
					Price: &stripelib.Price{
						ID:        "price_starter",
						LookupKey: "starter_annual",
					},
				},
			},
		},
	}

	_, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", sub, "evt_lookup")
	s.NoError(err)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierStarter, row.Plan)
	s.Equal(types.SubscriptionStatusTrialing, row.SubscriptionStatus)
}

func (s *SubscriptionSyncSuite) TestRefreshAndSyncFetchesCurrentState() {
	s.GetSubscriptionFetcher().Subscriptions["sub_123"] = s.proSubscription()

	result, err := s.service.RefreshAndSyncSubscription(s.GetContext(), "sub_123", "comp_test", "evt_refresh")
	s.NoError(err)
	s.True(result.Success)
	s.Equal([]string{"sub_123"}, s.GetSubscriptionFetcher().Calls)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierPro, row.Plan)
}

func (s *SubscriptionSyncSuite) TestRefreshFailureLeavesStateUntouched() {
	s.GetSubscriptionFetcher().Err = ierr.NewError("stripe unavailable").Mark(ierr.ErrHTTPClient)

	_, err := s.service.RefreshAndSyncSubscription(s.GetContext(), "sub_123", "comp_test", "evt_fail")
	s.Error(err)

	_, err = s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.True(ierr.IsNotFound(err))

	// The event was not marked, so a redelivery can still apply.
	_, err = s.GetStores().WebhookEventRepo.Get(s.GetContext(), "comp_test", "evt_fail")
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionSyncSuite) TestPaymentFailedPreservesComposition() {
	_, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", s.proSubscription(), "evt_1")
	s.NoError(err)

	result, err := s.service.HandlePaymentFailed(s.GetContext(), "comp_test", "evt_pf")
	s.NoError(err)
	s.True(result.Success)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, row.SubscriptionStatus)
	s.Equal(types.PlanTierPro, row.Plan)
	s.Equal([]types.ModuleKey{types.ModuleCRM, types.ModuleTools}, row.EnabledModules)
	s.Equal(int64(4), row.ExtraUsers)
}

func (s *SubscriptionSyncSuite) TestPaymentFailedBeforeFirstSync() {
	result, err := s.service.HandlePaymentFailed(s.GetContext(), "comp_test", "evt_pf_first")
	s.NoError(err)
	s.True(result.Success)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, row.SubscriptionStatus)
	// Legacy "basic" plan maps onto the starter tier.
	s.Equal(types.PlanTierStarter, row.Plan)
}

func (s *SubscriptionSyncSuite) TestValidation() {
	sub := s.proSubscription()

	_, err := s.service.SyncSubscriptionToBilling(s.GetContext(), "", sub, "evt_1")
	s.True(ierr.IsValidation(err))

	_, err = s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", nil, "evt_1")
	s.True(ierr.IsValidation(err))

	_, err = s.service.SyncSubscriptionToBilling(s.GetContext(), "comp_test", sub, "")
	s.True(ierr.IsValidation(err))
}
