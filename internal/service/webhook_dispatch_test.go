package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/testutil"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type WebhookDispatchSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookDispatchService
}

func TestWebhookDispatchService(t *testing.T) {
	suite.Run(t, new(WebhookDispatchSuite))
}

func (s *WebhookDispatchSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewWebhookDispatchService(ServiceParams{
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
	})

	_ = s.GetStores().CompanyRepo.Create(s.GetContext(), &company.Company{
		ID:               "comp_test",
		Name:             "Test Trades Ltd",
		StripeCustomerID: "cus_123",
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	})
}

func (s *WebhookDispatchSuite) makeEvent(id string, eventType stripelib.EventType, payload interface{}) stripelib.Event {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	return stripelib.Event{
		ID:   id,
		Type: eventType,
		Data: &stripelib.EventData{Raw: raw},
	}
}

func (s *WebhookDispatchSuite) TestSubscriptionUpdatedSyncsPayload() {
	event := s.makeEvent("evt_sub", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_123",
		"status":   "active",
		"metadata": map[string]string{"companyId": "comp_test"},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"quantity": 1,
					"price": map[string]interface{}{
						"id":       "price_pro",
						"metadata": map[string]string{"plan": "pro", "modules": "crm,tools"},
					},
				},
			},
		},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierPro, row.Plan)
	s.Equal([]types.ModuleKey{types.ModuleCRM, types.ModuleTools}, row.EnabledModules)
}

func (s *WebhookDispatchSuite) TestCompanyResolvedFromCustomerMetadata() {
	s.GetCustomerFetcher().Customers["cus_456"] = &stripelib.Customer{
		ID:       "cus_456",
		Metadata: map[string]string{"companyId": "comp_test"},
	}

	event := s.makeEvent("evt_cust_meta", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_456",
		"status":   "active",
		"customer": map[string]interface{}{"id": "cus_456"},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	_, err = s.GetStores().WebhookEventRepo.Get(s.GetContext(), "comp_test", "evt_cust_meta")
	s.NoError(err)
}

func (s *WebhookDispatchSuite) TestCompanyResolvedFromLocalMapping() {
	// Customer fetch yields no metadata; the local stripe_customer_id
	// mapping is the last resort.
	s.GetCustomerFetcher().Customers["cus_123"] = &stripelib.Customer{ID: "cus_123"}

	event := s.makeEvent("evt_local", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_789",
		"status":   "active",
		"customer": map[string]interface{}{"id": "cus_123"},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	_, err = s.GetStores().WebhookEventRepo.Get(s.GetContext(), "comp_test", "evt_local")
	s.NoError(err)
}

func (s *WebhookDispatchSuite) TestUnresolvableEventFails() {
	event := s.makeEvent("evt_orphan", "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_orphan",
		"status": "active",
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.True(ierr.IsNotFound(err))
	s.Equal(0, s.GetStores().BillingRepo.Count())
}

func (s *WebhookDispatchSuite) TestCheckoutCompletedForTags() {
	event := s.makeEvent("evt_checkout", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_tags",
		"mode":         "payment",
		"amount_total": 2500,
		"currency":     "gbp",
		"metadata": map[string]string{
			"companyId":    "comp_test",
			"purchaseType": "qr_tags",
			"qty":          "25",
		},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	order, err := s.GetStores().TagOrderRepo.GetBySessionID(s.GetContext(), "cs_tags")
	s.NoError(err)
	s.Equal(int64(25), order.Quantity)
}

func (s *WebhookDispatchSuite) TestCheckoutCompletedForSubscriptionRefreshes() {
	s.GetSubscriptionFetcher().Subscriptions["sub_new"] = &stripelib.Subscription{
		ID:     "sub_new",
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

	event := s.makeEvent("evt_sub_checkout", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_sub",
		"mode":         "subscription",
		"subscription": map[string]interface{}{"id": "sub_new"},
		"metadata":     map[string]string{"companyId": "comp_test"},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)
	s.Equal([]string{"sub_new"}, s.GetSubscriptionFetcher().Calls)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierStarter, row.Plan)
}

func (s *WebhookDispatchSuite) TestInvoicePaidRefreshes() {
	s.GetSubscriptionFetcher().Subscriptions["sub_renew"] = &stripelib.Subscription{
		ID:     "sub_renew",
		Status: stripelib.SubscriptionStatusActive,
		Items: &stripelib.SubscriptionItemList{
			Data: []*stripelib.SubscriptionItem{
				{
					Quantity: 1,
					Price: &stripelib.Price{
						ID:       "price_pro",
						Metadata: map[string]string{"plan": "pro"},
					},
				},
			},
		},
	}

	event := s.makeEvent("evt_inv", "invoice.paid", map[string]interface{}{
		"id":             "in_1",
		"billing_reason": "subscription_cycle",
		"metadata":       map[string]string{"companyId": "comp_test"},
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{
				{"subscription": map[string]interface{}{"id": "sub_renew"}},
			},
		},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.PlanTierPro, row.Plan)
}

func (s *WebhookDispatchSuite) TestManualInvoiceIgnored() {
	event := s.makeEvent("evt_manual", "invoice.paid", map[string]interface{}{
		"id":             "in_manual",
		"billing_reason": "manual",
		"metadata":       map[string]string{"companyId": "comp_test"},
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{
				{"subscription": map[string]interface{}{"id": "sub_renew"}},
			},
		},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)
	s.Empty(s.GetSubscriptionFetcher().Calls)
	s.Equal(0, s.GetStores().BillingRepo.Count())
}

func (s *WebhookDispatchSuite) TestInvoicePaymentFailedMarksPastDue() {
	event := s.makeEvent("evt_pf", "invoice.payment_failed", map[string]interface{}{
		"id":       "in_failed",
		"metadata": map[string]string{"companyId": "comp_test"},
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{
				{"subscription": map[string]interface{}{"id": "sub_123"}},
			},
		},
	})

	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)

	row, err := s.GetStores().BillingRepo.GetByCompanyID(s.GetContext(), "comp_test")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, row.SubscriptionStatus)
}

func (s *WebhookDispatchSuite) TestUnhandledEventTypeIgnored() {
	event := s.makeEvent("evt_other", "payment_intent.succeeded", map[string]interface{}{})
	err := s.service.ProcessEvent(s.GetContext(), event)
	s.NoError(err)
}
