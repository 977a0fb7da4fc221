package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	stripelib "github.com/stripe/stripe-go/v82"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/rest/middleware"
	"github.com/tradeflowhq/tradeflow/internal/service"
	"github.com/tradeflowhq/tradeflow/internal/testutil"
)

type WebhookHandlerSuite struct {
	testutil.BaseServiceTestSuite
	verifier *testutil.FakeSignatureVerifier
	router   *gin.Engine
}

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	params := service.ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetDB(),
		CompanyRepo:         s.GetStores().CompanyRepo,
		BillingRepo:         s.GetStores().BillingRepo,
		WebhookEventRepo:    s.GetStores().WebhookEventRepo,
		TagOrderRepo:        s.GetStores().TagOrderRepo,
		Cache:               s.GetCache(),
		Bypass:              service.NewBypassResolver(s.GetConfig()),
		SubscriptionFetcher: s.GetSubscriptionFetcher(),
		CustomerFetcher:     s.GetCustomerFetcher(),
	}

	s.verifier = &testutil.FakeSignatureVerifier{}
	handler := NewWebhookHandler(s.verifier, service.NewWebhookDispatchService(params), logger.NewNopLogger())

	s.router = gin.New()
	s.router.Use(middleware.ErrorHandlerMiddleware(logger.NewNopLogger()))
	s.router.POST("/webhooks/stripe", handler.HandleStripeWebhook)
}

func (s *WebhookHandlerSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WebhookHandlerSuite) TestInvalidSignatureRejected() {
	s.verifier.Err = ierr.NewError("signature mismatch").
		WithHint("Invalid webhook signature").
		Mark(ierr.ErrValidation)

	w := s.post(`{}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Invalid webhook signature")

	// Nothing was persisted.
	s.Equal(0, s.GetStores().WebhookEventRepo.Count())
	s.Equal(0, s.GetStores().BillingRepo.Count())
}

func (s *WebhookHandlerSuite) TestProcessingFailureStillAcknowledged() {
	// The event resolves to no company, so dispatch fails internally.
	s.verifier.Event = stripelib.Event{
		ID:   "evt_orphan",
		Type: "customer.subscription.updated",
		Data: &stripelib.EventData{Raw: []byte(`{"id":"sub_x","status":"active"}`)},
	}

	w := s.post(`{}`)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ok":true}`, w.Body.String())
}

func (s *WebhookHandlerSuite) TestUnhandledEventAcknowledged() {
	s.verifier.Event = stripelib.Event{
		ID:   "evt_pi",
		Type: "payment_intent.succeeded",
		Data: &stripelib.EventData{Raw: []byte(`{}`)},
	}

	w := s.post(`{}`)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ok":true}`, w.Body.String())
}
