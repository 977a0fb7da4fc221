package testutil

import (
	"context"

	stripelib "github.com/stripe/stripe-go/v82"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// FakeSubscriptionFetcher serves canned subscriptions keyed by id.
type FakeSubscriptionFetcher struct {
	Subscriptions map[string]*stripelib.Subscription
	Err           error
	Calls         []string
}

func NewFakeSubscriptionFetcher() *FakeSubscriptionFetcher {
	return &FakeSubscriptionFetcher{Subscriptions: make(map[string]*stripelib.Subscription)}
}

func (f *FakeSubscriptionFetcher) GetSubscription(ctx context.Context, subscriptionID string) (*stripelib.Subscription, error) {
	f.Calls = append(f.Calls, subscriptionID)
	if f.Err != nil {
		return nil, f.Err
	}
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": subscriptionID}).
			Mark(ierr.ErrHTTPClient)
	}
	return sub, nil
}

// FakeCustomerFetcher serves canned customers keyed by id.
type FakeCustomerFetcher struct {
	Customers map[string]*stripelib.Customer
	Err       error
}

func NewFakeCustomerFetcher() *FakeCustomerFetcher {
	return &FakeCustomerFetcher{Customers: make(map[string]*stripelib.Customer)}
}

func (f *FakeCustomerFetcher) GetCustomer(ctx context.Context, customerID string) (*stripelib.Customer, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	cust, ok := f.Customers[customerID]
	if !ok {
		return nil, ierr.NewError("customer not found").
			WithReportableDetails(map[string]interface{}{"customer_id": customerID}).
			Mark(ierr.ErrHTTPClient)
	}
	return cust, nil
}

// FakeSignatureVerifier returns a canned event, or Err when set. It lets
// handler tests exercise the verify-then-dispatch flow without real HMACs.
type FakeSignatureVerifier struct {
	Event stripelib.Event
	Err   error
}

func (f *FakeSignatureVerifier) VerifyWebhook(payload []byte, sigHeader string) (stripelib.Event, error) {
	if f.Err != nil {
		return stripelib.Event{}, f.Err
	}
	return f.Event, nil
}
