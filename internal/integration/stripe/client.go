// Package stripe wraps the payment provider SDK behind small interfaces so
// services and handlers can be tested with fakes.
package stripe

import (
	"context"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/tradeflowhq/tradeflow/internal/config"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
)

// SubscriptionFetcher fetches the current subscription state from Stripe.
// The sync engine re-fetches through this instead of trusting webhook
// payloads that may be stale relative to rapid successive changes.
type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*stripelib.Subscription, error)
}

// CustomerFetcher fetches a Stripe customer, used to resolve the owning
// company from customer metadata.
type CustomerFetcher interface {
	GetCustomer(ctx context.Context, customerID string) (*stripelib.Customer, error)
}

// Client is the production implementation backed by the Stripe API client.
type Client struct {
	api *client.API
	log *logger.Logger
}

func NewClient(cfg *config.Configuration, log *logger.Logger) *Client {
	// The SDK's own retry/backoff handles transient API failures, so callers
	// never retry inline.
	backendConfig := &stripelib.BackendConfig{
		MaxNetworkRetries: stripelib.Int64(cfg.Stripe.MaxNetworkRetries),
	}
	backends := &stripelib.Backends{
		API:     stripelib.GetBackendWithConfig(stripelib.APIBackend, backendConfig),
		Connect: stripelib.GetBackendWithConfig(stripelib.ConnectBackend, backendConfig),
		Uploads: stripelib.GetBackendWithConfig(stripelib.UploadsBackend, backendConfig),
	}

	api := &client.API{}
	api.Init(cfg.Stripe.SecretKey, backends)

	return &Client{api: api, log: log}
}

// GetSubscription fetches a subscription with its price/product metadata
// expanded, which the sync engine needs to derive modules and add-ons.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*stripelib.Subscription, error) {
	if subscriptionID == "" {
		return nil, ierr.NewError("subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	params := &stripelib.SubscriptionParams{
		Params: stripelib.Params{Context: ctx},
	}
	params.AddExpand("items.data.price.product")

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch subscription from Stripe").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrHTTPClient)
	}
	return sub, nil
}

// GetCustomer fetches a customer including its metadata.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*stripelib.Customer, error) {
	if customerID == "" {
		return nil, ierr.NewError("customer ID is required").
			Mark(ierr.ErrValidation)
	}

	params := &stripelib.CustomerParams{
		Params: stripelib.Params{Context: ctx},
	}

	cust, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch customer from Stripe").
			WithReportableDetails(map[string]interface{}{
				"customer_id": customerID,
			}).
			Mark(ierr.ErrHTTPClient)
	}
	return cust, nil
}
