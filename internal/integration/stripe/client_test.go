package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/tradeflowhq/tradeflow/internal/config"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
)

func TestNewClientConfiguresNetworkRetries(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.MaxNetworkRetries = 3

	c := NewClient(cfg, logger.NewNopLogger())

	backend, ok := c.api.Subscriptions.B.(*stripelib.BackendImplementation)
	require.True(t, ok)
	assert.Equal(t, int64(3), backend.MaxNetworkRetries)
}

func TestGetSubscriptionRequiresID(t *testing.T) {
	c := NewClient(config.GetDefaultConfig(), logger.NewNopLogger())

	_, err := c.GetSubscription(context.Background(), "")
	assert.True(t, ierr.IsValidation(err))
}

func TestGetCustomerRequiresID(t *testing.T) {
	c := NewClient(config.GetDefaultConfig(), logger.NewNopLogger())

	_, err := c.GetCustomer(context.Background(), "")
	assert.True(t, ierr.IsValidation(err))
}
