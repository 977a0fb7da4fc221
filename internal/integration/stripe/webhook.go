package stripe

import (
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// SignatureVerifier authenticates webhook payloads. Signature verification
// is the sole authenticity boundary for the webhook endpoint.
type SignatureVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripelib.Event, error)
}

// WebhookVerifier verifies Stripe webhook signatures against the configured
// endpoint secret.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// VerifyWebhook checks the HMAC signature over the raw body. The body must
// not have been parsed or re-encoded before this call.
func (v *WebhookVerifier) VerifyWebhook(payload []byte, sigHeader string) (stripelib.Event, error) {
	if v.secret == "" {
		return stripelib.Event{}, ierr.NewError("webhook secret is not configured").
			WithHint("Configure the Stripe webhook signing secret").
			Mark(ierr.ErrValidation)
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripelib.Event{}, ierr.WithError(err).
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrValidation)
	}
	return event, nil
}
