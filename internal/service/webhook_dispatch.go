package service

import (
	"context"
	"encoding/json"

	stripelib "github.com/stripe/stripe-go/v82"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// WebhookDispatchService routes verified Stripe events to the billing sync
// and fulfillment services. Processing errors are returned so the handler
// can log them, but the webhook contract is that the endpoint acknowledges
// anyway; Stripe redelivery plus event idempotency handle transient faults.
type WebhookDispatchService interface {
	ProcessEvent(ctx context.Context, event stripelib.Event) error
}

type webhookDispatchService struct {
	ServiceParams
	sync        SubscriptionSyncService
	fulfillment FulfillmentService
}

func NewWebhookDispatchService(params ServiceParams) WebhookDispatchService {
	return &webhookDispatchService{
		ServiceParams: params,
		sync:          NewSubscriptionSyncService(params),
		fulfillment:   NewFulfillmentService(params),
	}
}

func (s *webhookDispatchService) ProcessEvent(ctx context.Context, event stripelib.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		return s.handleSubscriptionEvent(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.Logger.Debugw("ignoring unhandled webhook event type",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return nil
	}
}

func (s *webhookDispatchService) handleCheckoutCompleted(ctx context.Context, event stripelib.Event) error {
	var session stripelib.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed checkout session payload").
			Mark(ierr.ErrValidation)
	}

	companyID, err := s.resolveCompany(ctx, session.Metadata, customerID(session.Customer))
	if err != nil {
		return err
	}

	switch session.Mode {
	case stripelib.CheckoutSessionModePayment:
		if session.Metadata[MetadataKeyPurchaseType] != PurchaseTypeQRTags {
			s.Logger.Debugw("ignoring one-off checkout with unknown purchase type",
				"event_id", event.ID,
				"session_id", session.ID,
			)
			return nil
		}
		_, err := s.fulfillment.FulfillTagOrder(ctx, companyID, &session)
		return err

	case stripelib.CheckoutSessionModeSubscription:
		if session.Subscription == nil || session.Subscription.ID == "" {
			s.Logger.Warnw("subscription checkout completed without subscription",
				"event_id", event.ID,
				"session_id", session.ID,
			)
			return nil
		}
		// The session payload only carries a subscription stub; fetch the
		// full object before syncing.
		_, err := s.sync.RefreshAndSyncSubscription(ctx, session.Subscription.ID, companyID, event.ID)
		return err

	default:
		return nil
	}
}

func (s *webhookDispatchService) handleSubscriptionEvent(ctx context.Context, event stripelib.Event) error {
	var sub stripelib.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}

	companyID, err := s.resolveCompany(ctx, sub.Metadata, customerID(sub.Customer))
	if err != nil {
		return err
	}

	// Subscription events carry the full object, so the payload snapshot is
	// synced directly; out-of-order deliveries still converge because every
	// sync overwrites the whole row.
	_, err = s.sync.SyncSubscriptionToBilling(ctx, companyID, &sub, event.ID)
	return err
}

func (s *webhookDispatchService) handleInvoicePaid(ctx context.Context, event stripelib.Event) error {
	var inv stripelib.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}

	subscriptionID := invoiceSubscriptionID(&inv)
	if subscriptionID == "" {
		s.Logger.Debugw("invoice not linked to a subscription, skipping",
			"event_id", event.ID,
			"invoice_id", inv.ID,
		)
		return nil
	}
	if inv.BillingReason == stripelib.InvoiceBillingReasonManual {
		return nil
	}

	companyID, err := s.resolveCompany(ctx, inv.Metadata, customerID(inv.Customer))
	if err != nil {
		return err
	}

	// An invoice payload reflects the moment of invoicing, not the current
	// subscription; re-fetch so a renewal picks up any interim plan change.
	_, err = s.sync.RefreshAndSyncSubscription(ctx, subscriptionID, companyID, event.ID)
	return err
}

func (s *webhookDispatchService) handleInvoicePaymentFailed(ctx context.Context, event stripelib.Event) error {
	var inv stripelib.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}

	if invoiceSubscriptionID(&inv) == "" {
		return nil
	}

	companyID, err := s.resolveCompany(ctx, inv.Metadata, customerID(inv.Customer))
	if err != nil {
		return err
	}

	_, err = s.sync.HandlePaymentFailed(ctx, companyID, event.ID)
	return err
}

// resolveCompany maps a Stripe event to the owning company. Order: object
// metadata, then customer metadata (one fetch), then the local customer id
// mapping. Events that resolve to no company are dropped by the caller.
func (s *webhookDispatchService) resolveCompany(ctx context.Context, metadata map[string]string, stripeCustomerID string) (string, error) {
	if id := metadata[MetadataKeyCompanyID]; id != "" {
		return id, nil
	}

	if stripeCustomerID == "" {
		return "", ierr.NewError("event carries no company reference").
			WithHint("Neither metadata nor a customer id identifies the company").
			Mark(ierr.ErrNotFound)
	}

	cust, err := s.CustomerFetcher.GetCustomer(ctx, stripeCustomerID)
	if err == nil && cust != nil {
		if id := cust.Metadata[MetadataKeyCompanyID]; id != "" {
			return id, nil
		}
	}

	comp, err := s.CompanyRepo.GetByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("No company is linked to this Stripe customer").
			WithReportableDetails(map[string]interface{}{
				"stripe_customer_id": stripeCustomerID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return comp.ID, nil
}

func invoiceSubscriptionID(inv *stripelib.Invoice) string {
	if inv.Lines == nil {
		return ""
	}
	for _, line := range inv.Lines.Data {
		if line != nil && line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID
		}
	}
	return ""
}

func customerID(cust *stripelib.Customer) string {
	if cust == nil {
		return ""
	}
	return cust.ID
}
