package service

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/tradeflowhq/tradeflow/internal/domain/fulfillment"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// Checkout session metadata keys for one-off purchases.
const (
	MetadataKeyPurchaseType = "purchaseType"
	MetadataKeyQuantity     = "qty"

	PurchaseTypeQRTags = "qr_tags"
)

// FulfillmentResult reports a one-off purchase fulfillment. Skipped means
// the checkout session was already fulfilled (duplicate webhook delivery).
type FulfillmentResult struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped"`
	OrderID string `json:"order_id,omitempty"`
}

// FulfillmentService handles one-off purchases completed through checkout.
// Idempotency comes from the unique stripe_session_id constraint rather
// than the event marker, so a replay of the same session never fulfills
// twice regardless of which event id carried it.
type FulfillmentService interface {
	FulfillTagOrder(ctx context.Context, companyID string, session *stripelib.CheckoutSession) (*FulfillmentResult, error)
}

type fulfillmentService struct {
	ServiceParams
}

func NewFulfillmentService(params ServiceParams) FulfillmentService {
	return &fulfillmentService{ServiceParams: params}
}

func (s *fulfillmentService) FulfillTagOrder(ctx context.Context, companyID string, session *stripelib.CheckoutSession) (*FulfillmentResult, error) {
	if companyID == "" {
		return nil, ierr.NewError("company ID is required").
			Mark(ierr.ErrValidation)
	}
	if session == nil || session.ID == "" {
		return nil, ierr.NewError("checkout session is required").
			Mark(ierr.ErrValidation)
	}

	quantity, err := strconv.ParseInt(session.Metadata[MetadataKeyQuantity], 10, 64)
	if err != nil || quantity <= 0 {
		return nil, ierr.NewError("invalid tag quantity in session metadata").
			WithHint("Checkout session metadata must carry a positive qty").
			WithReportableDetails(map[string]interface{}{
				"session_id": session.ID,
				"qty":        session.Metadata[MetadataKeyQuantity],
			}).
			Mark(ierr.ErrValidation)
	}

	order := &fulfillment.TagOrder{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAG_ORDER),
		CompanyID:       companyID,
		StripeSessionID: session.ID,
		Quantity:        quantity,
		AmountTotal:     decimal.New(session.AmountTotal, -2), // cents to currency units
		Currency:        string(session.Currency),
		OrderStatus:     fulfillment.TagOrderStatusFulfilled,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := s.TagOrderRepo.Create(ctx, order); err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Infow("duplicate checkout session, order already fulfilled",
				"company_id", companyID,
				"session_id", session.ID,
			)
			return &FulfillmentResult{Success: true, Skipped: true}, nil
		}
		return &FulfillmentResult{}, err
	}

	s.Logger.Infow("tag order fulfilled",
		"company_id", companyID,
		"session_id", session.ID,
		"order_id", order.ID,
		"quantity", quantity,
	)
	return &FulfillmentResult{Success: true, OrderID: order.ID}, nil
}
