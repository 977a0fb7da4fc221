package fulfillment

import (
	"github.com/shopspring/decimal"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// TagOrderStatus is the fulfillment state of a one-off QR tag purchase.
type TagOrderStatus string

const (
	TagOrderStatusFulfilled TagOrderStatus = "fulfilled"
)

// TagOrder records a one-off QR tag purchase completed through checkout.
// The unique stripe_session_id constraint is the idempotency guard: a
// replayed checkout.session.completed event hits the constraint instead of
// fulfilling twice.
type TagOrder struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	StripeSessionID string          `json:"stripe_session_id"`
	Quantity        int64           `json:"quantity"`
	AmountTotal     decimal.Decimal `json:"amount_total"`
	Currency        string          `json:"currency"`
	OrderStatus     TagOrderStatus  `json:"order_status"`

	types.BaseModel
}

func (o *TagOrder) Validate() error {
	if o.CompanyID == "" {
		return ierr.NewError("company ID is required").Mark(ierr.ErrValidation)
	}
	if o.StripeSessionID == "" {
		return ierr.NewError("stripe session ID is required").Mark(ierr.ErrValidation)
	}
	if o.Quantity <= 0 {
		return ierr.NewError("quantity must be positive").
			WithReportableDetails(map[string]interface{}{"quantity": o.Quantity}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
