package company

import (
	"time"

	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// Company is the tenant root. The plan/subscription fields here are the
// legacy billing columns kept for readers that have not migrated to
// CompanyBilling; the sync engine mirrors a minimal subset back onto them.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	StripeCustomerID string `json:"stripe_customer_id,omitempty"`

	// Legacy billing fields. CompanyBilling wins when a row exists.
	Plan               string                   `json:"plan"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time               `json:"current_period_end,omitempty"`

	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialEnd       *time.Time `json:"trial_end,omitempty"`

	types.BaseModel
}

func (c *Company) Validate() error {
	if c.Name == "" {
		return ierr.NewError("company name is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingMirror is the minimal subset the sync engine writes back onto the
// legacy Company columns.
type BillingMirror struct {
	Plan               types.PlanTier
	SubscriptionStatus types.SubscriptionStatus
	CurrentPeriodEnd   *time.Time
}
