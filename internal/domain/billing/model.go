package billing

import (
	"time"

	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// CompanyBilling is the normalized billing record, one per company. It is a
// full snapshot of the upstream subscription: every sync overwrites all
// derived fields rather than merging, so out-of-order webhook delivery
// converges on current upstream truth.
type CompanyBilling struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`

	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`

	Plan               types.PlanTier           `json:"plan"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`

	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`

	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialEnd       *time.Time `json:"trial_end,omitempty"`

	EnabledModules []types.ModuleKey `json:"enabled_modules"`
	ExtraUsers     int64             `json:"extra_users"`
	ExtraEntities  int64             `json:"extra_entities"`
	ExtraStorageMB int64             `json:"extra_storage_mb"`

	types.BaseModel
}

func (b *CompanyBilling) Validate() error {
	if b.CompanyID == "" {
		return ierr.NewError("company ID is required").Mark(ierr.ErrValidation)
	}
	if b.ExtraUsers < 0 || b.ExtraEntities < 0 || b.ExtraStorageMB < 0 {
		return ierr.NewError("add-on counters cannot be negative").
			WithReportableDetails(map[string]interface{}{
				"extra_users":      b.ExtraUsers,
				"extra_entities":   b.ExtraEntities,
				"extra_storage_mb": b.ExtraStorageMB,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HasModule reports whether the module is enabled on this snapshot.
func (b *CompanyBilling) HasModule(key types.ModuleKey) bool {
	for _, m := range b.EnabledModules {
		if m == key {
			return true
		}
	}
	return false
}

// Entitlements builds the derived entitlement view. It is always recomputed
// from the stored snapshot, never persisted.
func (b *CompanyBilling) Entitlements() OrgEntitlements {
	return OrgEntitlements{
		Plan:           b.Plan,
		EnabledModules: b.EnabledModules,
		ExtraUsers:     b.ExtraUsers,
		ExtraEntities:  b.ExtraEntities,
		ExtraStorageMB: b.ExtraStorageMB,
	}
}

// OrgEntitlements is the derived view the entitlement resolver consumes.
type OrgEntitlements struct {
	Plan           types.PlanTier    `json:"plan"`
	EnabledModules []types.ModuleKey `json:"enabled_modules"`
	ExtraUsers     int64             `json:"extra_users"`
	ExtraEntities  int64             `json:"extra_entities"`
	ExtraStorageMB int64             `json:"extra_storage_mb"`
}

// HasModule reports module membership on the derived view.
func (e OrgEntitlements) HasModule(key types.ModuleKey) bool {
	for _, m := range e.EnabledModules {
		if m == key {
			return true
		}
	}
	return false
}
