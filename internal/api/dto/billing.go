package dto

import (
	"time"

	"github.com/tradeflowhq/tradeflow/internal/types"
)

// BillingStatusResponse is the composed billing view the rest of the
// product consumes. It is always rebuilt from Company/CompanyBilling and
// cached briefly; it is never a source of truth.
type BillingStatusResponse struct {
	CompanyID string `json:"company_id"`

	Plan      types.PlanTier `json:"plan"`
	PlanLabel string         `json:"plan_label"`

	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`
	CurrentPeriodStart *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`

	Trial types.TrialStatus `json:"trial"`

	Modules        []types.ModuleKey `json:"modules"`
	ExtraUsers     int64             `json:"extra_users"`
	ExtraEntities  int64             `json:"extra_entities"`
	ExtraStorageMB int64             `json:"extra_storage_mb"`

	// LegacyFallback is set when no CompanyBilling row exists yet and the
	// response was sourced from the legacy Company columns.
	LegacyFallback bool `json:"legacy_fallback,omitempty"`

	Bypass bool `json:"bypass,omitempty"`
}

// EntitlementsResponse returns the resolved limit for every recognized
// entitlement key.
type EntitlementsResponse struct {
	CompanyID string                                   `json:"company_id"`
	Plan      types.PlanTier                           `json:"plan"`
	Limits    map[types.EntitlementKey]types.LimitValue `json:"limits"`
}

// WebhookAckResponse is the fixed happy-path webhook acknowledgement.
type WebhookAckResponse struct {
	OK bool `json:"ok"`
}
