package service

import (
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// maxPermissiveLimit is what every numeric limit resolves to under bypass.
// A large finite value keeps call-site comparisons working without -1
// sentinels.
const maxPermissiveLimit = int64(math.MaxInt32)

// EntitlementService resolves plan/add-on/bypass state into concrete limits
// and feature flags. Bypass handling lives here and nowhere else, so
// entitlement checks cannot drift between endpoints.
type EntitlementService interface {
	// GetLimit resolves a single entitlement key against the derived view.
	// Unknown plans degrade to the most restrictive tier; unknown keys
	// resolve to zero/disabled. It never fails.
	GetLimit(entitlements billing.OrgEntitlements, key types.EntitlementKey, email string) types.LimitValue

	// GetPlanDefinition returns the static definition for a tier. Bypass
	// forces the top tier's definition; billing truth is reported
	// separately by the read path.
	GetPlanDefinition(plan types.PlanTier, email string) types.PlanDefinition

	// GetTrialStatus computes trial state from the stored dates. Bypass
	// emails always report an active, non-expiring trial.
	GetTrialStatus(trialStartedAt, trialEnd *time.Time, email string) types.TrialStatus

	// HasAdminBypass reports allowlist membership.
	HasAdminBypass(email string) bool
}

type entitlementService struct {
	ServiceParams
	now func() time.Time
}

func NewEntitlementService(params ServiceParams) EntitlementService {
	return &entitlementService{
		ServiceParams: params,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *entitlementService) HasAdminBypass(email string) bool {
	return s.Bypass.ResolveBypass(email)
}

func (s *entitlementService) GetLimit(entitlements billing.OrgEntitlements, key types.EntitlementKey, email string) types.LimitValue {
	if s.HasAdminBypass(email) {
		if types.IsNumericEntitlement(key) {
			return types.LimitValue{Key: key, Value: maxPermissiveLimit}
		}
		return types.LimitValue{Key: key, Enabled: true, Boolean: true}
	}

	tier := types.ParsePlanTier(string(entitlements.Plan))

	if types.IsNumericEntitlement(key) {
		base := tier.BaseLimits()[key]
		return types.LimitValue{Key: key, Value: base + addonDelta(entitlements, key)}
	}

	module, ok := types.ModuleForEntitlement(key)
	if !ok {
		// Unrecognized key: fail closed rather than fail open.
		return types.LimitValue{Key: key, Boolean: true}
	}

	enabled := entitlements.HasModule(module) ||
		lo.Contains(tier.InherentModules(), module)
	return types.LimitValue{Key: key, Enabled: enabled, Boolean: true}
}

// addonDelta returns the purchased add-on contribution for a numeric key.
func addonDelta(entitlements billing.OrgEntitlements, key types.EntitlementKey) int64 {
	switch key {
	case types.EntitlementUsers:
		return entitlements.ExtraUsers
	case types.EntitlementLegalEntities:
		return entitlements.ExtraEntities
	case types.EntitlementStorageMB:
		return entitlements.ExtraStorageMB
	default:
		return 0
	}
}

func (s *entitlementService) GetPlanDefinition(plan types.PlanTier, email string) types.PlanDefinition {
	tier := types.ParsePlanTier(string(plan))
	if s.HasAdminBypass(email) {
		tier = types.PlanTierEnterprise
	}

	limits := make(map[string]int64)
	for key, value := range tier.BaseLimits() {
		limits[string(key)] = value
	}

	return types.PlanDefinition{
		Tier:    tier,
		Label:   tier.Label(),
		Limits:  limits,
		Modules: tier.InherentModules(),
	}
}

func (s *entitlementService) GetTrialStatus(trialStartedAt, trialEnd *time.Time, email string) types.TrialStatus {
	if s.HasAdminBypass(email) {
		return types.TrialStatus{Active: true}
	}

	if trialStartedAt == nil {
		return types.TrialStatus{}
	}

	end := lo.FromPtr(trialEnd)
	if trialEnd == nil {
		end = trialStartedAt.Add(types.DefaultTrialDays * 24 * time.Hour)
	}

	now := s.now()
	if !now.Before(end) {
		return types.TrialStatus{Expired: true}
	}

	days := int(end.Sub(now).Hours() / 24)
	return types.TrialStatus{Active: true, DaysRemaining: &days}
}
