package types

// PlanTier is the named subscription level controlling base entitlements.
type PlanTier string

const (
	PlanTierFree       PlanTier = "free"
	PlanTierStarter    PlanTier = "starter"
	PlanTierPro        PlanTier = "pro"
	PlanTierEnterprise PlanTier = "enterprise"
)

// DefaultTrialDays is the trial length applied when a company has a trial
// start date but no explicit trial end.
const DefaultTrialDays = 14

var planTiers = map[string]PlanTier{
	string(PlanTierFree):       PlanTierFree,
	string(PlanTierStarter):    PlanTierStarter,
	string(PlanTierPro):        PlanTierPro,
	string(PlanTierEnterprise): PlanTierEnterprise,

	// legacy plan strings still present on old Company rows
	"basic":   PlanTierStarter,
	"premium": PlanTierPro,
	"trial":   PlanTierFree,
}

// ParsePlanTier maps arbitrary plan strings to the closed tier enum.
// Unrecognized input falls back to the free tier; it never fails.
func ParsePlanTier(raw string) PlanTier {
	if tier, ok := planTiers[raw]; ok {
		return tier
	}
	return PlanTierFree
}

// Label returns the customer-facing name of the tier.
func (p PlanTier) Label() string {
	switch p {
	case PlanTierStarter:
		return "Starter"
	case PlanTierPro:
		return "Pro"
	case PlanTierEnterprise:
		return "Enterprise"
	default:
		return "Free"
	}
}

// BaseLimits returns the per-tier base numeric limits. Tiers missing a key
// resolve to 0, so unknown tiers behave like the most restrictive one.
func (p PlanTier) BaseLimits() map[EntitlementKey]int64 {
	if limits, ok := planBaseLimits[p]; ok {
		return limits
	}
	return planBaseLimits[PlanTierFree]
}

// InherentModules returns the modules a tier grants regardless of what the
// subscription's price metadata enables.
func (p PlanTier) InherentModules() []ModuleKey {
	return planInherentModules[p]
}

var planBaseLimits = map[PlanTier]map[EntitlementKey]int64{
	PlanTierFree: {
		EntitlementUsers:                1,
		EntitlementLegalEntities:        1,
		EntitlementInvoicesPerMonth:     5,
		EntitlementCertificatesPerMonth: 0,
		EntitlementStorageMB:            100,
	},
	PlanTierStarter: {
		EntitlementUsers:                3,
		EntitlementLegalEntities:        1,
		EntitlementInvoicesPerMonth:     50,
		EntitlementCertificatesPerMonth: 25,
		EntitlementStorageMB:            1024,
	},
	PlanTierPro: {
		EntitlementUsers:                10,
		EntitlementLegalEntities:        3,
		EntitlementInvoicesPerMonth:     500,
		EntitlementCertificatesPerMonth: 250,
		EntitlementStorageMB:            10240,
	},
	PlanTierEnterprise: {
		EntitlementUsers:                50,
		EntitlementLegalEntities:        10,
		EntitlementInvoicesPerMonth:     5000,
		EntitlementCertificatesPerMonth: 2500,
		EntitlementStorageMB:            102400,
	},
}

var planInherentModules = map[PlanTier][]ModuleKey{
	PlanTierPro:        {ModuleCRM, ModuleTools},
	PlanTierEnterprise: {ModuleCRM, ModuleCertificates, ModulePortal, ModuleTools},
}
