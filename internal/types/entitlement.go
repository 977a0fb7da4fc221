package types

// ModuleKey identifies a product module that can be enabled on a
// subscription via price/product metadata.
type ModuleKey string

const (
	ModuleCRM          ModuleKey = "crm"
	ModuleCertificates ModuleKey = "certificates"
	ModulePortal       ModuleKey = "portal"
	ModuleTools        ModuleKey = "tools"

	FeatureSchedule   ModuleKey = "schedule"
	FeatureTimesheets ModuleKey = "timesheets"
	FeatureXero       ModuleKey = "xero"
)

var moduleKeys = map[string]ModuleKey{
	string(ModuleCRM):          ModuleCRM,
	string(ModuleCertificates): ModuleCertificates,
	string(ModulePortal):       ModulePortal,
	string(ModuleTools):        ModuleTools,
	string(FeatureSchedule):    FeatureSchedule,
	string(FeatureTimesheets):  FeatureTimesheets,
	string(FeatureXero):        FeatureXero,
}

// ParseModuleKey returns the module key and whether it is recognized.
func ParseModuleKey(raw string) (ModuleKey, bool) {
	key, ok := moduleKeys[raw]
	return key, ok
}

// EntitlementKey identifies a resolvable limit or feature flag.
type EntitlementKey string

const (
	EntitlementUsers                EntitlementKey = "users"
	EntitlementLegalEntities        EntitlementKey = "legal_entities"
	EntitlementInvoicesPerMonth     EntitlementKey = "invoices_per_month"
	EntitlementCertificatesPerMonth EntitlementKey = "certificates_per_month"
	EntitlementStorageMB            EntitlementKey = "storage_mb"
	EntitlementModuleCRM            EntitlementKey = "module_crm"
	EntitlementModuleCertificates   EntitlementKey = "module_certificates"
	EntitlementModulePortal         EntitlementKey = "module_portal"
	EntitlementModuleTools          EntitlementKey = "module_tools"
	EntitlementFeatureSchedule      EntitlementKey = "feature_schedule"
	EntitlementFeatureTimesheets    EntitlementKey = "feature_timesheets"
	EntitlementFeatureXero          EntitlementKey = "feature_xero"
)

// NumericEntitlementKeys lists the keys that resolve to numeric limits.
var NumericEntitlementKeys = []EntitlementKey{
	EntitlementUsers,
	EntitlementLegalEntities,
	EntitlementInvoicesPerMonth,
	EntitlementCertificatesPerMonth,
	EntitlementStorageMB,
}

// entitlementModules maps boolean entitlement keys to the module key they
// test for.
var entitlementModules = map[EntitlementKey]ModuleKey{
	EntitlementModuleCRM:          ModuleCRM,
	EntitlementModuleCertificates: ModuleCertificates,
	EntitlementModulePortal:       ModulePortal,
	EntitlementModuleTools:        ModuleTools,
	EntitlementFeatureSchedule:    FeatureSchedule,
	EntitlementFeatureTimesheets:  FeatureTimesheets,
	EntitlementFeatureXero:        FeatureXero,
}

// ModuleForEntitlement returns the module behind a boolean entitlement key.
func ModuleForEntitlement(key EntitlementKey) (ModuleKey, bool) {
	module, ok := entitlementModules[key]
	return module, ok
}

// IsNumericEntitlement reports whether the key resolves to a numeric limit.
func IsNumericEntitlement(key EntitlementKey) bool {
	for _, k := range NumericEntitlementKeys {
		if k == key {
			return true
		}
	}
	return false
}

// LimitValue is the result of resolving a single entitlement key. Numeric
// keys populate Value; boolean keys populate Enabled.
type LimitValue struct {
	Key     EntitlementKey `json:"key"`
	Value   int64          `json:"value,omitempty"`
	Enabled bool           `json:"enabled"`
	Boolean bool           `json:"boolean"`
}

// TrialStatus is the computed trial state for a company.
type TrialStatus struct {
	Active        bool `json:"active"`
	Expired       bool `json:"expired"`
	DaysRemaining *int `json:"days_remaining,omitempty"`
}

// PlanDefinition is the static, display-oriented description of a tier.
type PlanDefinition struct {
	Tier    PlanTier       `json:"tier"`
	Label   string         `json:"label"`
	Limits  map[string]int64 `json:"limits"`
	Modules []ModuleKey    `json:"modules"`
}
