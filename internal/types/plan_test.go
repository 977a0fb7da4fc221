package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanTier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected PlanTier
	}{
		{name: "canonical free", input: "free", expected: PlanTierFree},
		{name: "canonical starter", input: "starter", expected: PlanTierStarter},
		{name: "canonical pro", input: "pro", expected: PlanTierPro},
		{name: "canonical enterprise", input: "enterprise", expected: PlanTierEnterprise},
		{name: "legacy basic maps to starter", input: "basic", expected: PlanTierStarter},
		{name: "legacy premium maps to pro", input: "premium", expected: PlanTierPro},
		{name: "legacy trial maps to free", input: "trial", expected: PlanTierFree},
		{name: "unknown falls back to free", input: "platinum", expected: PlanTierFree},
		{name: "empty falls back to free", input: "", expected: PlanTierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePlanTier(tt.input))
		})
	}
}

func TestParseSubscriptionStatus(t *testing.T) {
	assert.Equal(t, SubscriptionStatusActive, ParseSubscriptionStatus("active"))
	assert.Equal(t, SubscriptionStatusTrialing, ParseSubscriptionStatus("trialing"))
	assert.Equal(t, SubscriptionStatusInactive, ParseSubscriptionStatus("paused"))
	assert.Equal(t, SubscriptionStatusInactive, ParseSubscriptionStatus(""))
}

func TestSubscriptionStatusIsUsable(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.IsUsable())
	assert.True(t, SubscriptionStatusTrialing.IsUsable())
	assert.False(t, SubscriptionStatusPastDue.IsUsable())
	assert.False(t, SubscriptionStatusCanceled.IsUsable())
	assert.False(t, SubscriptionStatusInactive.IsUsable())
}

func TestBaseLimitsUnknownTier(t *testing.T) {
	limits := PlanTier("platinum").BaseLimits()
	assert.Equal(t, planBaseLimits[PlanTierFree], limits)
}

func TestInherentModules(t *testing.T) {
	assert.Empty(t, PlanTierFree.InherentModules())
	assert.Empty(t, PlanTierStarter.InherentModules())
	assert.ElementsMatch(t, []ModuleKey{ModuleCRM, ModuleTools}, PlanTierPro.InherentModules())
	assert.ElementsMatch(t,
		[]ModuleKey{ModuleCRM, ModuleCertificates, ModulePortal, ModuleTools},
		PlanTierEnterprise.InherentModules())
}
