package service

import (
	"context"
	"fmt"

	"github.com/tradeflowhq/tradeflow/internal/api/dto"
	"github.com/tradeflowhq/tradeflow/internal/cache"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

const billingStatusCacheKeyPrefix = "billing:status:"

// BillingStatusService is the read path: it composes Company and
// CompanyBilling into the view the application gates features on. Results
// are cached per company with a short TTL; the sync engine does not bust
// the cache, so reads may lag a webhook by up to the TTL.
type BillingStatusService interface {
	GetBillingStatus(ctx context.Context, companyID string) (*dto.BillingStatusResponse, error)
	GetEntitlements(ctx context.Context, companyID string) (*dto.EntitlementsResponse, error)
}

type billingStatusService struct {
	ServiceParams
	entitlements EntitlementService
}

func NewBillingStatusService(params ServiceParams) BillingStatusService {
	return &billingStatusService{
		ServiceParams: params,
		entitlements:  NewEntitlementService(params),
	}
}

func (s *billingStatusService) GetBillingStatus(ctx context.Context, companyID string) (*dto.BillingStatusResponse, error) {
	if companyID == "" {
		return nil, ierr.NewError("company ID is required").
			Mark(ierr.ErrValidation)
	}

	email := types.GetUserEmail(ctx)
	// Bypass state is part of the cache key so a support session never
	// serves (or poisons) the tenant's own cached view.
	key := billingStatusCacheKeyPrefix + companyID
	if s.Bypass.ResolveBypass(email) {
		key = fmt.Sprintf("%s%s:bypass", billingStatusCacheKeyPrefix, companyID)
	}

	return cache.GetOrSet(ctx, s.Cache, key, s.Config.Billing.StatusCacheTTL,
		func(ctx context.Context) (*dto.BillingStatusResponse, error) {
			return s.buildBillingStatus(ctx, companyID, email)
		})
}

func (s *billingStatusService) buildBillingStatus(ctx context.Context, companyID, email string) (*dto.BillingStatusResponse, error) {
	comp, err := s.CompanyRepo.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	row, err := s.BillingRepo.GetByCompanyID(ctx, companyID)
	if err != nil && !ierr.IsNotFound(err) {
		// The company exists but the billing read failed; frequent pollers
		// get an inactive-looking payload instead of a visible error.
		s.Logger.Errorw("billing read failed, degrading to inactive status",
			"company_id", companyID,
			"error", err,
		)
		return s.degradedStatus(comp, email), nil
	}

	var resp *dto.BillingStatusResponse
	if row != nil {
		resp = s.statusFromBilling(comp, row, email)
	} else {
		resp = s.statusFromLegacy(comp, email)
	}
	return resp, nil
}

// statusFromBilling builds the response from the normalized billing row,
// which wins over the legacy company columns whenever present.
func (s *billingStatusService) statusFromBilling(comp *company.Company, row *billing.CompanyBilling, email string) *dto.BillingStatusResponse {
	def := s.entitlements.GetPlanDefinition(row.Plan, email)

	return &dto.BillingStatusResponse{
		CompanyID:          comp.ID,
		Plan:               row.Plan,
		PlanLabel:          def.Label,
		SubscriptionStatus: row.SubscriptionStatus,
		CurrentPeriodStart: row.CurrentPeriodStart,
		CurrentPeriodEnd:   row.CurrentPeriodEnd,
		CancelAtPeriodEnd:  row.CancelAtPeriodEnd,
		Trial:              s.entitlements.GetTrialStatus(row.TrialStartedAt, row.TrialEnd, email),
		Modules:            row.EnabledModules,
		ExtraUsers:         row.ExtraUsers,
		ExtraEntities:      row.ExtraEntities,
		ExtraStorageMB:     row.ExtraStorageMB,
		Bypass:             s.Bypass.ResolveBypass(email),
	}
}

// statusFromLegacy is the dual-write migration fallback: companies synced
// before CompanyBilling existed are still readable from their own columns.
func (s *billingStatusService) statusFromLegacy(comp *company.Company, email string) *dto.BillingStatusResponse {
	plan := types.ParsePlanTier(comp.Plan)
	def := s.entitlements.GetPlanDefinition(plan, email)

	return &dto.BillingStatusResponse{
		CompanyID:          comp.ID,
		Plan:               plan,
		PlanLabel:          def.Label,
		SubscriptionStatus: types.ParseSubscriptionStatus(string(comp.SubscriptionStatus)),
		CurrentPeriodEnd:   comp.CurrentPeriodEnd,
		Trial:              s.entitlements.GetTrialStatus(comp.TrialStartedAt, comp.TrialEnd, email),
		Modules:            []types.ModuleKey{},
		LegacyFallback:     true,
		Bypass:             s.Bypass.ResolveBypass(email),
	}
}

func (s *billingStatusService) degradedStatus(comp *company.Company, email string) *dto.BillingStatusResponse {
	return &dto.BillingStatusResponse{
		CompanyID:          comp.ID,
		Plan:               types.PlanTierFree,
		PlanLabel:          types.PlanTierFree.Label(),
		SubscriptionStatus: types.SubscriptionStatusInactive,
		Modules:            []types.ModuleKey{},
		Bypass:             s.Bypass.ResolveBypass(email),
	}
}

func (s *billingStatusService) GetEntitlements(ctx context.Context, companyID string) (*dto.EntitlementsResponse, error) {
	status, err := s.GetBillingStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}

	email := types.GetUserEmail(ctx)
	entitlements := billing.OrgEntitlements{
		Plan:           status.Plan,
		EnabledModules: status.Modules,
		ExtraUsers:     status.ExtraUsers,
		ExtraEntities:  status.ExtraEntities,
		ExtraStorageMB: status.ExtraStorageMB,
	}

	keys := append([]types.EntitlementKey{}, types.NumericEntitlementKeys...)
	keys = append(keys,
		types.EntitlementModuleCRM,
		types.EntitlementModuleCertificates,
		types.EntitlementModulePortal,
		types.EntitlementModuleTools,
		types.EntitlementFeatureSchedule,
		types.EntitlementFeatureTimesheets,
		types.EntitlementFeatureXero,
	)

	limits := make(map[types.EntitlementKey]types.LimitValue, len(keys))
	for _, key := range keys {
		limits[key] = s.entitlements.GetLimit(entitlements, key, email)
	}

	return &dto.EntitlementsResponse{
		CompanyID: companyID,
		Plan:      status.Plan,
		Limits:    limits,
	}, nil
}
