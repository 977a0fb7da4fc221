package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	"github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/idempotency"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// Price/product metadata keys the sync engine understands. Set on the
// Stripe dashboard when plans and add-ons are configured.
const (
	MetadataKeyCompanyID = "companyId"
	MetadataKeyPlan      = "plan"
	MetadataKeyModules   = "modules"
	MetadataKeyAddon     = "addon"
	MetadataKeyAddonUnit = "addon_unit"

	AddonExtraUsers     = "extra_users"
	AddonExtraEntities  = "extra_entities"
	AddonExtraStorageMB = "extra_storage_mb"
)

// SyncResult reports the outcome of one sync attempt. Skipped means the
// event id was already applied and storage was left untouched.
type SyncResult struct {
	Success bool `json:"success"`
	Skipped bool `json:"skipped"`
}

// SubscriptionSyncService reconciles local billing state against Stripe
// subscription snapshots. Writes are idempotent per event id and overwrite
// the whole CompanyBilling row, so duplicate and out-of-order deliveries
// converge instead of corrupting state.
type SubscriptionSyncService interface {
	// SyncSubscriptionToBilling applies a subscription snapshot for a
	// company. The eventId guards against Stripe's at-least-once delivery.
	SyncSubscriptionToBilling(ctx context.Context, companyID string, sub *stripelib.Subscription, eventID string) (*SyncResult, error)

	// RefreshAndSyncSubscription re-fetches the subscription from Stripe
	// before syncing. Used where the webhook payload may be stale relative
	// to rapid successive changes; the event is a trigger, not the state.
	RefreshAndSyncSubscription(ctx context.Context, subscriptionID, companyID, eventID string) (*SyncResult, error)

	// HandlePaymentFailed marks the company past due without re-deriving
	// plan or module composition.
	HandlePaymentFailed(ctx context.Context, companyID, eventID string) (*SyncResult, error)
}

type subscriptionSyncService struct {
	ServiceParams
	idgen *idempotency.Generator
}

func NewSubscriptionSyncService(params ServiceParams) SubscriptionSyncService {
	return &subscriptionSyncService{
		ServiceParams: params,
		idgen:         idempotency.NewGenerator(),
	}
}

func (s *subscriptionSyncService) SyncSubscriptionToBilling(ctx context.Context, companyID string, sub *stripelib.Subscription, eventID string) (*SyncResult, error) {
	if companyID == "" {
		return nil, ierr.NewError("company ID is required").
			Mark(ierr.ErrValidation)
	}
	if sub == nil {
		return nil, ierr.NewError("subscription is required").
			Mark(ierr.ErrValidation)
	}
	if eventID == "" {
		return nil, ierr.NewError("event ID is required").
			Mark(ierr.ErrValidation)
	}

	return s.applyOnce(ctx, companyID, eventID, "subscription.sync", func(ctx context.Context) error {
		snapshot := s.deriveBillingSnapshot(ctx, companyID, sub)
		if err := snapshot.Validate(); err != nil {
			return err
		}

		if err := s.BillingRepo.Upsert(ctx, snapshot); err != nil {
			return err
		}

		return s.CompanyRepo.UpdateBillingMirror(ctx, companyID, company.BillingMirror{
			Plan:               snapshot.Plan,
			SubscriptionStatus: snapshot.SubscriptionStatus,
			CurrentPeriodEnd:   snapshot.CurrentPeriodEnd,
		})
	})
}

func (s *subscriptionSyncService) RefreshAndSyncSubscription(ctx context.Context, subscriptionID, companyID, eventID string) (*SyncResult, error) {
	sub, err := s.SubscriptionFetcher.GetSubscription(ctx, subscriptionID)
	if err != nil {
		s.Logger.Errorw("failed to refresh subscription from stripe",
			"subscription_id", subscriptionID,
			"company_id", companyID,
			"event_id", eventID,
			"error", err,
		)
		return &SyncResult{}, err
	}
	return s.SyncSubscriptionToBilling(ctx, companyID, sub, eventID)
}

func (s *subscriptionSyncService) HandlePaymentFailed(ctx context.Context, companyID, eventID string) (*SyncResult, error) {
	if companyID == "" {
		return nil, ierr.NewError("company ID is required").
			Mark(ierr.ErrValidation)
	}
	if eventID == "" {
		return nil, ierr.NewError("event ID is required").
			Mark(ierr.ErrValidation)
	}

	return s.applyOnce(ctx, companyID, eventID, "invoice.payment_failed", func(ctx context.Context) error {
		existing, err := s.BillingRepo.GetByCompanyID(ctx, companyID)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}

		if existing == nil {
			// Payment failed before the first successful sync; record a
			// minimal past-due row from the legacy company fields.
			comp, err := s.CompanyRepo.Get(ctx, companyID)
			if err != nil {
				return err
			}
			existing = &billing.CompanyBilling{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMPANY_BILLING),
				CompanyID:      companyID,
				Plan:           types.ParsePlanTier(comp.Plan),
				TrialStartedAt: comp.TrialStartedAt,
				TrialEnd:       comp.TrialEnd,
				BaseModel:      types.GetDefaultBaseModel(ctx),
			}
		}

		// Only payment standing changes; plan and module composition stay.
		existing.SubscriptionStatus = types.SubscriptionStatusPastDue

		if err := s.BillingRepo.Upsert(ctx, existing); err != nil {
			return err
		}

		return s.CompanyRepo.UpdateBillingMirror(ctx, companyID, company.BillingMirror{
			Plan:               existing.Plan,
			SubscriptionStatus: existing.SubscriptionStatus,
			CurrentPeriodEnd:   existing.CurrentPeriodEnd,
		})
	})
}

// applyOnce wraps fn with the event idempotency guard inside a transaction.
// The marker insert and the billing write commit together, so a crash
// between them cannot strand a marked-but-unapplied event.
func (s *subscriptionSyncService) applyOnce(ctx context.Context, companyID, eventID, eventType string, fn func(ctx context.Context) error) (*SyncResult, error) {
	var skipped bool

	// The marker ID is derived from the same keys as the unique constraint,
	// so a redelivered event maps to the same row by identity too.
	markerID := s.idgen.GenerateKey(idempotency.ScopeWebhookEvent, map[string]interface{}{
		"company_id": companyID,
		"event_id":   eventID,
	})

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		marker := &webhookevent.ProcessedEvent{
			ID:          markerID,
			CompanyID:   companyID,
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		}
		if err := s.WebhookEventRepo.Create(ctx, marker); err != nil {
			if ierr.IsAlreadyExists(err) {
				skipped = true
				return nil
			}
			return err
		}
		return fn(ctx)
	})

	if err != nil {
		s.Logger.Errorw("billing sync failed",
			"company_id", companyID,
			"event_id", eventID,
			"event_type", eventType,
			"error", err,
		)
		// No inline retry: Stripe redelivery drives retries, and the
		// event marker rolled back with the failed write.
		return &SyncResult{}, err
	}

	if skipped {
		s.Logger.Infow("duplicate webhook event skipped",
			"company_id", companyID,
			"event_id", eventID,
			"event_type", eventType,
		)
		return &SyncResult{Success: true, Skipped: true}, nil
	}

	s.Logger.Infow("billing sync applied",
		"company_id", companyID,
		"event_id", eventID,
		"event_type", eventType,
	)
	return &SyncResult{Success: true}, nil
}

// deriveBillingSnapshot maps the Stripe subscription onto a full local
// snapshot. The Stripe object is authoritative for every field it carries.
func (s *subscriptionSyncService) deriveBillingSnapshot(ctx context.Context, companyID string, sub *stripelib.Subscription) *billing.CompanyBilling {
	snapshot := &billing.CompanyBilling{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMPANY_BILLING),
		CompanyID:            companyID,
		StripeSubscriptionID: sub.ID,
		Plan:                 types.PlanTierFree,
		SubscriptionStatus:   types.ParseSubscriptionStatus(string(sub.Status)),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		TrialStartedAt:       unixTime(sub.TrialStart),
		TrialEnd:             unixTime(sub.TrialEnd),
		EnabledModules:       []types.ModuleKey{},
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}

	if sub.Items == nil {
		return snapshot
	}

	moduleSet := make(map[types.ModuleKey]struct{})

	for _, item := range sub.Items.Data {
		if item == nil || item.Price == nil {
			continue
		}

		// Period bounds live on the items; the widest window wins when a
		// subscription carries multiple prices.
		start := unixTime(item.CurrentPeriodStart)
		end := unixTime(item.CurrentPeriodEnd)
		if start != nil && (snapshot.CurrentPeriodStart == nil || start.Before(*snapshot.CurrentPeriodStart)) {
			snapshot.CurrentPeriodStart = start
		}
		if end != nil && (snapshot.CurrentPeriodEnd == nil || end.After(*snapshot.CurrentPeriodEnd)) {
			snapshot.CurrentPeriodEnd = end
		}

		metadata := item.Price.Metadata
		if addon, ok := metadata[MetadataKeyAddon]; ok {
			applyAddon(snapshot, addon, item.Quantity, metadata[MetadataKeyAddonUnit])
			continue
		}

		if plan, ok := metadata[MetadataKeyPlan]; ok {
			snapshot.Plan = types.ParsePlanTier(plan)
		} else if item.Price.LookupKey != "" {
			snapshot.Plan = types.ParsePlanTier(planFromLookupKey(item.Price.LookupKey))
		}

		collectModules(moduleSet, metadata[MetadataKeyModules])
		if item.Price.Product != nil {
			collectModules(moduleSet, item.Price.Product.Metadata[MetadataKeyModules])
		}
	}

	snapshot.EnabledModules = sortedModules(moduleSet)
	return snapshot
}

// applyAddon folds one add-on line item into the snapshot counters.
func applyAddon(snapshot *billing.CompanyBilling, addon string, quantity int64, rawUnit string) {
	unit := int64(1)
	if parsed, err := strconv.ParseInt(rawUnit, 10, 64); err == nil && parsed > 0 {
		unit = parsed
	}
	delta := quantity * unit

	switch addon {
	case AddonExtraUsers:
		snapshot.ExtraUsers += delta
	case AddonExtraEntities:
		snapshot.ExtraEntities += delta
	case AddonExtraStorageMB:
		snapshot.ExtraStorageMB += delta
	}
}

// collectModules folds a CSV of module keys into the set, dropping
// unrecognized keys.
func collectModules(set map[types.ModuleKey]struct{}, csv string) {
	for _, raw := range strings.Split(csv, ",") {
		if key, ok := types.ParseModuleKey(strings.TrimSpace(raw)); ok {
			set[key] = struct{}{}
		}
	}
}

func sortedModules(set map[types.ModuleKey]struct{}) []types.ModuleKey {
	modules := make([]types.ModuleKey, 0, len(set))
	for key := range set {
		modules = append(modules, key)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i] < modules[j] })
	return modules
}

// planFromLookupKey extracts the tier from lookup keys like "pro_monthly".
func planFromLookupKey(lookupKey string) string {
	if idx := strings.IndexByte(lookupKey, '_'); idx > 0 {
		return lookupKey[:idx]
	}
	return lookupKey
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
