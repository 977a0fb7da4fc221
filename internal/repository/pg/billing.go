package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	domainBilling "github.com/tradeflowhq/tradeflow/internal/domain/billing"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type billingRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewBillingRepository creates a new company billing repository.
func NewBillingRepository(client postgres.IClient, logger *logger.Logger) domainBilling.Repository {
	return &billingRepository{client: client, logger: logger}
}

// Upsert replaces the whole billing snapshot for the company. ON CONFLICT
// on company_id makes the write a reconciliation rather than a merge: the
// latest upstream state wins in full.
func (r *billingRepository) Upsert(ctx context.Context, b *domainBilling.CompanyBilling) error {
	r.logger.Debugw("upserting company billing",
		"company_id", b.CompanyID,
		"plan", b.Plan,
		"subscription_status", b.SubscriptionStatus,
	)

	span := StartRepositorySpan(ctx, "company_billing", "upsert", map[string]interface{}{
		"company_id": b.CompanyID,
	})
	defer FinishSpan(span)

	modules := lo.Map(b.EnabledModules, func(m types.ModuleKey, _ int) string {
		return string(m)
	})

	_, err := r.client.Querier(ctx).Exec(ctx, `
		INSERT INTO company_billing (
			id, company_id, stripe_subscription_id, plan, subscription_status,
			current_period_start, current_period_end, cancel_at_period_end,
			trial_started_at, trial_end, enabled_modules,
			extra_users, extra_entities, extra_storage_mb,
			status, created_at, updated_at, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (company_id) DO UPDATE SET
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan = EXCLUDED.plan,
			subscription_status = EXCLUDED.subscription_status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			trial_started_at = EXCLUDED.trial_started_at,
			trial_end = EXCLUDED.trial_end,
			enabled_modules = EXCLUDED.enabled_modules,
			extra_users = EXCLUDED.extra_users,
			extra_entities = EXCLUDED.extra_entities,
			extra_storage_mb = EXCLUDED.extra_storage_mb,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		b.ID, b.CompanyID, nullable(b.StripeSubscriptionID), string(b.Plan),
		string(b.SubscriptionStatus),
		b.CurrentPeriodStart, b.CurrentPeriodEnd, b.CancelAtPeriodEnd,
		b.TrialStartedAt, b.TrialEnd, modules,
		b.ExtraUsers, b.ExtraEntities, b.ExtraStorageMB,
		string(b.Status), b.CreatedAt, time.Now().UTC(), b.CreatedBy, b.UpdatedBy,
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to upsert company billing").
			WithReportableDetails(map[string]interface{}{
				"company_id": b.CompanyID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *billingRepository) GetByCompanyID(ctx context.Context, companyID string) (*domainBilling.CompanyBilling, error) {
	span := StartRepositorySpan(ctx, "company_billing", "get_by_company_id", map[string]interface{}{
		"company_id": companyID,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRow(ctx, `
		SELECT
			id, company_id, stripe_subscription_id, plan, subscription_status,
			current_period_start, current_period_end, cancel_at_period_end,
			trial_started_at, trial_end, enabled_modules,
			extra_users, extra_entities, extra_storage_mb,
			status, created_at, updated_at, created_by, updated_by
		FROM company_billing
		WHERE company_id = $1`, companyID)

	var b domainBilling.CompanyBilling
	var stripeSubscriptionID *string
	var plan, subscriptionStatus, status string
	var modules []string

	err := row.Scan(
		&b.ID, &b.CompanyID, &stripeSubscriptionID, &plan, &subscriptionStatus,
		&b.CurrentPeriodStart, &b.CurrentPeriodEnd, &b.CancelAtPeriodEnd,
		&b.TrialStartedAt, &b.TrialEnd, &modules,
		&b.ExtraUsers, &b.ExtraEntities, &b.ExtraStorageMB,
		&status, &b.CreatedAt, &b.UpdatedAt, &b.CreatedBy, &b.UpdatedBy,
	)
	if err != nil {
		SetSpanError(span, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.NewError("company billing not found").
				WithReportableDetails(map[string]interface{}{"company_id": companyID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get company billing").
			Mark(ierr.ErrDatabase)
	}

	if stripeSubscriptionID != nil {
		b.StripeSubscriptionID = *stripeSubscriptionID
	}
	b.Plan = types.PlanTier(plan)
	b.SubscriptionStatus = types.SubscriptionStatus(subscriptionStatus)
	b.Status = types.Status(status)
	b.EnabledModules = lo.Map(modules, func(m string, _ int) types.ModuleKey {
		return types.ModuleKey(m)
	})

	SetSpanSuccess(span)
	return &b, nil
}
