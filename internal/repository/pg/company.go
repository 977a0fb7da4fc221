package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	domainCompany "github.com/tradeflowhq/tradeflow/internal/domain/company"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type companyRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(client postgres.IClient, logger *logger.Logger) domainCompany.Repository {
	return &companyRepository{client: client, logger: logger}
}

const companyColumns = `
	id, name, stripe_customer_id, plan, subscription_status,
	current_period_end, trial_started_at, trial_end,
	status, created_at, updated_at, created_by, updated_by`

func (r *companyRepository) Create(ctx context.Context, c *domainCompany.Company) error {
	r.logger.Debugw("creating company", "company_id", c.ID, "name", c.Name)

	span := StartRepositorySpan(ctx, "company", "create", map[string]interface{}{
		"company_id": c.ID,
	})
	defer FinishSpan(span)

	_, err := r.client.Querier(ctx).Exec(ctx, `
		INSERT INTO companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Name, nullable(c.StripeCustomerID), c.Plan, string(c.SubscriptionStatus),
		c.CurrentPeriodEnd, c.TrialStartedAt, c.TrialEnd,
		string(c.Status), c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
	)
	if err != nil {
		SetSpanError(span, err)
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A company with this ID already exists").
				WithReportableDetails(map[string]interface{}{"company_id": c.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create company").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *companyRepository) Get(ctx context.Context, id string) (*domainCompany.Company, error) {
	span := StartRepositorySpan(ctx, "company", "get", map[string]interface{}{
		"company_id": id,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE id = $1`, id)

	c, err := scanCompany(row)
	if err != nil {
		SetSpanError(span, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.NewError("company not found").
				WithHint("No company exists with the given ID").
				WithReportableDetails(map[string]interface{}{"company_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get company").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return c, nil
}

func (r *companyRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domainCompany.Company, error) {
	span := StartRepositorySpan(ctx, "company", "get_by_stripe_customer_id", map[string]interface{}{
		"customer_id": customerID,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE stripe_customer_id = $1`, customerID)

	c, err := scanCompany(row)
	if err != nil {
		SetSpanError(span, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.NewError("company not found for stripe customer").
				WithReportableDetails(map[string]interface{}{"customer_id": customerID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get company by stripe customer").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return c, nil
}

func (r *companyRepository) Update(ctx context.Context, c *domainCompany.Company) error {
	span := StartRepositorySpan(ctx, "company", "update", map[string]interface{}{
		"company_id": c.ID,
	})
	defer FinishSpan(span)

	tag, err := r.client.Querier(ctx).Exec(ctx, `
		UPDATE companies SET
			name = $2, stripe_customer_id = $3, plan = $4,
			subscription_status = $5, current_period_end = $6,
			trial_started_at = $7, trial_end = $8,
			status = $9, updated_at = $10, updated_by = $11
		WHERE id = $1`,
		c.ID, c.Name, nullable(c.StripeCustomerID), c.Plan,
		string(c.SubscriptionStatus), c.CurrentPeriodEnd,
		c.TrialStartedAt, c.TrialEnd,
		string(c.Status), time.Now().UTC(), types.GetUserID(ctx),
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update company").
			Mark(ierr.ErrDatabase)
	}
	if tag.RowsAffected() == 0 {
		return ierr.NewError("company not found").
			WithReportableDetails(map[string]interface{}{"company_id": c.ID}).
			Mark(ierr.ErrNotFound)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *companyRepository) UpdateBillingMirror(ctx context.Context, id string, mirror domainCompany.BillingMirror) error {
	r.logger.Debugw("mirroring billing fields onto company",
		"company_id", id,
		"plan", mirror.Plan,
		"subscription_status", mirror.SubscriptionStatus,
	)

	span := StartRepositorySpan(ctx, "company", "update_billing_mirror", map[string]interface{}{
		"company_id": id,
	})
	defer FinishSpan(span)

	tag, err := r.client.Querier(ctx).Exec(ctx, `
		UPDATE companies SET
			plan = $2, subscription_status = $3, current_period_end = $4,
			updated_at = $5
		WHERE id = $1`,
		id, string(mirror.Plan), string(mirror.SubscriptionStatus),
		mirror.CurrentPeriodEnd, time.Now().UTC(),
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to mirror billing fields").
			WithReportableDetails(map[string]interface{}{"company_id": id}).
			Mark(ierr.ErrDatabase)
	}
	if tag.RowsAffected() == 0 {
		return ierr.NewError("company not found").
			WithReportableDetails(map[string]interface{}{"company_id": id}).
			Mark(ierr.ErrNotFound)
	}

	SetSpanSuccess(span)
	return nil
}

func scanCompany(row pgx.Row) (*domainCompany.Company, error) {
	var c domainCompany.Company
	var stripeCustomerID *string
	var status, subscriptionStatus string

	err := row.Scan(
		&c.ID, &c.Name, &stripeCustomerID, &c.Plan, &subscriptionStatus,
		&c.CurrentPeriodEnd, &c.TrialStartedAt, &c.TrialEnd,
		&status, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	if stripeCustomerID != nil {
		c.StripeCustomerID = *stripeCustomerID
	}
	c.SubscriptionStatus = types.SubscriptionStatus(subscriptionStatus)
	c.Status = types.Status(status)
	return &c, nil
}

// nullable converts empty strings to NULL so unique indexes on optional
// columns behave.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
