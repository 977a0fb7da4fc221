package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	domainFulfillment "github.com/tradeflowhq/tradeflow/internal/domain/fulfillment"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

type tagOrderRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewTagOrderRepository creates a new QR tag order repository.
func NewTagOrderRepository(client postgres.IClient, logger *logger.Logger) domainFulfillment.Repository {
	return &tagOrderRepository{client: client, logger: logger}
}

const tagOrderColumns = `
	id, company_id, stripe_session_id, quantity, amount_total, currency,
	order_status, status, created_at, updated_at, created_by, updated_by`

func (r *tagOrderRepository) Create(ctx context.Context, o *domainFulfillment.TagOrder) error {
	r.logger.Debugw("creating tag order",
		"company_id", o.CompanyID,
		"session_id", o.StripeSessionID,
		"quantity", o.Quantity,
	)

	span := StartRepositorySpan(ctx, "tag_orders", "create", map[string]interface{}{
		"company_id": o.CompanyID,
		"session_id": o.StripeSessionID,
	})
	defer FinishSpan(span)

	_, err := r.client.Querier(ctx).Exec(ctx, `
		INSERT INTO tag_orders (`+tagOrderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.CompanyID, o.StripeSessionID, o.Quantity, o.AmountTotal, o.Currency,
		string(o.OrderStatus), string(o.Status), o.CreatedAt, o.UpdatedAt, o.CreatedBy, o.UpdatedBy,
	)
	if err != nil {
		SetSpanError(span, err)
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An order for this checkout session already exists").
				WithReportableDetails(map[string]interface{}{
					"session_id": o.StripeSessionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create tag order").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *tagOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domainFulfillment.TagOrder, error) {
	span := StartRepositorySpan(ctx, "tag_orders", "get_by_session_id", map[string]interface{}{
		"session_id": sessionID,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRow(ctx, `
		SELECT `+tagOrderColumns+`
		FROM tag_orders
		WHERE stripe_session_id = $1`, sessionID)

	o, err := scanTagOrder(row)
	if err != nil {
		SetSpanError(span, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.NewError("tag order not found").
				WithReportableDetails(map[string]interface{}{"session_id": sessionID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get tag order").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return o, nil
}

func (r *tagOrderRepository) ListByCompany(ctx context.Context, companyID string) ([]*domainFulfillment.TagOrder, error) {
	span := StartRepositorySpan(ctx, "tag_orders", "list_by_company", map[string]interface{}{
		"company_id": companyID,
	})
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).Query(ctx, `
		SELECT `+tagOrderColumns+`
		FROM tag_orders
		WHERE company_id = $1
		ORDER BY created_at DESC`, companyID)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list tag orders").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var orders []*domainFulfillment.TagOrder
	for rows.Next() {
		o, err := scanTagOrder(rows)
		if err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan tag order").
				Mark(ierr.ErrDatabase)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list tag orders").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return orders, nil
}

func scanTagOrder(row pgx.Row) (*domainFulfillment.TagOrder, error) {
	var o domainFulfillment.TagOrder
	var amount decimal.Decimal
	var orderStatus, status string

	err := row.Scan(
		&o.ID, &o.CompanyID, &o.StripeSessionID, &o.Quantity, &amount, &o.Currency,
		&orderStatus, &status, &o.CreatedAt, &o.UpdatedAt, &o.CreatedBy, &o.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	o.AmountTotal = amount
	o.OrderStatus = domainFulfillment.TagOrderStatus(orderStatus)
	o.Status = types.Status(status)
	return &o, nil
}
