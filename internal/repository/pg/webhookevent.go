package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	domainEvent "github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
)

type webhookEventRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewWebhookEventRepository creates a new processed-event repository.
func NewWebhookEventRepository(client postgres.IClient, logger *logger.Logger) domainEvent.Repository {
	return &webhookEventRepository{client: client, logger: logger}
}

func (r *webhookEventRepository) Create(ctx context.Context, e *domainEvent.ProcessedEvent) error {
	span := StartRepositorySpan(ctx, "processed_events", "create", map[string]interface{}{
		"company_id": e.CompanyID,
		"event_id":   e.EventID,
	})
	defer FinishSpan(span)

	// DO NOTHING instead of letting the unique constraint raise: the marker
	// insert runs inside the sync transaction, and an errored statement would
	// abort it, turning the later commit into a rollback. A zero row count is
	// the duplicate signal and leaves the transaction committable.
	tag, err := r.client.Querier(ctx).Exec(ctx, `
		INSERT INTO processed_events (id, company_id, event_id, event_type, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, event_id) DO NOTHING`,
		e.ID, e.CompanyID, e.EventID, e.EventType, e.ProcessedAt,
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to record processed event").
			Mark(ierr.ErrDatabase)
	}
	if tag.RowsAffected() == 0 {
		SetSpanSuccess(span)
		return ierr.NewError("event has already been processed for this company").
			WithReportableDetails(map[string]interface{}{
				"company_id": e.CompanyID,
				"event_id":   e.EventID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *webhookEventRepository) Get(ctx context.Context, companyID, eventID string) (*domainEvent.ProcessedEvent, error) {
	span := StartRepositorySpan(ctx, "processed_events", "get", map[string]interface{}{
		"company_id": companyID,
		"event_id":   eventID,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRow(ctx, `
		SELECT id, company_id, event_id, event_type, processed_at
		FROM processed_events
		WHERE company_id = $1 AND event_id = $2`, companyID, eventID)

	var e domainEvent.ProcessedEvent
	err := row.Scan(&e.ID, &e.CompanyID, &e.EventID, &e.EventType, &e.ProcessedAt)
	if err != nil {
		SetSpanError(span, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.NewError("processed event not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get processed event").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &e, nil
}
