package testutil

import (
	"context"

	"github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// InMemoryWebhookEventStore implements webhookevent.Repository, keyed by
// (company_id, event_id) like the unique constraint it stands in for.
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.ProcessedEvent]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.ProcessedEvent](),
	}
}

func eventKey(companyID, eventID string) string {
	return companyID + ":" + eventID
}

func (s *InMemoryWebhookEventStore) Create(ctx context.Context, event *webhookevent.ProcessedEvent) error {
	if event == nil {
		return ierr.NewError("event cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	// The real insert is ON CONFLICT DO NOTHING: a duplicate reports
	// ErrAlreadyExists without aborting the surrounding transaction, so the
	// generic Create (which models a plain INSERT) is not used here.
	key := eventKey(event.CompanyID, event.EventID)
	if _, err := s.InMemoryStore.Get(ctx, key); err == nil {
		return ierr.NewError("event already processed").
			WithReportableDetails(map[string]interface{}{
				"company_id": event.CompanyID,
				"event_id":   event.EventID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *event
	s.InMemoryStore.Set(ctx, key, &copied)
	return nil
}

func (s *InMemoryWebhookEventStore) Get(ctx context.Context, companyID, eventID string) (*webhookevent.ProcessedEvent, error) {
	event, err := s.InMemoryStore.Get(ctx, eventKey(companyID, eventID))
	if err != nil {
		return nil, ierr.NewError("processed event not found").
			WithReportableDetails(map[string]interface{}{
				"company_id": companyID,
				"event_id":   eventID,
			}).
			Mark(ierr.ErrNotFound)
	}
	copied := *event
	return &copied, nil
}
