package webhookevent

import "context"

// Repository persists processed-event markers.
type Repository interface {
	// Create inserts the marker; a duplicate (company_id, event_id) pair
	// returns an error marked ierr.ErrAlreadyExists without failing any
	// surrounding transaction, so callers can treat it as a skip signal.
	Create(ctx context.Context, event *ProcessedEvent) error
	Get(ctx context.Context, companyID, eventID string) (*ProcessedEvent, error)
}
