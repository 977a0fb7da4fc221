package webhookevent

import (
	"time"

	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// ProcessedEvent marks a provider event as applied for a company. The
// unique (company_id, event_id) key is the idempotency guard against
// at-least-once webhook delivery: the marker is inserted before the sync
// applies, and a duplicate insert means the event was already handled.
type ProcessedEvent struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (e *ProcessedEvent) Validate() error {
	if e.CompanyID == "" {
		return ierr.NewError("company ID is required").Mark(ierr.ErrValidation)
	}
	if e.EventID == "" {
		return ierr.NewError("event ID is required").Mark(ierr.ErrValidation)
	}
	return nil
}
