package fulfillment

import "context"

// Repository persists QR tag orders.
type Repository interface {
	// Create inserts the order; a duplicate stripe_session_id returns an
	// error marked ierr.ErrAlreadyExists.
	Create(ctx context.Context, order *TagOrder) error
	GetBySessionID(ctx context.Context, sessionID string) (*TagOrder, error)
	ListByCompany(ctx context.Context, companyID string) ([]*TagOrder, error)
}
