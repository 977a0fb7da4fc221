package company

import "context"

// Repository defines persistence operations for companies.
type Repository interface {
	Create(ctx context.Context, company *Company) error
	Get(ctx context.Context, id string) (*Company, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*Company, error)
	Update(ctx context.Context, company *Company) error
	// UpdateBillingMirror writes the legacy billing columns only.
	UpdateBillingMirror(ctx context.Context, id string, mirror BillingMirror) error
}
