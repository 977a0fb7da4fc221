package billing

import "context"

// Repository defines persistence operations for company billing snapshots.
type Repository interface {
	// Upsert creates or fully replaces the billing row for
	// billing.CompanyID. Snapshot overwrite, never a field merge.
	Upsert(ctx context.Context, billing *CompanyBilling) error
	GetByCompanyID(ctx context.Context, companyID string) (*CompanyBilling, error)
}
