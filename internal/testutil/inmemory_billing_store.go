package testutil

import (
	"context"

	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// InMemoryBillingStore implements billing.Repository, keyed by company id so
// Upsert matches the unique company_id constraint.
type InMemoryBillingStore struct {
	*InMemoryStore[*billing.CompanyBilling]
}

func NewInMemoryBillingStore() *InMemoryBillingStore {
	return &InMemoryBillingStore{
		InMemoryStore: NewInMemoryStore[*billing.CompanyBilling](),
	}
}

func copyCompanyBilling(b *billing.CompanyBilling) *billing.CompanyBilling {
	if b == nil {
		return nil
	}
	copied := *b
	copied.EnabledModules = append([]types.ModuleKey{}, b.EnabledModules...)
	return &copied
}

func (s *InMemoryBillingStore) Upsert(ctx context.Context, b *billing.CompanyBilling) error {
	if b == nil {
		return ierr.NewError("billing cannot be nil").Mark(ierr.ErrValidation)
	}
	if b.CompanyID == "" {
		return ierr.NewError("company ID is required").Mark(ierr.ErrValidation)
	}
	s.InMemoryStore.Set(ctx, b.CompanyID, copyCompanyBilling(b))
	return nil
}

func (s *InMemoryBillingStore) GetByCompanyID(ctx context.Context, companyID string) (*billing.CompanyBilling, error) {
	b, err := s.InMemoryStore.Get(ctx, companyID)
	if err != nil {
		return nil, ierr.NewError("billing not found").
			WithReportableDetails(map[string]interface{}{"company_id": companyID}).
			Mark(ierr.ErrNotFound)
	}
	return copyCompanyBilling(b), nil
}
