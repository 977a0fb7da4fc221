package testutil

import (
	"context"

	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// InMemoryCompanyStore implements company.Repository
type InMemoryCompanyStore struct {
	*InMemoryStore[*company.Company]
}

func NewInMemoryCompanyStore() *InMemoryCompanyStore {
	return &InMemoryCompanyStore{
		InMemoryStore: NewInMemoryStore[*company.Company](),
	}
}

func copyCompany(c *company.Company) *company.Company {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (s *InMemoryCompanyStore) Create(ctx context.Context, c *company.Company) error {
	if c == nil {
		return ierr.NewError("company cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, c.ID, copyCompany(c))
}

func (s *InMemoryCompanyStore) Get(ctx context.Context, id string) (*company.Company, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("company not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyCompany(c), nil
}

func (s *InMemoryCompanyStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*company.Company, error) {
	for _, c := range s.All(ctx) {
		if c.StripeCustomerID == customerID {
			return copyCompany(c), nil
		}
	}
	return nil, ierr.NewError("company not found for stripe customer").
		WithReportableDetails(map[string]interface{}{"stripe_customer_id": customerID}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryCompanyStore) Update(ctx context.Context, c *company.Company) error {
	if c == nil {
		return ierr.NewError("company cannot be nil").Mark(ierr.ErrValidation)
	}
	if _, err := s.InMemoryStore.Get(ctx, c.ID); err != nil {
		return ierr.NewError("company not found").
			WithReportableDetails(map[string]interface{}{"id": c.ID}).
			Mark(ierr.ErrNotFound)
	}
	s.InMemoryStore.Set(ctx, c.ID, copyCompany(c))
	return nil
}

func (s *InMemoryCompanyStore) UpdateBillingMirror(ctx context.Context, id string, mirror company.BillingMirror) error {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return ierr.NewError("company not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	updated := copyCompany(c)
	updated.Plan = string(mirror.Plan)
	updated.SubscriptionStatus = mirror.SubscriptionStatus
	updated.CurrentPeriodEnd = mirror.CurrentPeriodEnd
	s.InMemoryStore.Set(ctx, id, updated)
	return nil
}
