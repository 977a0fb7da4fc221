package testutil

import (
	"context"

	"github.com/tradeflowhq/tradeflow/internal/domain/fulfillment"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// InMemoryTagOrderStore implements fulfillment.Repository, keyed by the
// stripe session id like the unique constraint it stands in for.
type InMemoryTagOrderStore struct {
	*InMemoryStore[*fulfillment.TagOrder]
}

func NewInMemoryTagOrderStore() *InMemoryTagOrderStore {
	return &InMemoryTagOrderStore{
		InMemoryStore: NewInMemoryStore[*fulfillment.TagOrder](),
	}
}

func (s *InMemoryTagOrderStore) Create(ctx context.Context, order *fulfillment.TagOrder) error {
	if order == nil {
		return ierr.NewError("order cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := order.Validate(); err != nil {
		return err
	}

	copied := *order
	if err := s.InMemoryStore.Create(ctx, order.StripeSessionID, &copied); err != nil {
		return ierr.NewError("order already exists for session").
			WithReportableDetails(map[string]interface{}{
				"session_id": order.StripeSessionID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryTagOrderStore) GetBySessionID(ctx context.Context, sessionID string) (*fulfillment.TagOrder, error) {
	order, err := s.InMemoryStore.Get(ctx, sessionID)
	if err != nil {
		return nil, ierr.NewError("tag order not found").
			WithReportableDetails(map[string]interface{}{"session_id": sessionID}).
			Mark(ierr.ErrNotFound)
	}
	copied := *order
	return &copied, nil
}

func (s *InMemoryTagOrderStore) ListByCompany(ctx context.Context, companyID string) ([]*fulfillment.TagOrder, error) {
	var orders []*fulfillment.TagOrder
	for _, order := range s.All(ctx) {
		if order.CompanyID == companyID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}
