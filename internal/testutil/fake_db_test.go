package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

func TestWithTxReportsRollbackAfterFailedStatement(t *testing.T) {
	ctx := context.Background()
	db := NewFakeDBClient()

	store := NewInMemoryStore[string]()
	require.NoError(t, store.Create(ctx, "k", "v"))

	// A plain INSERT unique violation aborts the transaction; swallowing the
	// error must still fail the commit.
	err := db.WithTx(ctx, func(ctx context.Context) error {
		createErr := store.Create(ctx, "k", "v2")
		require.True(t, ierr.IsAlreadyExists(createErr))
		return nil
	})
	assert.ErrorIs(t, err, ErrTxCommitRollback)
}

func TestWithTxCommitsWhenNoStatementFails(t *testing.T) {
	ctx := context.Background()
	db := NewFakeDBClient()

	store := NewInMemoryStore[string]()
	err := db.WithTx(ctx, func(ctx context.Context) error {
		return store.Create(ctx, "k", "v")
	})
	assert.NoError(t, err)
}

func TestMarkTxAbortedIsNoOpOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore[string]()
	require.NoError(t, store.Create(ctx, "k", "v"))

	err := store.Create(ctx, "k", "v2")
	assert.True(t, ierr.IsAlreadyExists(err))
}
