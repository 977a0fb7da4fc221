package testutil

import (
	"context"
	"errors"

	"github.com/tradeflowhq/tradeflow/internal/postgres"
)

// ErrTxCommitRollback mirrors pgx reporting a rollback when a transaction
// with a failed statement is committed.
var ErrTxCommitRollback = errors.New("commit unexpectedly resulted in rollback")

type txStateKey struct{}

type txState struct {
	aborted bool
}

// MarkTxAborted poisons the surrounding fake transaction, the way any
// errored statement aborts a real Postgres transaction. No-op outside
// WithTx. In-memory stores call it when they model a failing SQL statement.
func MarkTxAborted(ctx context.Context) {
	if state, ok := ctx.Value(txStateKey{}).(*txState); ok {
		state.aborted = true
	}
}

// FakeDBClient satisfies postgres.IClient for services backed by in-memory
// stores. WithTx carries the Postgres transaction semantics services depend
// on: a statement error inside the transaction poisons it, and committing a
// poisoned transaction reports a rollback instead.
type FakeDBClient struct{}

func NewFakeDBClient() *FakeDBClient {
	return &FakeDBClient{}
}

func (c *FakeDBClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

func (c *FakeDBClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txStateKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	if err := fn(context.WithValue(ctx, txStateKey{}, state)); err != nil {
		return err
	}
	if state.aborted {
		return ErrTxCommitRollback
	}
	return nil
}

func (c *FakeDBClient) Ping(ctx context.Context) error {
	return nil
}

func (c *FakeDBClient) Close() {}
