/*
store.go - Persistence interfaces for the credit ledger

The Store is append-only: no Update, no Delete. TxStore adds a transactional
closure so the gate can read a balance and append a consumption as one atomic
unit - the check-then-act race in quota gating is only safe when both steps
share a transaction.
*/
package credits

import (
	"context"

	"github.com/fpx/insight-engine/records"
)

// Store persists credit transactions. Append-only.
type Store interface {
	// Append adds a transaction. Fails with ErrDuplicateIdempotencyKey if
	// the transaction's idempotency key already exists.
	Append(ctx context.Context, tx Transaction) error

	// List returns all transactions for a tenant, oldest first.
	List(ctx context.Context, tenant records.TenantID) ([]Transaction, error)

	// Exists checks whether an idempotency key has been used.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

// TxStore is a Store that can execute a function inside a single storage
// transaction. Gate.Consume requires this.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
