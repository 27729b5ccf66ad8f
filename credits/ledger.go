/*
ledger.go - Balance computation over the append-only transaction log

PURPOSE:
  Balance is a derived value: the sum of all transaction deltas for a
  tenant. There is no stored counter that can drift out of sync with the
  ledger.

SEE ALSO:
  - gate.go: Uses Balance inside a storage transaction
*/
package credits

import (
	"context"

	"github.com/fpx/insight-engine/records"
)

// Ledger exposes read operations over a tenant's credit transactions.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Balance sums all transaction deltas for the tenant.
func (l *Ledger) Balance(ctx context.Context, tenant records.TenantID) (Amount, error) {
	txs, err := l.store.List(ctx, tenant)
	if err != nil {
		return Amount{}, err
	}
	return sumDeltas(txs), nil
}

// History returns the tenant's transactions, oldest first.
func (l *Ledger) History(ctx context.Context, tenant records.TenantID) ([]Transaction, error) {
	return l.store.List(ctx, tenant)
}

func sumDeltas(txs []Transaction) Amount {
	balance := NewAmount(0)
	for _, tx := range txs {
		balance = balance.Add(tx.Delta)
	}
	return balance
}
