/*
gate.go - Atomic credit consumption

PURPOSE:
  The single choke point between a request and expensive generation work.
  Consume reads the tenant's balance and appends the consumption entry
  inside one storage transaction, so two requests racing for the last
  charge's worth of balance cannot both be granted.

DENIAL:
  Insufficient balance writes nothing and returns a Decision with
  Granted=false, the current balance, and a human-readable reason. The
  caller maps this to a payment-required outcome and performs no further
  work.

NO REFUNDS:
  Once granted, the charge stands even if generation or persistence fails
  afterwards. The attempt is billable, not just the outcome.
*/
package credits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fpx/insight-engine/records"
)

// DefaultReportCost is the fixed charge for one generated report.
var DefaultReportCost = NewAmount(250)

// Decision is the outcome of a consumption attempt.
type Decision struct {
	Granted   bool
	Remaining Amount
	Reason    string // Set when denied
}

// Gate performs atomic check-and-deduct against a tenant's balance.
type Gate struct {
	store TxStore
}

func NewGate(store TxStore) *Gate {
	return &Gate{store: store}
}

// Consume atomically charges the tenant `cost` credits for the given action.
// Returns a denied Decision (not an error) when the balance is insufficient;
// errors are reserved for storage failures.
func (g *Gate) Consume(ctx context.Context, tenant records.TenantID, actionKind string, cost Amount, metadata map[string]string) (Decision, error) {
	var decision Decision

	err := g.store.WithTx(ctx, func(s Store) error {
		txs, err := s.List(ctx, tenant)
		if err != nil {
			return err
		}
		balance := sumDeltas(txs)

		if balance.LessThan(cost) {
			decision = Decision{
				Granted:   false,
				Remaining: balance,
				Reason:    "Insufficient AI credits to generate this report.",
			}
			return nil // Denial is not a storage error; commit nothing
		}

		tx := Transaction{
			ID:         TransactionID(uuid.NewString()),
			TenantID:   tenant,
			ActionKind: actionKind,
			Delta:      cost.Neg(),
			Type:       TxConsumption,
			Reason:     fmt.Sprintf("consumed for %s", actionKind),
			Metadata:   metadata,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.Append(ctx, tx); err != nil {
			return err
		}

		decision = Decision{Granted: true, Remaining: balance.Sub(cost)}
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("credit consumption failed: %w", err)
	}
	return decision, nil
}

// Grant adds credits to a tenant's balance. Used by admin top-ups and the
// monthly accrual; an idempotency key makes the grant safe to retry.
func (g *Gate) Grant(ctx context.Context, tenant records.TenantID, amount Amount, actionKind, reason, idempotencyKey string) error {
	return g.store.Append(ctx, Transaction{
		ID:             TransactionID(uuid.NewString()),
		TenantID:       tenant,
		ActionKind:     actionKind,
		Delta:          amount,
		Type:           TxGrant,
		Reason:         reason,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	})
}
