/*
Package credits provides the tenant AI-credit ledger and consumption gate.

PURPOSE:
  Every expensive generation is gated behind an atomic credit charge.
  Balances are never stored as a mutable counter: the ledger is an
  append-only log of grants and consumptions, and balance is always
  computed by summing transactions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A credit quantity backed by decimal.Decimal
  - Transaction: An immutable ledger entry (grant, consumption, adjustment)

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified; corrections are new
     adjustment entries
  2. Precision: decimal.Decimal avoids floating-point drift in a
     billing-adjacent ledger
  3. Idempotency: Recurring grants carry idempotency keys so retries and
     scheduler overlap cannot double-grant
  4. No refunds: A granted consumption stays charged even when the work it
     paid for fails downstream

SEE ALSO:
  - gate.go: Atomic check-and-deduct
  - ledger.go: Balance computation and history
  - accrual.go: Monthly plan grants
*/
package credits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fpx/insight-engine/records"
)

// =============================================================================
// AMOUNT - Credit quantity
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

// ParseAmount parses the string form produced by Amount.String.
func ParseAmount(s string) (Amount, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: v}, nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) Int() int64                { return a.Value.IntPart() }
func (a Amount) String() string            { return a.Value.String() }

// =============================================================================
// TRANSACTION - Atomic change to a tenant's credit balance
// =============================================================================

type TransactionID string

type TransactionType string

const (
	TxGrant       TransactionType = "grant"       // Plan allowance or admin top-up
	TxConsumption TransactionType = "consumption" // Credits spent on an action
	TxAdjustment  TransactionType = "adjustment"  // Manual correction
)

type Transaction struct {
	ID             TransactionID
	TenantID       records.TenantID
	ActionKind     string // e.g. "comprehensive_report", "monthly_allowance"
	Delta          Amount // Negative for consumption
	Type           TransactionType
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string
	CreatedAt      time.Time
}
