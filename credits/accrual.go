/*
accrual.go - Monthly plan credit grants

PURPOSE:
  Each tenant's plan includes a monthly AI-credit allowance. The accrual
  grants it at most once per calendar month via an idempotency key of the
  form "grant-<tenant>-<YYYY-MM>", so overlapping scheduler runs or manual
  triggers cannot double-grant.

SEE ALSO:
  - api/scheduler.go: Periodic trigger across all tenants
*/
package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpx/insight-engine/records"
)

// ActionMonthlyAllowance tags accrual grants in the ledger.
const ActionMonthlyAllowance = "monthly_allowance"

// Accrual grants monthly plan credits.
type Accrual struct {
	gate *Gate
	plan Amount
}

func NewAccrual(gate *Gate, plan Amount) *Accrual {
	return &Accrual{gate: gate, plan: plan}
}

// AccrueMonth grants the tenant its plan credits for the month containing
// `now`. Returns true when a grant was written, false when the month was
// already granted.
func (a *Accrual) AccrueMonth(ctx context.Context, tenant records.TenantID, now time.Time) (bool, error) {
	key := fmt.Sprintf("grant-%s-%s", tenant, now.UTC().Format("2006-01"))

	err := a.gate.Grant(ctx, tenant, a.plan, ActionMonthlyAllowance,
		fmt.Sprintf("monthly allowance %s", now.UTC().Format("2006-01")), key)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
