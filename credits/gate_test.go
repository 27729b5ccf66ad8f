package credits_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
	"github.com/fpx/insight-engine/store/memory"
)

const tenant = records.TenantID("tenant-1")

func newGate(t *testing.T, balance int64) (*credits.Gate, *memory.LedgerStore) {
	t.Helper()
	store := memory.NewLedgerStore()
	gate := credits.NewGate(store)
	if balance > 0 {
		require.NoError(t, gate.Grant(context.Background(), tenant,
			credits.NewAmount(balance), "signup_grant", "initial", "grant-init"))
	}
	return gate, store
}

func balanceOf(t *testing.T, store credits.Store) int64 {
	t.Helper()
	amount, err := credits.NewLedger(store).Balance(context.Background(), tenant)
	require.NoError(t, err)
	return amount.Int()
}

// =============================================================================
// CONSUME
// =============================================================================

func TestGate_ConsumeGranted(t *testing.T) {
	// GIVEN a tenant with 1000 credits
	gate, store := newGate(t, 1000)

	// WHEN consuming 250
	decision, err := gate.Consume(context.Background(), tenant, "comprehensive_report",
		credits.NewAmount(250), map[string]string{"student_id": "s1"})

	// THEN the charge is granted and the ledger reflects it
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, int64(750), decision.Remaining.Int())
	assert.Equal(t, int64(750), balanceOf(t, store))

	// AND the consumption entry carries the action and metadata
	txs, err := store.List(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	consumption := txs[1]
	assert.Equal(t, credits.TxConsumption, consumption.Type)
	assert.Equal(t, "comprehensive_report", consumption.ActionKind)
	assert.Equal(t, int64(-250), consumption.Delta.Int())
	assert.Equal(t, "s1", consumption.Metadata["student_id"])
}

func TestGate_ConsumeExactBalance(t *testing.T) {
	// GIVEN a balance exactly equal to the cost
	gate, store := newGate(t, 250)

	// WHEN consuming 250
	decision, err := gate.Consume(context.Background(), tenant, "comprehensive_report",
		credits.NewAmount(250), nil)

	// THEN the charge is granted down to zero
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, int64(0), decision.Remaining.Int())
	assert.Equal(t, int64(0), balanceOf(t, store))
}

func TestGate_ConsumeDenied(t *testing.T) {
	// GIVEN a balance one credit short
	gate, store := newGate(t, 249)

	// WHEN consuming 250
	decision, err := gate.Consume(context.Background(), tenant, "comprehensive_report",
		credits.NewAmount(250), nil)

	// THEN the decision is a denial, not an error, and nothing was written
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, int64(249), decision.Remaining.Int())
	assert.NotEmpty(t, decision.Reason)
	assert.Equal(t, int64(249), balanceOf(t, store))

	txs, err := store.List(context.Background(), tenant)
	require.NoError(t, err)
	assert.Len(t, txs, 1) // Only the initial grant
}

func TestGate_ConsumeZeroBalanceTenant(t *testing.T) {
	// GIVEN a tenant with no ledger history at all
	gate, _ := newGate(t, 0)

	// WHEN consuming
	decision, err := gate.Consume(context.Background(), tenant, "comprehensive_report",
		credits.NewAmount(250), nil)

	// THEN the denial reports a zero balance
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, int64(0), decision.Remaining.Int())
}

func TestGate_ConcurrentConsumeSingleWinner(t *testing.T) {
	// GIVEN a balance worth exactly one charge and many racing consumers
	gate, store := newGate(t, 250)
	const racers = 16

	// WHEN all consumers race for the same 250 credits
	var wg sync.WaitGroup
	granted := make([]bool, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision, err := gate.Consume(context.Background(), tenant,
				"comprehensive_report", credits.NewAmount(250), nil)
			errs[i] = err
			granted[i] = decision.Granted
		}(i)
	}
	wg.Wait()

	// THEN no consume errored, exactly one wins, and the balance never
	// goes negative
	for _, err := range errs {
		require.NoError(t, err)
	}
	wins := 0
	for _, g := range granted {
		if g {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(0), balanceOf(t, store))
}

// =============================================================================
// GRANT & LEDGER
// =============================================================================

func TestGate_GrantIdempotency(t *testing.T) {
	// GIVEN a grant written with an idempotency key
	gate, store := newGate(t, 0)
	ctx := context.Background()
	require.NoError(t, gate.Grant(ctx, tenant, credits.NewAmount(500),
		"admin_topup", "support credit", "topup-77"))

	// WHEN the same grant is retried
	err := gate.Grant(ctx, tenant, credits.NewAmount(500),
		"admin_topup", "support credit", "topup-77")

	// THEN the retry is rejected and the balance counted the grant once
	require.ErrorIs(t, err, credits.ErrDuplicateIdempotencyKey)
	assert.Equal(t, int64(500), balanceOf(t, store))
}

func TestLedger_BalanceSumsAllDeltas(t *testing.T) {
	// GIVEN grants and consumptions interleaved
	gate, store := newGate(t, 1000)
	ctx := context.Background()

	_, err := gate.Consume(ctx, tenant, "comprehensive_report", credits.NewAmount(250), nil)
	require.NoError(t, err)
	require.NoError(t, gate.Grant(ctx, tenant, credits.NewAmount(100),
		"admin_topup", "goodwill", "topup-1"))
	_, err = gate.Consume(ctx, tenant, "comprehensive_report", credits.NewAmount(250), nil)
	require.NoError(t, err)

	// THEN the balance is the signed sum
	assert.Equal(t, int64(600), balanceOf(t, store))

	// AND history preserves insertion order
	history, err := credits.NewLedger(store).History(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, credits.TxGrant, history[0].Type)
	assert.Equal(t, credits.TxConsumption, history[3].Type)
}

// =============================================================================
// MONTHLY ACCRUAL
// =============================================================================

func TestAccrual_GrantsOncePerMonth(t *testing.T) {
	// GIVEN a monthly plan of 1000 credits
	gate, store := newGate(t, 0)
	accrual := credits.NewAccrual(gate, credits.NewAmount(1000))
	ctx := context.Background()
	march := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// WHEN accruing twice in the same month
	first, err := accrual.AccrueMonth(ctx, tenant, march)
	require.NoError(t, err)
	second, err := accrual.AccrueMonth(ctx, tenant, march.AddDate(0, 0, 20))
	require.NoError(t, err)

	// THEN only the first run writes a grant
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, int64(1000), balanceOf(t, store))

	// AND the next month accrues again
	granted, err := accrual.AccrueMonth(ctx, tenant, march.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, int64(2000), balanceOf(t, store))
}
