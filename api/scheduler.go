/*
scheduler.go - Automated monthly credit accrual

PURPOSE:
  Periodically grants each tenant its monthly plan credits. The grant is
  idempotent per tenant per calendar month, so an aggressive check interval
  or overlapping restarts cannot double-grant.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass lists all tenants and accrues the current month
  - Already-granted months are skipped via the ledger idempotency key

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(store, accrual, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - credits/accrual.go: Per-tenant monthly grant
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/store/sqlite"
)

// AccrualScheduler grants monthly plan credits across all tenants.
type AccrualScheduler struct {
	Store         *sqlite.Store
	Accrual       *credits.Accrual
	CheckInterval time.Duration
	Enabled       bool
	Logger        zerolog.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(store *sqlite.Store, accrual *credits.Accrual, logger zerolog.Logger) *AccrualScheduler {
	return &AccrualScheduler{
		Store:         store,
		Accrual:       accrual,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Logger:        logger,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (s *AccrualScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info().Msg("accrual scheduler disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	s.Logger.Info().Dur("interval", s.CheckInterval).Msg("accrual scheduler started")
}

// Stop stops the scheduler.
func (s *AccrualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
		close(s.stop)
		s.wg.Wait()
		s.Logger.Info().Msg("accrual scheduler stopped")
	}
}

func (s *AccrualScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.accrueAll()

	for {
		select {
		case <-s.ticker.C:
			s.accrueAll()
		case <-s.stop:
			return
		}
	}
}

func (s *AccrualScheduler) accrueAll() {
	ctx := context.Background()
	now := time.Now().UTC()

	tenants, err := s.Store.ListTenants(ctx)
	if err != nil {
		s.Logger.Error().Err(err).Msg("accrual pass failed to list tenants")
		return
	}

	granted := 0
	skipped := 0
	for _, tenant := range tenants {
		wrote, err := s.Accrual.AccrueMonth(ctx, tenant.ID, now)
		if err != nil {
			s.Logger.Error().Err(err).Str("tenant_id", string(tenant.ID)).Msg("accrual failed")
			continue
		}
		if wrote {
			granted++
		} else {
			skipped++
		}
	}

	if granted > 0 {
		s.Logger.Info().
			Int("granted", granted).
			Int("skipped", skipped).
			Str("month", now.Format("2006-01")).
			Msg("accrual pass completed")
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (s *AccrualScheduler) RunNow() {
	s.accrueAll()
}
