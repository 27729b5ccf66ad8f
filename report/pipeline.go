/*
pipeline.go - The end-to-end report generation pipeline

PURPOSE:
  Composes the credit gate, record store, correlation engine, template
  renderer, generation client, and report store into one request/response
  flow. This is the only place where collaborator failures are mapped into
  the error taxonomy (errors.go).

STATE SEQUENCE:
  Validate focus area -> Consume credits -> Fetch tenant & student ->
  Fetch documents (abort if empty) -> Fan out six windowed fetches ->
  Correlate -> Build context -> Select & render template -> Generate ->
  Persist -> Respond

  Strictly linear: each step either proceeds or the run terminates with a
  specific error kind. No retries, no partial results.

CHARGE-BEFORE-CHECK:
  Credits are consumed before the document check and are never refunded on
  later failure. The attempt is billable, not just the outcome. Preserved
  from the reference behavior; flagged for product review in DESIGN.md.

CONCURRENCY:
  The six windowed fetches are independent reads executed under an
  errgroup. The group wait is the barrier before correlation runs; the
  goroutines share no mutable state, each writes its own result slot.
*/
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fpx/insight-engine/correlation"
	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
)

// ActionReport tags report charges in the credit ledger.
const ActionReport = "comprehensive_report"

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// CreditGate is the atomic check-and-deduct boundary. Satisfied by
// *credits.Gate.
type CreditGate interface {
	Consume(ctx context.Context, tenant records.TenantID, actionKind string, cost credits.Amount, metadata map[string]string) (credits.Decision, error)
}

// Generator is the external text-generation boundary. Satisfied by
// *llm.Client.
type Generator interface {
	Generate(ctx context.Context, systemRole, prompt string) (string, error)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Config holds the pipeline's tunables.
type Config struct {
	ReportCost        credits.Amount
	LookbackDays      int
	GenerationTimeout time.Duration
}

// DefaultConfig mirrors the reference behavior: 250 credits, 60 days,
// and a generous generation timeout.
func DefaultConfig() Config {
	return Config{
		ReportCost:        credits.DefaultReportCost,
		LookbackDays:      60,
		GenerationTimeout: 2 * time.Minute,
	}
}

// Pipeline orchestrates one report generation run.
type Pipeline struct {
	records   records.Store
	gate      CreditGate
	generator Generator
	reports   Store
	cfg       Config
	logger    zerolog.Logger

	now func() time.Time // Injectable clock for tests
}

func NewPipeline(rs records.Store, gate CreditGate, gen Generator, reports Store, cfg Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		records:   rs,
		gate:      gate,
		generator: gen,
		reports:   reports,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the pipeline's clock. Test hook.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// Request is the logical client request.
type Request struct {
	TenantID    records.TenantID
	StudentID   records.StudentID
	FocusArea   string // Empty defaults to comprehensive
	RequestedBy string // Caller identity passed through to provenance
}

// Result is the successful pipeline outcome.
type Result struct {
	ReportID         string
	Content          string
	DocumentCount    int
	MetricsAnalyzed  int
	InsightsIncluded int
	GeneratedAt      time.Time
}

// Run executes the pipeline. On failure the returned error wraps exactly one
// of the kinds in errors.go.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	log := p.logger.With().
		Str("tenant_id", string(req.TenantID)).
		Str("student_id", string(req.StudentID)).
		Logger()

	// Step 1: validate before any I/O.
	focus, err := ParseFocusArea(req.FocusArea)
	if err != nil {
		return nil, err
	}

	// Step 2: charge credits before any other work. A request that cannot
	// be fulfilled must not trigger record fetches or generation.
	decision, err := p.gate.Consume(ctx, req.TenantID, ActionReport, p.cfg.ReportCost, map[string]string{
		"student_id":  string(req.StudentID),
		"report_type": string(focus),
	})
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		log.Warn().Str("reason", decision.Reason).Msg("credit consumption denied")
		return nil, &QuotaExceededError{
			Required:  p.cfg.ReportCost,
			Available: decision.Remaining,
			Reason:    decision.Reason,
		}
	}

	// Steps 3-4: subject, tenant, and the unbounded document listing.
	tenant, err := p.records.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, req.TenantID)
	}

	student, err := p.records.GetStudent(ctx, req.TenantID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, req.StudentID)
	}

	documents, err := p.records.ListDocuments(ctx, req.TenantID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		// Credits were already charged and stay charged.
		return nil, ErrNoSourceDocuments
	}

	// Step 5: fan out the six windowed domains. Independent reads; the
	// group wait is the barrier before correlation.
	now := p.now()
	since := now.AddDate(0, 0, -p.cfg.LookbackDays)

	var (
		metrics   []records.Metric
		insights  []records.Insight
		progress  []records.ProgressEntry
		sessions  []records.SessionLog
		sleep     []records.SleepRecord
		incidents []records.IncidentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics, err = p.records.ListMetrics(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	g.Go(func() (err error) {
		insights, err = p.records.ListInsights(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	g.Go(func() (err error) {
		progress, err = p.records.ListProgress(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	g.Go(func() (err error) {
		sessions, err = p.records.ListSessionLogs(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	g.Go(func() (err error) {
		sleep, err = p.records.ListSleepRecords(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	g.Go(func() (err error) {
		incidents, err = p.records.ListIncidents(gctx, req.TenantID, req.StudentID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Steps 6-8: pure computation.
	summary := correlation.Correlate(sleep, incidents)

	reportCtx, err := BuildContext(student, tenant, documents, metrics, insights,
		progress, sessions, sleep, incidents, summary, now)
	if err != nil {
		return nil, err
	}

	prompt := Render(SelectTemplate(focus), reportCtx)

	// Step 9: the dominant latency contributor, bounded by a timeout.
	// Failure here occurs after the charge; accepted trade-off.
	genCtx, cancel := context.WithTimeout(ctx, p.cfg.GenerationTimeout)
	defer cancel()

	content, err := p.generator.Generate(genCtx, SystemRole, prompt)
	if err != nil {
		log.Error().Err(err).Msg("generation failed after credit charge")
		return nil, &GenerationError{Err: err}
	}

	// Step 10: persist with provenance.
	docIDs := make([]string, len(documents))
	for i, d := range documents {
		docIDs[i] = d.ID
	}
	saved, err := p.reports.SaveReport(ctx, GeneratedReport{
		TenantID:      req.TenantID,
		StudentID:     req.StudentID,
		Content:       content,
		Format:        FormatMarkdown,
		FocusArea:     focus,
		GeneratedBy:   req.RequestedBy,
		DocumentIDs:   docIDs,
		MetricsCount:  len(metrics),
		InsightsCount: len(insights),
		ProgressCount: len(progress),
	})
	if err != nil {
		log.Error().Err(err).Msg("persistence failed after generation")
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	log.Info().
		Str("report_id", saved.ID).
		Str("focus_area", string(focus)).
		Int("documents", len(documents)).
		Msg("report generated")

	return &Result{
		ReportID:         saved.ID,
		Content:          content,
		DocumentCount:    len(documents),
		MetricsAnalyzed:  len(metrics),
		InsightsIncluded: len(insights),
		GeneratedAt:      saved.GeneratedAt,
	}, nil
}
