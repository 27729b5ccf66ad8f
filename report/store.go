/*
store.go - Persistence interface for generated reports

A report is written exactly once, with full provenance: the document ID set
and the record counts that informed the generated text. An audit can
reconstruct exactly which facts the report was built from.
*/
package report

import (
	"context"
	"time"

	"github.com/fpx/insight-engine/records"
)

// FormatMarkdown is the only report format currently produced.
const FormatMarkdown = "markdown"

// GeneratedReport is the persisted artifact. Append-only, never mutated.
type GeneratedReport struct {
	ID          string
	TenantID    records.TenantID
	StudentID   records.StudentID
	Content     string
	Format      string
	FocusArea   FocusArea
	GeneratedBy string // Caller identity, when supplied

	// Provenance
	DocumentIDs    []string
	MetricsCount   int
	InsightsCount  int
	ProgressCount  int

	GeneratedAt time.Time
}

// Store persists generated reports.
type Store interface {
	// SaveReport writes the report in a single atomic insert and returns
	// the stored copy with ID and GeneratedAt populated.
	SaveReport(ctx context.Context, r GeneratedReport) (GeneratedReport, error)

	// GetReport returns a stored report scoped to the tenant, or (nil, nil)
	// when absent.
	GetReport(ctx context.Context, tenant records.TenantID, id string) (*GeneratedReport, error)

	// ListReports returns a student's reports, most-recent-first.
	ListReports(ctx context.Context, tenant records.TenantID, student records.StudentID) ([]GeneratedReport, error)
}
