/*
store.go - Read interface over the record domains

PURPOSE:
  The pipeline's only view of stored records. Implementations exist in
  store/sqlite (production) and store/memory (tests, demos).

WINDOWING:
  All reads except ListDocuments take a `since` bound and return records on
  or after it, most-recent-first. ListDocuments is unbounded: the document
  set defines the assessment's total scope.

SESSION LOG CAP:
  ListSessionLogs returns at most MaxSessionLogs rows. Educator logs are the
  highest-volume domain and the report only summarizes the ten most recent.

SEE ALSO:
  - types.go: Record definitions
  - report/pipeline.go: The only consumer of this interface
*/
package records

import (
	"context"
	"time"
)

// MaxSessionLogs bounds the session log listing.
const MaxSessionLogs = 50

// Store provides scoped, windowed read access to the record domains.
//
// Lookup methods return (nil, nil) when the row does not exist; it is the
// caller's job to map absence to its own error kind.
type Store interface {
	GetTenant(ctx context.Context, id TenantID) (*Tenant, error)
	GetStudent(ctx context.Context, tenant TenantID, id StudentID) (*Student, error)

	// ListDocuments returns all documents for the student, most-recent-first.
	ListDocuments(ctx context.Context, tenant TenantID, student StudentID) ([]Document, error)

	ListMetrics(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]Metric, error)

	// ListInsights returns active insights only.
	ListInsights(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]Insight, error)

	ListProgress(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]ProgressEntry, error)

	// ListSessionLogs returns at most MaxSessionLogs rows.
	ListSessionLogs(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]SessionLog, error)

	ListSleepRecords(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]SleepRecord, error)
	ListIncidents(ctx context.Context, tenant TenantID, student StudentID, since time.Time) ([]IncidentRecord, error)
}
