/*
Package records defines the read model for the insight pipeline.

PURPOSE:
  Typed access to the seven record domains that feed a clinical insight
  report: documents, metrics, insights, progress entries, session logs,
  sleep records, and incident records. Records are immutable facts created
  upstream; the pipeline only reads them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student/Tenant: The subject of a report and its owning account scope
  - Record domains: One struct per domain, all carrying tenant/student scope
    and a date or timestamp
  - Look-back window: Most domains are queried over a bounded window
    (default 60 days); the document listing is unbounded because the
    documents define the assessment's total scope

DESIGN PRINCIPLES:
  1. Immutability: Records are never modified by the pipeline
  2. Scoping: Every record carries both TenantID and StudentID
  3. Type Safety: Strong typing for IDs prevents mixing tenant/student IDs

SEE ALSO:
  - store.go: Read interface over these types
  - store/sqlite: Persistence implementation
*/
package records

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type StudentID string

// =============================================================================
// SUBJECT & TENANT
// =============================================================================

// Tenant is the owning account scope (a family). Every query and the credit
// balance are scoped to a tenant.
type Tenant struct {
	ID   TenantID
	Name string
}

// Student is the individual being reported on.
type Student struct {
	ID          StudentID
	TenantID    TenantID
	Name        string
	DateOfBirth time.Time // Zero value when unknown
}

// Age returns the student's age in whole years at the given time,
// or 0 when the date of birth is unknown.
func (s Student) Age(now time.Time) int {
	if s.DateOfBirth.IsZero() {
		return 0
	}
	years := int(now.Sub(s.DateOfBirth).Hours() / (365.25 * 24))
	if years < 0 {
		return 0
	}
	return years
}

// =============================================================================
// RECORD DOMAINS
// =============================================================================

// Document is an uploaded assessment document. The document listing is the
// primary source material: a report cannot be generated without at least one.
type Document struct {
	ID           string
	TenantID     TenantID
	StudentID    StudentID
	FileName     string
	Category     string
	DocumentDate time.Time
}

// Metric is a single extracted measurement from a document.
type Metric struct {
	ID              string
	TenantID        TenantID
	StudentID       StudentID
	MetricType      string
	Value           float64
	MeasurementDate time.Time
}

// Insight is an AI-derived observation with a priority level.
type Insight struct {
	ID          string
	TenantID    TenantID
	StudentID   StudentID
	Priority    string // critical, high, medium, low
	Summary     string
	Active      bool
	GeneratedAt time.Time
}

// ProgressEntry tracks progress against a goal.
type ProgressEntry struct {
	ID        string
	TenantID  TenantID
	StudentID StudentID
	Goal      string
	Status    string
	CreatedAt time.Time
}

// SessionLog is an educator's log of a teaching session.
type SessionLog struct {
	ID              string
	TenantID        TenantID
	StudentID       StudentID
	LogDate         time.Time
	LogType         string
	DurationMinutes int
	EngagementLevel string
	ProgressNotes   string
}

// SleepRecord is one night's sleep data, keyed by calendar date.
type SleepRecord struct {
	ID              string
	TenantID        TenantID
	StudentID       StudentID
	SleepDate       time.Time
	TotalSleepHours float64
}

// IncidentRecord is one behavioral incident, keyed by calendar date.
type IncidentRecord struct {
	ID           string
	TenantID     TenantID
	StudentID    StudentID
	IncidentDate time.Time
	Description  string
	Severity     string
}
