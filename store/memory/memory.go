/*
memory.go - In-memory store implementations

PURPOSE:
  Map-backed implementations of the records, credits, and report stores.
  Used by tests and by the demo scenarios; the SQLite store is the
  production counterpart.

KEY CONCEPTS:
  - LedgerStore simulates transactional semantics with a snapshot taken
    under the lock: the closure runs against a view, and an error restores
    the snapshot. Good enough for single-process atomicity.
  - Listing methods return copies so callers cannot mutate shared state.
*/
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
	"github.com/fpx/insight-engine/report"
)

// =============================================================================
// RECORD STORE
// =============================================================================

type RecordStore struct {
	mu        sync.RWMutex
	tenants   map[records.TenantID]records.Tenant
	students  map[studentKey]records.Student
	documents map[studentKey][]records.Document
	metrics   map[studentKey][]records.Metric
	insights  map[studentKey][]records.Insight
	progress  map[studentKey][]records.ProgressEntry
	sessions  map[studentKey][]records.SessionLog
	sleep     map[studentKey][]records.SleepRecord
	incidents map[studentKey][]records.IncidentRecord
}

type studentKey struct {
	Tenant  records.TenantID
	Student records.StudentID
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		tenants:   make(map[records.TenantID]records.Tenant),
		students:  make(map[studentKey]records.Student),
		documents: make(map[studentKey][]records.Document),
		metrics:   make(map[studentKey][]records.Metric),
		insights:  make(map[studentKey][]records.Insight),
		progress:  make(map[studentKey][]records.ProgressEntry),
		sessions:  make(map[studentKey][]records.SessionLog),
		sleep:     make(map[studentKey][]records.SleepRecord),
		incidents: make(map[studentKey][]records.IncidentRecord),
	}
}

// ------ Seeding (tests and demo scenarios) ------

func (s *RecordStore) PutTenant(t records.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

func (s *RecordStore) PutStudent(st records.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[studentKey{st.TenantID, st.ID}] = st
}

func (s *RecordStore) AddDocument(d records.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{d.TenantID, d.StudentID}
	s.documents[k] = append(s.documents[k], d)
}

func (s *RecordStore) AddMetric(m records.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{m.TenantID, m.StudentID}
	s.metrics[k] = append(s.metrics[k], m)
}

func (s *RecordStore) AddInsight(i records.Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{i.TenantID, i.StudentID}
	s.insights[k] = append(s.insights[k], i)
}

func (s *RecordStore) AddProgress(p records.ProgressEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{p.TenantID, p.StudentID}
	s.progress[k] = append(s.progress[k], p)
}

func (s *RecordStore) AddSessionLog(l records.SessionLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{l.TenantID, l.StudentID}
	s.sessions[k] = append(s.sessions[k], l)
}

func (s *RecordStore) AddSleepRecord(r records.SleepRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{r.TenantID, r.StudentID}
	s.sleep[k] = append(s.sleep[k], r)
}

func (s *RecordStore) AddIncident(r records.IncidentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := studentKey{r.TenantID, r.StudentID}
	s.incidents[k] = append(s.incidents[k], r)
}

// ------ records.Store ------

func (s *RecordStore) GetTenant(_ context.Context, id records.TenantID) (*records.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *RecordStore) GetStudent(_ context.Context, tenant records.TenantID, id records.StudentID) (*records.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentKey{tenant, id}]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *RecordStore) ListDocuments(_ context.Context, tenant records.TenantID, student records.StudentID) ([]records.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := append([]records.Document(nil), s.documents[studentKey{tenant, student}]...)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].DocumentDate.After(docs[j].DocumentDate)
	})
	return docs, nil
}

func (s *RecordStore) ListMetrics(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.Metric
	for _, m := range s.metrics[studentKey{tenant, student}] {
		if !m.MeasurementDate.Before(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeasurementDate.After(out[j].MeasurementDate)
	})
	return out, nil
}

func (s *RecordStore) ListInsights(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.Insight
	for _, in := range s.insights[studentKey{tenant, student}] {
		if in.Active && !in.GeneratedAt.Before(since) {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func (s *RecordStore) ListProgress(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.ProgressEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.ProgressEntry
	for _, p := range s.progress[studentKey{tenant, student}] {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *RecordStore) ListSessionLogs(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.SessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.SessionLog
	for _, l := range s.sessions[studentKey{tenant, student}] {
		if !l.LogDate.Before(since) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LogDate.After(out[j].LogDate)
	})
	if len(out) > records.MaxSessionLogs {
		out = out[:records.MaxSessionLogs]
	}
	return out, nil
}

func (s *RecordStore) ListSleepRecords(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.SleepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.SleepRecord
	for _, r := range s.sleep[studentKey{tenant, student}] {
		if !r.SleepDate.Before(since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SleepDate.After(out[j].SleepDate)
	})
	return out, nil
}

func (s *RecordStore) ListIncidents(_ context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.IncidentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.IncidentRecord
	for _, r := range s.incidents[studentKey{tenant, student}] {
		if !r.IncidentDate.Before(since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IncidentDate.After(out[j].IncidentDate)
	})
	return out, nil
}

// =============================================================================
// LEDGER STORE
// =============================================================================

type LedgerStore struct {
	mu           sync.Mutex
	transactions map[records.TenantID][]credits.Transaction
	idempotency  map[string]bool
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		transactions: make(map[records.TenantID][]credits.Transaction),
		idempotency:  make(map[string]bool),
	}
}

func (s *LedgerStore) Append(_ context.Context, tx credits.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(tx)
}

func (s *LedgerStore) appendLocked(tx credits.Transaction) error {
	if tx.IdempotencyKey != "" && s.idempotency[tx.IdempotencyKey] {
		return credits.ErrDuplicateIdempotencyKey
	}
	s.transactions[tx.TenantID] = append(s.transactions[tx.TenantID], tx)
	if tx.IdempotencyKey != "" {
		s.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (s *LedgerStore) List(_ context.Context, tenant records.TenantID) ([]credits.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]credits.Transaction(nil), s.transactions[tenant]...), nil
}

func (s *LedgerStore) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idempotency[idempotencyKey], nil
}

// WithTx runs fn against a view of the store under the lock. The snapshot
// taken up front is restored if fn fails, simulating a rollback.
func (s *LedgerStore) WithTx(_ context.Context, fn func(credits.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	if err := fn(&ledgerView{parent: s}); err != nil {
		s.transactions = snapshot.transactions
		s.idempotency = snapshot.idempotency
		return err
	}
	return nil
}

type ledgerSnapshot struct {
	transactions map[records.TenantID][]credits.Transaction
	idempotency  map[string]bool
}

func (s *LedgerStore) snapshotLocked() ledgerSnapshot {
	txs := make(map[records.TenantID][]credits.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		txs[k] = append([]credits.Transaction(nil), v...)
	}
	idem := make(map[string]bool, len(s.idempotency))
	for k, v := range s.idempotency {
		idem[k] = v
	}
	return ledgerSnapshot{transactions: txs, idempotency: idem}
}

// ledgerView bypasses the parent's lock: WithTx already holds it.
type ledgerView struct {
	parent *LedgerStore
}

func (v *ledgerView) Append(_ context.Context, tx credits.Transaction) error {
	return v.parent.appendLocked(tx)
}

func (v *ledgerView) List(_ context.Context, tenant records.TenantID) ([]credits.Transaction, error) {
	return append([]credits.Transaction(nil), v.parent.transactions[tenant]...), nil
}

func (v *ledgerView) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	return v.parent.idempotency[idempotencyKey], nil
}

// =============================================================================
// REPORT STORE
// =============================================================================

type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]report.GeneratedReport
	order   []string // Insertion order for listing
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]report.GeneratedReport)}
}

func (s *ReportStore) SaveReport(_ context.Context, r report.GeneratedReport) (report.GeneratedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	if _, exists := s.reports[r.ID]; exists {
		return report.GeneratedReport{}, fmt.Errorf("report %s already exists", r.ID)
	}
	s.reports[r.ID] = r
	s.order = append(s.order, r.ID)
	return r, nil
}

func (s *ReportStore) GetReport(_ context.Context, tenant records.TenantID, id string) (*report.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok || r.TenantID != tenant {
		return nil, nil
	}
	return &r, nil
}

func (s *ReportStore) ListReports(_ context.Context, tenant records.TenantID, student records.StudentID) ([]report.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []report.GeneratedReport
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reports[s.order[i]]
		if r.TenantID == tenant && r.StudentID == student {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}
