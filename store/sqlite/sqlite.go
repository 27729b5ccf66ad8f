/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (records.Store, credits.TxStore,
  report.Store) using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  records.Store:  Read access to the seven record domains
  credits.TxStore: Append-only credit ledger with transactional closure
  report.Store:   Generated report persistence

APPEND-ONLY ENFORCEMENT:
  The credit ledger enforces append-only semantics:
  - No UPDATE statements on credit_transactions
  - No DELETE statements on credit_transactions
  - Corrections via adjustment transactions only

KEY TABLES:
  credit_transactions: Immutable ledger of all balance changes
  document_reports:    Generated reports with provenance
  documents, document_metrics, ai_insights, progress_tracking,
  educator_logs, sleep_records, incident_logs: Record domains

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The mutex also serializes WithTx,
  which is what makes the gate's check-then-append atomic on SQLite's
  single-writer model.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/insight.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - records/store.go: Read interface definitions
  - credits/store.go: Ledger interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
	"github.com/fpx/insight-engine/report"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenants (family accounts)
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Students (report subjects)
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		date_of_birth TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_tenant
		ON students(tenant_id);

	-- Uploaded assessment documents
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		category TEXT NOT NULL,
		document_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_student
		ON documents(tenant_id, student_id, document_date DESC);

	-- Extracted measurements
	CREATE TABLE IF NOT EXISTS document_metrics (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		measurement_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_student_date
		ON document_metrics(tenant_id, student_id, measurement_date);

	-- AI-derived insights
	CREATE TABLE IF NOT EXISTS ai_insights (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		priority TEXT NOT NULL,
		summary TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		generated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_insights_student_active
		ON ai_insights(tenant_id, student_id, active, generated_at);

	-- Goal progress entries
	CREATE TABLE IF NOT EXISTS progress_tracking (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		goal TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_progress_student_date
		ON progress_tracking(tenant_id, student_id, created_at);

	-- Educator session logs
	CREATE TABLE IF NOT EXISTS educator_logs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		log_type TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		engagement_level TEXT,
		progress_notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_educator_logs_student_date
		ON educator_logs(tenant_id, student_id, log_date DESC);

	-- Nightly sleep records
	CREATE TABLE IF NOT EXISTS sleep_records (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		sleep_date TEXT NOT NULL,
		total_sleep_hours REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sleep_student_date
		ON sleep_records(tenant_id, student_id, sleep_date);

	-- Behavioral incident records
	CREATE TABLE IF NOT EXISTS incident_logs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		incident_date TEXT NOT NULL,
		description TEXT,
		severity TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_student_date
		ON incident_logs(tenant_id, student_id, incident_date);

	-- Credit ledger (append-only)
	CREATE TABLE IF NOT EXISTS credit_transactions (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		action_kind TEXT NOT NULL,
		delta TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Balance computation (hot path)
	CREATE INDEX IF NOT EXISTS idx_credit_tx_tenant
		ON credit_transactions(tenant_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_credit_tx_idempotency
		ON credit_transactions(idempotency_key) WHERE idempotency_key IS NOT NULL;

	-- Generated reports with provenance
	CREATE TABLE IF NOT EXISTS document_reports (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		content TEXT NOT NULL,
		format TEXT NOT NULL,
		focus_area TEXT NOT NULL,
		generated_by TEXT,
		document_ids_json TEXT NOT NULL,
		metrics_count INTEGER NOT NULL DEFAULT 0,
		insights_count INTEGER NOT NULL DEFAULT 0,
		progress_count INTEGER NOT NULL DEFAULT 0,
		generated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_student
		ON document_reports(tenant_id, student_id, generated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (records.Store interface)
// =============================================================================

// GetTenant returns the tenant, or nil when it does not exist.
func (s *Store) GetTenant(ctx context.Context, id records.TenantID) (*records.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t records.Tenant
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM tenants WHERE id = ?", id,
	).Scan(&t.ID, &t.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetStudent returns the student scoped to the tenant, or nil when absent.
func (s *Store) GetStudent(ctx context.Context, tenant records.TenantID, id records.StudentID) (*records.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st records.Student
	var dob sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, tenant_id, name, date_of_birth FROM students WHERE id = ? AND tenant_id = ?",
		id, tenant,
	).Scan(&st.ID, &st.TenantID, &st.Name, &dob)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dob.Valid && dob.String != "" {
		st.DateOfBirth, _ = time.Parse(time.RFC3339, dob.String)
	}
	return &st, nil
}

// ListDocuments returns all of a student's documents, most recent first.
// Unbounded: the documents define the assessment's total scope.
func (s *Store) ListDocuments(ctx context.Context, tenant records.TenantID, student records.StudentID) ([]records.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, file_name, category, document_date
		FROM documents
		WHERE tenant_id = ? AND student_id = ?
		ORDER BY document_date DESC
	`, tenant, student)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []records.Document
	for rows.Next() {
		var d records.Document
		var date string
		if err := rows.Scan(&d.ID, &d.TenantID, &d.StudentID, &d.FileName, &d.Category, &date); err != nil {
			return nil, err
		}
		d.DocumentDate, _ = time.Parse(time.RFC3339, date)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) ListMetrics(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, metric_type, value, measurement_date
		FROM document_metrics
		WHERE tenant_id = ? AND student_id = ? AND measurement_date >= ?
		ORDER BY measurement_date DESC
	`, tenant, student, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []records.Metric
	for rows.Next() {
		var m records.Metric
		var date string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.StudentID, &m.MetricType, &m.Value, &date); err != nil {
			return nil, err
		}
		m.MeasurementDate, _ = time.Parse(time.RFC3339, date)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// ListInsights returns active insights only. Deactivated insights are
// superseded observations and never feed a report.
func (s *Store) ListInsights(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, priority, summary, active, generated_at
		FROM ai_insights
		WHERE tenant_id = ? AND student_id = ? AND active = TRUE AND generated_at >= ?
		ORDER BY generated_at DESC
	`, tenant, student, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []records.Insight
	for rows.Next() {
		var in records.Insight
		var date string
		if err := rows.Scan(&in.ID, &in.TenantID, &in.StudentID, &in.Priority, &in.Summary, &in.Active, &date); err != nil {
			return nil, err
		}
		in.GeneratedAt, _ = time.Parse(time.RFC3339, date)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

func (s *Store) ListProgress(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.ProgressEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, goal, status, created_at
		FROM progress_tracking
		WHERE tenant_id = ? AND student_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, tenant, student, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []records.ProgressEntry
	for rows.Next() {
		var p records.ProgressEntry
		var date string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.StudentID, &p.Goal, &p.Status, &date); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, date)
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

// ListSessionLogs returns the most recent logs in the window, capped at
// records.MaxSessionLogs.
func (s *Store) ListSessionLogs(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.SessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, log_date, log_type, duration_minutes, engagement_level, progress_notes
		FROM educator_logs
		WHERE tenant_id = ? AND student_id = ? AND log_date >= ?
		ORDER BY log_date DESC
		LIMIT ?
	`, tenant, student, since.UTC().Format(time.RFC3339), records.MaxSessionLogs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []records.SessionLog
	for rows.Next() {
		var l records.SessionLog
		var date string
		var engagement, notes sql.NullString
		if err := rows.Scan(&l.ID, &l.TenantID, &l.StudentID, &date, &l.LogType,
			&l.DurationMinutes, &engagement, &notes); err != nil {
			return nil, err
		}
		l.LogDate, _ = time.Parse(time.RFC3339, date)
		l.EngagementLevel = engagement.String
		l.ProgressNotes = notes.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) ListSleepRecords(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.SleepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, sleep_date, total_sleep_hours
		FROM sleep_records
		WHERE tenant_id = ? AND student_id = ? AND sleep_date >= ?
		ORDER BY sleep_date DESC
	`, tenant, student, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sleeps []records.SleepRecord
	for rows.Next() {
		var r records.SleepRecord
		var date string
		if err := rows.Scan(&r.ID, &r.TenantID, &r.StudentID, &date, &r.TotalSleepHours); err != nil {
			return nil, err
		}
		r.SleepDate, _ = time.Parse(time.RFC3339, date)
		sleeps = append(sleeps, r)
	}
	return sleeps, rows.Err()
}

func (s *Store) ListIncidents(ctx context.Context, tenant records.TenantID, student records.StudentID, since time.Time) ([]records.IncidentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, incident_date, description, severity
		FROM incident_logs
		WHERE tenant_id = ? AND student_id = ? AND incident_date >= ?
		ORDER BY incident_date DESC
	`, tenant, student, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []records.IncidentRecord
	for rows.Next() {
		var r records.IncidentRecord
		var date string
		var description, severity sql.NullString
		if err := rows.Scan(&r.ID, &r.TenantID, &r.StudentID, &date, &description, &severity); err != nil {
			return nil, err
		}
		r.IncidentDate, _ = time.Parse(time.RFC3339, date)
		r.Description = description.String
		r.Severity = severity.String
		incidents = append(incidents, r)
	}
	return incidents, rows.Err()
}

// =============================================================================
// RECORD WRITES (seeding and upstream ingestion)
// =============================================================================

// SaveTenant upserts a tenant.
func (s *Store) SaveTenant(ctx context.Context, t records.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, t.ID, t.Name, time.Now().UTC().Format(time.RFC3339))
	return err
}

// SaveStudent upserts a student.
func (s *Store) SaveStudent(ctx context.Context, st records.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dob any
	if !st.DateOfBirth.IsZero() {
		dob = st.DateOfBirth.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, tenant_id, name, date_of_birth, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date_of_birth = excluded.date_of_birth
	`, st.ID, st.TenantID, st.Name, dob, time.Now().UTC().Format(time.RFC3339))
	return err
}

// SaveDocument inserts an uploaded document.
func (s *Store) SaveDocument(ctx context.Context, d records.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, student_id, file_name, category, document_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.TenantID, d.StudentID, d.FileName, d.Category,
		d.DocumentDate.UTC().Format(time.RFC3339))
	return err
}

// SaveMetric inserts an extracted measurement.
func (s *Store) SaveMetric(ctx context.Context, m records.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_metrics (id, tenant_id, student_id, metric_type, value, measurement_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.TenantID, m.StudentID, m.MetricType, m.Value,
		m.MeasurementDate.UTC().Format(time.RFC3339))
	return err
}

// SaveInsight inserts an AI-derived insight.
func (s *Store) SaveInsight(ctx context.Context, in records.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_insights (id, tenant_id, student_id, priority, summary, active, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.TenantID, in.StudentID, in.Priority, in.Summary, in.Active,
		in.GeneratedAt.UTC().Format(time.RFC3339))
	return err
}

// SaveProgress inserts a goal progress entry.
func (s *Store) SaveProgress(ctx context.Context, p records.ProgressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress_tracking (id, tenant_id, student_id, goal, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.TenantID, p.StudentID, p.Goal, p.Status,
		p.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// SaveSessionLog inserts an educator session log.
func (s *Store) SaveSessionLog(ctx context.Context, l records.SessionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO educator_logs (id, tenant_id, student_id, log_date, log_type, duration_minutes, engagement_level, progress_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.TenantID, l.StudentID, l.LogDate.UTC().Format(time.RFC3339),
		l.LogType, l.DurationMinutes, l.EngagementLevel, l.ProgressNotes)
	return err
}

// SaveSleepRecord inserts a nightly sleep record.
func (s *Store) SaveSleepRecord(ctx context.Context, r records.SleepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sleep_records (id, tenant_id, student_id, sleep_date, total_sleep_hours)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.TenantID, r.StudentID, r.SleepDate.UTC().Format(time.RFC3339), r.TotalSleepHours)
	return err
}

// SaveIncident inserts a behavioral incident record.
func (s *Store) SaveIncident(ctx context.Context, r records.IncidentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_logs (id, tenant_id, student_id, incident_date, description, severity)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.TenantID, r.StudentID, r.IncidentDate.UTC().Format(time.RFC3339),
		r.Description, r.Severity)
	return err
}

// ListTenants returns all tenants. Used by the accrual scheduler.
func (s *Store) ListTenants(ctx context.Context) ([]records.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tenants ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []records.Tenant
	for rows.Next() {
		var t records.Tenant
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// =============================================================================
// CREDIT LEDGER (credits.TxStore interface)
// =============================================================================

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx credits.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendTx(ctx, s.db, tx)
}

func (s *Store) appendTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, tx credits.Transaction) error {
	metadataJSON, _ := json.Marshal(tx.Metadata)

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO credit_transactions
		(id, tenant_id, action_kind, delta, tx_type, reason, idempotency_key, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID,
		tx.TenantID,
		tx.ActionKind,
		tx.Delta.String(),
		tx.Type,
		tx.Reason,
		nullString(tx.IdempotencyKey),
		string(metadataJSON),
		createdAt.Format(time.RFC3339Nano),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return credits.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// List returns all transactions for a tenant, oldest first.
func (s *Store) List(ctx context.Context, tenant records.TenantID) ([]credits.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listTx(ctx, tenant)
}

func (s *Store) listTx(ctx context.Context, tenant records.TenantID) ([]credits.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, action_kind, delta, tx_type, reason, idempotency_key, metadata_json, created_at
		FROM credit_transactions
		WHERE tenant_id = ?
		ORDER BY created_at ASC, id ASC
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []credits.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (credits.Transaction, error) {
	var (
		tx             credits.Transaction
		delta          string
		reason         sql.NullString
		idempotencyKey sql.NullString
		metadataJSON   sql.NullString
		createdAt      string
	)

	err := rows.Scan(&tx.ID, &tx.TenantID, &tx.ActionKind, &delta, &tx.Type,
		&reason, &idempotencyKey, &metadataJSON, &createdAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Delta, err = credits.ParseAmount(delta)
	if err != nil {
		return tx, fmt.Errorf("failed to parse delta %q: %w", delta, err)
	}
	tx.Reason = reason.String
	tx.IdempotencyKey = idempotencyKey.String
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	if metadataJSON.Valid && metadataJSON.String != "" {
		json.Unmarshal([]byte(metadataJSON.String), &tx.Metadata)
	}
	return tx, nil
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM credit_transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

// WithTx executes a function within a database transaction. The write mutex
// serializes concurrent gates so a balance read and its consumption append
// commit as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(store credits.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) Append(ctx context.Context, tx credits.Transaction) error {
	return ts.parent.appendTx(ctx, ts.tx, tx)
}

func (ts *txStore) List(ctx context.Context, tenant records.TenantID) ([]credits.Transaction, error) {
	rows, err := ts.tx.QueryContext(ctx, `
		SELECT id, tenant_id, action_kind, delta, tx_type, reason, idempotency_key, metadata_json, created_at
		FROM credit_transactions
		WHERE tenant_id = ?
		ORDER BY created_at ASC, id ASC
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []credits.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (ts *txStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	var count int
	err := ts.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM credit_transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// REPORT STORE (report.Store interface)
// =============================================================================

// SaveReport persists a generated report and returns the stored copy with
// ID and GeneratedAt populated.
func (s *Store) SaveReport(ctx context.Context, r report.GeneratedReport) (report.GeneratedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	docIDsJSON, _ := json.Marshal(r.DocumentIDs)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_reports
		(id, tenant_id, student_id, content, format, focus_area, generated_by,
		 document_ids_json, metrics_count, insights_count, progress_count, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.TenantID, r.StudentID, r.Content, r.Format, r.FocusArea,
		r.GeneratedBy, string(docIDsJSON), r.MetricsCount, r.InsightsCount,
		r.ProgressCount, r.GeneratedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return report.GeneratedReport{}, fmt.Errorf("failed to save report: %w", err)
	}
	return r, nil
}

// GetReport returns a report by ID scoped to the tenant, or nil when absent.
func (s *Store) GetReport(ctx context.Context, tenant records.TenantID, id string) (*report.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r report.GeneratedReport
	var docIDsJSON, generatedAt string
	var generatedBy sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, student_id, content, format, focus_area, generated_by,
		       document_ids_json, metrics_count, insights_count, progress_count, generated_at
		FROM document_reports
		WHERE id = ? AND tenant_id = ?
	`, id, tenant).Scan(
		&r.ID, &r.TenantID, &r.StudentID, &r.Content, &r.Format, &r.FocusArea,
		&generatedBy, &docIDsJSON, &r.MetricsCount, &r.InsightsCount,
		&r.ProgressCount, &generatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.GeneratedBy = generatedBy.String
	r.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
	json.Unmarshal([]byte(docIDsJSON), &r.DocumentIDs)
	return &r, nil
}

// ListReports returns a student's reports, most recent first.
func (s *Store) ListReports(ctx context.Context, tenant records.TenantID, student records.StudentID) ([]report.GeneratedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, student_id, content, format, focus_area, generated_by,
		       document_ids_json, metrics_count, insights_count, progress_count, generated_at
		FROM document_reports
		WHERE tenant_id = ? AND student_id = ?
		ORDER BY generated_at DESC
	`, tenant, student)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []report.GeneratedReport
	for rows.Next() {
		var r report.GeneratedReport
		var docIDsJSON, generatedAt string
		var generatedBy sql.NullString
		if err := rows.Scan(
			&r.ID, &r.TenantID, &r.StudentID, &r.Content, &r.Format, &r.FocusArea,
			&generatedBy, &docIDsJSON, &r.MetricsCount, &r.InsightsCount,
			&r.ProgressCount, &generatedAt,
		); err != nil {
			return nil, err
		}
		r.GeneratedBy = generatedBy.String
		r.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
		json.Unmarshal([]byte(docIDsJSON), &r.DocumentIDs)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"document_reports", "credit_transactions", "incident_logs",
		"sleep_records", "educator_logs", "progress_tracking", "ai_insights",
		"document_metrics", "documents", "students", "tenants",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
