/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a tenant, a student,
	record-domain rows, and a credit balance that demonstrate specific
	pipeline behavior.

AVAILABLE SCENARIOS:

	correlated-family: Full record set with a 50% sleep/incident correlation
	no-documents:      Student with records but no uploaded documents
	low-balance:       Tenant whose balance cannot cover one report

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create tenant and student
 3. Seed record domains
 4. Grant the tenant's credit balance

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario": "correlated-family"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - store/sqlite: Save* seeding methods
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "correlated-family",
		Name:        "Correlated Family",
		Description: "Full record set where half the incidents follow poor sleep",
	},
	{
		ID:          "no-documents",
		Name:        "No Documents",
		Description: "Student with metrics and logs but no uploaded documents (422 path)",
	},
	{
		ID:          "low-balance",
		Name:        "Low Balance",
		Description: "Tenant with fewer credits than one report costs (402 path)",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.Scenario {
	case "correlated-family":
		err = h.loadCorrelatedFamilyScenario(ctx)
	case "no-documents":
		err = h.loadNoDocumentsScenario(ctx)
	case "low-balance":
		err = h.loadLowBalanceScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.Scenario), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.Scenario
	h.Logger.Info().Str("scenario", req.Scenario).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.Scenario})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadCorrelatedFamilyScenario seeds a student whose records exercise every
// pipeline stage, including a 50% sleep/incident correlation.
func (h *Handler) loadCorrelatedFamilyScenario(ctx context.Context) error {
	const (
		tenant  = records.TenantID("family-chen")
		student = records.StudentID("student-mei")
	)
	now := time.Now().UTC()
	day := func(offset int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}

	if err := h.Store.SaveTenant(ctx, records.Tenant{ID: tenant, Name: "The Chen Family"}); err != nil {
		return err
	}
	if err := h.Store.SaveStudent(ctx, records.Student{
		ID: student, TenantID: tenant, Name: "Mei Chen",
		DateOfBirth: time.Date(2019, 2, 14, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		return err
	}

	documents := []records.Document{
		{ID: "doc-speech-eval", TenantID: tenant, StudentID: student,
			FileName: "speech-evaluation.pdf", Category: "evaluation", DocumentDate: day(-45)},
		{ID: "doc-iep", TenantID: tenant, StudentID: student,
			FileName: "iep-current.pdf", Category: "iep", DocumentDate: day(-30)},
		{ID: "doc-ot-notes", TenantID: tenant, StudentID: student,
			FileName: "ot-session-notes.pdf", Category: "therapy_notes", DocumentDate: day(-14)},
	}
	for _, d := range documents {
		if err := h.Store.SaveDocument(ctx, d); err != nil {
			return err
		}
	}

	metrics := []records.Metric{
		{ID: "metric-1", TenantID: tenant, StudentID: student,
			MetricType: "task_completion", Value: 62, MeasurementDate: day(-40)},
		{ID: "metric-2", TenantID: tenant, StudentID: student,
			MetricType: "task_completion", Value: 74, MeasurementDate: day(-12)},
		{ID: "metric-3", TenantID: tenant, StudentID: student,
			MetricType: "vocalization_rate", Value: 18, MeasurementDate: day(-20)},
	}
	for _, m := range metrics {
		if err := h.Store.SaveMetric(ctx, m); err != nil {
			return err
		}
	}

	insights := []records.Insight{
		{ID: "insight-1", TenantID: tenant, StudentID: student, Priority: "high",
			Summary: "Transitions between activities trigger most escalations", Active: true, GeneratedAt: day(-9)},
		{ID: "insight-2", TenantID: tenant, StudentID: student, Priority: "medium",
			Summary: "Visual schedules improve task initiation", Active: true, GeneratedAt: day(-6)},
		{ID: "insight-old", TenantID: tenant, StudentID: student, Priority: "low",
			Summary: "Earlier observation, since superseded", Active: false, GeneratedAt: day(-30)},
	}
	for _, in := range insights {
		if err := h.Store.SaveInsight(ctx, in); err != nil {
			return err
		}
	}

	if err := h.Store.SaveProgress(ctx, records.ProgressEntry{
		ID: "prog-1", TenantID: tenant, StudentID: student,
		Goal: "Two-word requests", Status: "improving", CreatedAt: day(-15),
	}); err != nil {
		return err
	}

	if err := h.Store.SaveSessionLog(ctx, records.SessionLog{
		ID: "log-1", TenantID: tenant, StudentID: student, LogDate: day(-2),
		LogType: "session_note", DurationMinutes: 45, EngagementLevel: "high",
		ProgressNotes: "Completed matching task independently, minimal prompting.",
	}); err != nil {
		return err
	}

	// Sleep/incident series: four nights, incidents the morning after each.
	// Two poor nights, two adequate - correlates to 50%.
	sleepHours := []float64{5.0, 8.5, 6.0, 9.0}
	for i, hours := range sleepHours {
		if err := h.Store.SaveSleepRecord(ctx, records.SleepRecord{
			ID: fmt.Sprintf("sleep-%d", i+1), TenantID: tenant, StudentID: student,
			SleepDate: day(-8 + i), TotalSleepHours: hours,
		}); err != nil {
			return err
		}
		if err := h.Store.SaveIncident(ctx, records.IncidentRecord{
			ID: fmt.Sprintf("incident-%d", i+1), TenantID: tenant, StudentID: student,
			IncidentDate: day(-7 + i), Description: "Elopement attempt during transition",
			Severity: "moderate",
		}); err != nil {
			return err
		}
	}

	return h.Gate.Grant(ctx, tenant, credits.NewAmount(1000),
		"signup_grant", "demo scenario balance", "scenario-correlated-family")
}

// loadNoDocumentsScenario seeds a student with records but no documents, so
// report generation fails after the credit charge.
func (h *Handler) loadNoDocumentsScenario(ctx context.Context) error {
	const (
		tenant  = records.TenantID("family-novak")
		student = records.StudentID("student-lena")
	)
	now := time.Now().UTC()

	if err := h.Store.SaveTenant(ctx, records.Tenant{ID: tenant, Name: "The Novak Family"}); err != nil {
		return err
	}
	if err := h.Store.SaveStudent(ctx, records.Student{
		ID: student, TenantID: tenant, Name: "Lena Novak",
		DateOfBirth: time.Date(2016, 11, 3, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		return err
	}
	if err := h.Store.SaveMetric(ctx, records.Metric{
		ID: "metric-1", TenantID: tenant, StudentID: student,
		MetricType: "task_completion", Value: 55, MeasurementDate: now.AddDate(0, 0, -5),
	}); err != nil {
		return err
	}

	return h.Gate.Grant(ctx, tenant, credits.NewAmount(1000),
		"signup_grant", "demo scenario balance", "scenario-no-documents")
}

// loadLowBalanceScenario seeds a documented student under a tenant that
// cannot afford a single report.
func (h *Handler) loadLowBalanceScenario(ctx context.Context) error {
	const (
		tenant  = records.TenantID("family-ruiz")
		student = records.StudentID("student-diego")
	)
	now := time.Now().UTC()

	if err := h.Store.SaveTenant(ctx, records.Tenant{ID: tenant, Name: "The Ruiz Family"}); err != nil {
		return err
	}
	if err := h.Store.SaveStudent(ctx, records.Student{
		ID: student, TenantID: tenant, Name: "Diego Ruiz",
		DateOfBirth: time.Date(2018, 7, 22, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		return err
	}
	if err := h.Store.SaveDocument(ctx, records.Document{
		ID: "doc-eval", TenantID: tenant, StudentID: student,
		FileName: "initial-evaluation.pdf", Category: "evaluation",
		DocumentDate: now.AddDate(0, 0, -10),
	}); err != nil {
		return err
	}

	return h.Gate.Grant(ctx, tenant, credits.NewAmount(100),
		"signup_grant", "demo scenario balance", "scenario-low-balance")
}
