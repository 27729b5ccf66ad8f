/*
handlers.go - HTTP API handlers for the insight report pipeline

PURPOSE:
  Exposes the report pipeline and credit ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reports:
    POST   /api/reports/generate         Run the pipeline
    GET    /api/reports/{id}             Fetch a stored report
    GET    /api/students/{id}/reports    List a student's reports

  Credits:
    GET    /api/tenants/{id}/credits        Balance + ledger history
    POST   /api/tenants/{id}/credits/grant  Admin grant

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Reset the database (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (pipeline, ledger)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Pipeline errors map to status codes by kind:
  - 400: Invalid focus area, malformed input
  - 402: Quota exceeded (with credits_required/credits_available)
  - 404: Tenant or student not found
  - 409: Duplicate idempotency key on grants
  - 422: No source documents for the student
  - 502: Generation provider failure
  - 500: Persistence and everything else

PROVENANCE:
  The caller identity is taken from the X-User-ID header and stored on the
  report. Header passthrough only; authentication lives upstream.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
	"github.com/fpx/insight-engine/report"
	"github.com/fpx/insight-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Pipeline *report.Pipeline
	Gate     *credits.Gate
	Ledger   *credits.Ledger
	Logger   zerolog.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over the shared store.
func NewHandler(store *sqlite.Store, pipeline *report.Pipeline, gate *credits.Gate, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Pipeline: pipeline,
		Gate:     gate,
		Ledger:   credits.NewLedger(store),
		Logger:   logger,
	}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GenerateReport runs the full pipeline for one student.
// POST /api/reports/generate
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TenantID == "" || req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and student_id are required", nil)
		return
	}

	result, err := h.Pipeline.Run(r.Context(), report.Request{
		TenantID:    records.TenantID(req.TenantID),
		StudentID:   records.StudentID(req.StudentID),
		FocusArea:   req.FocusArea,
		RequestedBy: r.Header.Get("X-User-ID"),
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateReportResponse{
		Success:          true,
		ReportID:         result.ReportID,
		ReportContent:    result.Content,
		DocumentCount:    result.DocumentCount,
		MetricsAnalyzed:  result.MetricsAnalyzed,
		InsightsIncluded: result.InsightsIncluded,
		GeneratedAt:      result.GeneratedAt.Format(time.RFC3339),
	})
}

// GetReport returns a stored report.
// GET /api/reports/{id}?tenant_id=...
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tenant := records.TenantID(r.URL.Query().Get("tenant_id"))
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant_id query parameter is required", nil)
		return
	}

	rep, err := h.Store.GetReport(r.Context(), tenant, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get report", err)
		return
	}
	if rep == nil {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(*rep))
}

// ListStudentReports returns a student's reports, most recent first.
// GET /api/students/{id}/reports?tenant_id=...
func (h *Handler) ListStudentReports(w http.ResponseWriter, r *http.Request) {
	student := records.StudentID(chi.URLParam(r, "id"))
	tenant := records.TenantID(r.URL.Query().Get("tenant_id"))
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant_id query parameter is required", nil)
		return
	}

	reports, err := h.Store.ListReports(r.Context(), tenant, student)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}

	dtos := make([]ReportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = toReportDTO(rep)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CREDIT HANDLERS
// =============================================================================

// GetCredits returns a tenant's balance with ledger history.
// GET /api/tenants/{id}/credits
func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	tenant := records.TenantID(chi.URLParam(r, "id"))
	ctx := r.Context()

	balance, err := h.Ledger.Balance(ctx, tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	history, err := h.Ledger.History(ctx, tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, CreditBalanceResponse{
		TenantID:     string(tenant),
		Balance:      balance.Int(),
		Transactions: toTransactionDTOs(history),
	})
}

// GrantCredits writes an admin grant.
// POST /api/tenants/{id}/credits/grant
func (h *Handler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	tenant := records.TenantID(chi.URLParam(r, "id"))

	var req GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	err := h.Gate.Grant(r.Context(), tenant, credits.NewAmount(req.Amount),
		"admin_topup", req.Reason, req.IdempotencyKey)
	if errors.Is(err, credits.ErrDuplicateIdempotencyKey) {
		writeError(w, http.StatusConflict, "Grant already applied", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to grant credits", err)
		return
	}

	balance, err := h.Ledger.Balance(r.Context(), tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, CreditBalanceResponse{
		TenantID: string(tenant),
		Balance:  balance.Int(),
	})
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// writePipelineError maps pipeline error kinds to HTTP statuses.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	var quotaErr *report.QuotaExceededError
	if errors.As(err, &quotaErr) {
		required := quotaErr.Required.Int()
		available := quotaErr.Available.Int()
		writeJSON(w, http.StatusPaymentRequired, ErrorResponse{
			Error:            quotaErr.Reason,
			CreditsRequired:  &required,
			CreditsAvailable: &available,
		})
		return
	}

	switch {
	case errors.Is(err, report.ErrInvalidFocusArea):
		writeError(w, http.StatusBadRequest, "Invalid focus area", err)
	case errors.Is(err, report.ErrTenantNotFound), errors.Is(err, report.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, report.ErrNoSourceDocuments):
		writeError(w, http.StatusUnprocessableEntity, "No documents found for this student", nil)
	case errors.Is(err, report.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "Report generation failed", err)
	default:
		h.Logger.Error().Err(err).Msg("pipeline request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
