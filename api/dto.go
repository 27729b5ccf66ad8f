/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  - snake_case JSON field names
  - Dates as RFC3339 strings
  - Credit amounts as whole-credit integers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/report"
)

// =============================================================================
// REPORT GENERATION
// =============================================================================

// GenerateReportRequest starts a pipeline run.
type GenerateReportRequest struct {
	TenantID  string `json:"tenant_id"`
	StudentID string `json:"student_id"`
	FocusArea string `json:"focus_area,omitempty"` // Defaults to comprehensive
}

// GenerateReportResponse mirrors the pipeline result.
type GenerateReportResponse struct {
	Success          bool   `json:"success"`
	ReportID         string `json:"report_id"`
	ReportContent    string `json:"report_content"`
	DocumentCount    int    `json:"document_count"`
	MetricsAnalyzed  int    `json:"metrics_analyzed"`
	InsightsIncluded int    `json:"insights_included"`
	GeneratedAt      string `json:"generated_at"`
}

// ReportDTO is a stored report with its provenance.
type ReportDTO struct {
	ID            string   `json:"id"`
	TenantID      string   `json:"tenant_id"`
	StudentID     string   `json:"student_id"`
	Content       string   `json:"content"`
	Format        string   `json:"format"`
	FocusArea     string   `json:"focus_area"`
	GeneratedBy   string   `json:"generated_by,omitempty"`
	DocumentIDs   []string `json:"document_ids"`
	MetricsCount  int      `json:"metrics_count"`
	InsightsCount int      `json:"insights_count"`
	ProgressCount int      `json:"progress_count"`
	GeneratedAt   string   `json:"generated_at"`
}

// =============================================================================
// CREDITS
// =============================================================================

// CreditBalanceResponse is a tenant's balance with its ledger history.
type CreditBalanceResponse struct {
	TenantID     string           `json:"tenant_id"`
	Balance      int64            `json:"balance"`
	Transactions []TransactionDTO `json:"transactions"`
}

// TransactionDTO represents a ledger transaction.
type TransactionDTO struct {
	ID         string            `json:"id"`
	ActionKind string            `json:"action_kind"`
	Delta      int64             `json:"delta"`
	Type       string            `json:"type"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// GrantCreditsRequest is an admin top-up.
type GrantCreditsRequest struct {
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	Scenario string `json:"scenario"`
}

// ErrorResponse is the standard error response. The credit fields are set
// only on quota denials.
type ErrorResponse struct {
	Error            string `json:"error"`
	Details          string `json:"details,omitempty"`
	CreditsRequired  *int64 `json:"credits_required,omitempty"`
	CreditsAvailable *int64 `json:"credits_available,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReportDTO(r report.GeneratedReport) ReportDTO {
	return ReportDTO{
		ID:            r.ID,
		TenantID:      string(r.TenantID),
		StudentID:     string(r.StudentID),
		Content:       r.Content,
		Format:        r.Format,
		FocusArea:     string(r.FocusArea),
		GeneratedBy:   r.GeneratedBy,
		DocumentIDs:   r.DocumentIDs,
		MetricsCount:  r.MetricsCount,
		InsightsCount: r.InsightsCount,
		ProgressCount: r.ProgressCount,
		GeneratedAt:   r.GeneratedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx credits.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         string(tx.ID),
		ActionKind: tx.ActionKind,
		Delta:      tx.Delta.Int(),
		Type:       string(tx.Type),
		Reason:     tx.Reason,
		Metadata:   tx.Metadata,
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []credits.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}
