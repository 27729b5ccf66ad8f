/*
handlers_test.go - HTTP-level tests for the report and credit endpoints

Tests run the real router over an in-memory SQLite store with a fake
generator standing in for the LLM provider. Every status-code branch of the
pipeline error mapping is exercised through the wire format.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpx/insight-engine/api"
	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/records"
	"github.com/fpx/insight-engine/report"
	"github.com/fpx/insight-engine/store/sqlite"
)

const (
	testTenant  = records.TenantID("tenant-hartley")
	testStudent = records.StudentID("student-jordan")
)

// fakeGenerator returns canned content without calling a provider.
type fakeGenerator struct {
	content string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

type testEnv struct {
	store  *sqlite.Store
	gate   *credits.Gate
	gen    *fakeGenerator
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gate := credits.NewGate(store)
	gen := &fakeGenerator{content: "# Comprehensive Developmental Report\n\nJordan is making steady progress."}
	pipeline := report.NewPipeline(store, gate, gen, store, report.DefaultConfig(), zerolog.Nop())
	h := api.NewHandler(store, pipeline, gate, zerolog.Nop())

	return &testEnv{store: store, gate: gate, gen: gen, router: api.NewRouter(h)}
}

// seedStudent creates the test tenant and student with enough records for a
// successful pipeline run, funded with the given balance.
func (e *testEnv) seedStudent(t *testing.T, balance int64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, e.store.SaveTenant(ctx, records.Tenant{ID: testTenant, Name: "The Hartley Family"}))
	require.NoError(t, e.store.SaveStudent(ctx, records.Student{
		ID: testStudent, TenantID: testTenant, Name: "Jordan Hartley",
		DateOfBirth: time.Date(2018, 5, 20, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, e.store.SaveDocument(ctx, records.Document{
		ID: "doc-1", TenantID: testTenant, StudentID: testStudent,
		FileName: "evaluation.pdf", Category: "evaluation", DocumentDate: now.AddDate(0, 0, -20),
	}))
	require.NoError(t, e.store.SaveMetric(ctx, records.Metric{
		ID: "metric-1", TenantID: testTenant, StudentID: testStudent,
		MetricType: "task_completion", Value: 70, MeasurementDate: now.AddDate(0, 0, -10),
	}))
	require.NoError(t, e.store.SaveInsight(ctx, records.Insight{
		ID: "insight-1", TenantID: testTenant, StudentID: testStudent, Priority: "high",
		Summary: "Transitions trigger escalations", Active: true, GeneratedAt: now.AddDate(0, 0, -5),
	}))

	if balance > 0 {
		require.NoError(t, e.gate.Grant(ctx, testTenant, credits.NewAmount(balance),
			"signup_grant", "test balance", "grant-test"))
	}
}

// do runs one request through the router and decodes the JSON body into out.
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-test")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func (e *testEnv) generateBody() api.GenerateReportRequest {
	return api.GenerateReportRequest{
		TenantID:  string(testTenant),
		StudentID: string(testStudent),
	}
}

// =============================================================================
// REPORT GENERATION
// =============================================================================

func TestGenerateReport_Success(t *testing.T) {
	// GIVEN: A funded tenant with a documented student
	e := newTestEnv(t)
	e.seedStudent(t, 1000)

	// WHEN: Generating a report
	var resp api.GenerateReportResponse
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), &resp)

	// THEN: The run succeeds and the response carries the pipeline result
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ReportID)
	assert.Contains(t, resp.ReportContent, "Jordan")
	assert.Equal(t, 1, resp.DocumentCount)
	assert.Equal(t, 1, resp.MetricsAnalyzed)
	assert.Equal(t, 1, resp.InsightsIncluded)
	assert.NotEmpty(t, resp.GeneratedAt)
	assert.Equal(t, 1, e.gen.calls)
}

func TestGenerateReport_StoresProvenance(t *testing.T) {
	// GIVEN: A successful run
	e := newTestEnv(t)
	e.seedStudent(t, 1000)

	var genResp api.GenerateReportResponse
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), &genResp)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Fetching the stored report
	var rep api.ReportDTO
	rec = e.do(t, http.MethodGet,
		fmt.Sprintf("/api/reports/%s?tenant_id=%s", genResp.ReportID, testTenant), nil, &rep)

	// THEN: Provenance is persisted, including the caller identity
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, genResp.ReportID, rep.ID)
	assert.Equal(t, string(testTenant), rep.TenantID)
	assert.Equal(t, "user-test", rep.GeneratedBy)
	assert.Equal(t, []string{"doc-1"}, rep.DocumentIDs)
	assert.Equal(t, 1, rep.MetricsCount)
	assert.Equal(t, "markdown", rep.Format)
}

func TestGenerateReport_QuotaExceeded(t *testing.T) {
	// GIVEN: A tenant whose balance is below the report cost
	e := newTestEnv(t)
	e.seedStudent(t, 100)

	// WHEN: Generating a report
	var errResp api.ErrorResponse
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), &errResp)

	// THEN: 402 with the balance details, and no generation attempt
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NotNil(t, errResp.CreditsRequired)
	require.NotNil(t, errResp.CreditsAvailable)
	assert.Equal(t, int64(250), *errResp.CreditsRequired)
	assert.Equal(t, int64(100), *errResp.CreditsAvailable)
	assert.Equal(t, 0, e.gen.calls)
}

func TestGenerateReport_NoDocuments_ChargeStands(t *testing.T) {
	// GIVEN: A funded student with no uploaded documents
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SaveTenant(ctx, records.Tenant{ID: testTenant, Name: "The Hartley Family"}))
	require.NoError(t, e.store.SaveStudent(ctx, records.Student{
		ID: testStudent, TenantID: testTenant, Name: "Jordan Hartley",
		DateOfBirth: time.Date(2018, 5, 20, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, e.gate.Grant(ctx, testTenant, credits.NewAmount(1000),
		"signup_grant", "test balance", "grant-fresh"))

	// WHEN: Generating a report
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), nil)

	// THEN: 422, and the charge is not refunded
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var bal api.CreditBalanceResponse
	rec = e.do(t, http.MethodGet, "/api/tenants/"+string(testTenant)+"/credits", nil, &bal)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(750), bal.Balance)
}

func TestGenerateReport_InvalidFocusArea(t *testing.T) {
	// GIVEN: A funded student
	e := newTestEnv(t)
	e.seedStudent(t, 1000)

	// WHEN: Requesting an unknown focus area
	body := e.generateBody()
	body.FocusArea = "astrology"
	rec := e.do(t, http.MethodPost, "/api/reports/generate", body, nil)

	// THEN: 400 before any charge
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var bal api.CreditBalanceResponse
	e.do(t, http.MethodGet, "/api/tenants/"+string(testTenant)+"/credits", nil, &bal)
	assert.Equal(t, int64(1000), bal.Balance)
}

func TestGenerateReport_UnknownTenant(t *testing.T) {
	// GIVEN: A funded ledger entry with no tenant record behind it
	e := newTestEnv(t)
	require.NoError(t, e.gate.Grant(context.Background(), "tenant-ghost",
		credits.NewAmount(1000), "signup_grant", "test balance", "grant-ghost"))

	// WHEN: Generating for the missing tenant
	rec := e.do(t, http.MethodPost, "/api/reports/generate", api.GenerateReportRequest{
		TenantID: "tenant-ghost", StudentID: "student-ghost",
	}, nil)

	// THEN: 404. The charge happens first and stands.
	require.Equal(t, http.StatusNotFound, rec.Code)

	var bal api.CreditBalanceResponse
	e.do(t, http.MethodGet, "/api/tenants/tenant-ghost/credits", nil, &bal)
	assert.Equal(t, int64(750), bal.Balance)
}

func TestGenerateReport_UnfundedTenantDeniedBeforeLookup(t *testing.T) {
	// GIVEN: An empty database
	e := newTestEnv(t)

	// WHEN: Generating for a tenant with no ledger history
	rec := e.do(t, http.MethodPost, "/api/reports/generate", api.GenerateReportRequest{
		TenantID: "tenant-ghost", StudentID: "student-ghost",
	}, nil)

	// THEN: The quota gate runs before any lookup, so this is 402 not 404
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestGenerateReport_MissingFields(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/reports/generate",
		api.GenerateReportRequest{TenantID: "t"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateReport_ProviderFailure(t *testing.T) {
	// GIVEN: A generator that fails upstream
	e := newTestEnv(t)
	e.seedStudent(t, 1000)
	e.gen.err = fmt.Errorf("provider unavailable")

	// WHEN: Generating a report
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), nil)

	// THEN: 502, and the charge still stands
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var bal api.CreditBalanceResponse
	e.do(t, http.MethodGet, "/api/tenants/"+string(testTenant)+"/credits", nil, &bal)
	assert.Equal(t, int64(750), bal.Balance)
}

// =============================================================================
// REPORT RETRIEVAL
// =============================================================================

func TestGetReport_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.seedStudent(t, 1000)

	rec := e.do(t, http.MethodGet, "/api/reports/missing?tenant_id="+string(testTenant), nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport_RequiresTenant(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/reports/some-id", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListStudentReports(t *testing.T) {
	// GIVEN: Two generated reports
	e := newTestEnv(t)
	e.seedStudent(t, 1000)
	for i := 0; i < 2; i++ {
		rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// WHEN: Listing the student's reports
	var reports []api.ReportDTO
	rec := e.do(t, http.MethodGet,
		fmt.Sprintf("/api/students/%s/reports?tenant_id=%s", testStudent, testTenant), nil, &reports)

	// THEN: Both are returned
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, reports, 2)
}

// =============================================================================
// CREDIT ENDPOINTS
// =============================================================================

func TestGetCredits_IncludesHistory(t *testing.T) {
	// GIVEN: A grant followed by a consumption
	e := newTestEnv(t)
	e.seedStudent(t, 1000)
	rec := e.do(t, http.MethodPost, "/api/reports/generate", e.generateBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Fetching the tenant's credits
	var bal api.CreditBalanceResponse
	rec = e.do(t, http.MethodGet, "/api/tenants/"+string(testTenant)+"/credits", nil, &bal)

	// THEN: Balance reflects both transactions, oldest first
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(750), bal.Balance)
	require.Len(t, bal.Transactions, 2)
	assert.Equal(t, int64(1000), bal.Transactions[0].Delta)
	assert.Equal(t, int64(-250), bal.Transactions[1].Delta)
	assert.Equal(t, "comprehensive_report", bal.Transactions[1].ActionKind)
}

func TestGrantCredits(t *testing.T) {
	// GIVEN: A tenant with no balance
	e := newTestEnv(t)
	require.NoError(t, e.store.SaveTenant(context.Background(),
		records.Tenant{ID: testTenant, Name: "The Hartley Family"}))

	// WHEN: Granting credits
	var bal api.CreditBalanceResponse
	rec := e.do(t, http.MethodPost, "/api/tenants/"+string(testTenant)+"/credits/grant",
		api.GrantCreditsRequest{Amount: 500, Reason: "topup", IdempotencyKey: "grant-1"}, &bal)

	// THEN: The new balance is returned
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(500), bal.Balance)
}

func TestGrantCredits_DuplicateKeyConflicts(t *testing.T) {
	// GIVEN: A grant already applied under a key
	e := newTestEnv(t)
	grant := api.GrantCreditsRequest{Amount: 500, Reason: "topup", IdempotencyKey: "grant-once"}
	rec := e.do(t, http.MethodPost, "/api/tenants/"+string(testTenant)+"/credits/grant", grant, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Replaying the same key
	rec = e.do(t, http.MethodPost, "/api/tenants/"+string(testTenant)+"/credits/grant", grant, nil)

	// THEN: 409, and the balance is unchanged
	require.Equal(t, http.StatusConflict, rec.Code)

	var bal api.CreditBalanceResponse
	e.do(t, http.MethodGet, "/api/tenants/"+string(testTenant)+"/credits", nil, &bal)
	assert.Equal(t, int64(500), bal.Balance)
}

func TestGrantCredits_RejectsNonPositive(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/tenants/"+string(testTenant)+"/credits/grant",
		api.GrantCreditsRequest{Amount: 0}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
