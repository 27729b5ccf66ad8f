/*
scenarios_test.go - Tests for demo scenario loading
*/
package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpx/insight-engine/api"
)

func TestListScenarios(t *testing.T) {
	e := newTestEnv(t)

	var scenarios []api.ScenarioDTO
	rec := e.do(t, http.MethodGet, "/api/scenarios/", nil, &scenarios)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, scenarios, 3)
	ids := []string{scenarios[0].ID, scenarios[1].ID, scenarios[2].ID}
	assert.Contains(t, ids, "correlated-family")
	assert.Contains(t, ids, "no-documents")
	assert.Contains(t, ids, "low-balance")
}

func TestLoadScenario_Unknown(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/scenarios/load",
		api.LoadScenarioRequest{Scenario: "does-not-exist"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadScenario_CorrelatedFamily(t *testing.T) {
	// GIVEN: The fully-seeded demo scenario
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load",
		api.LoadScenarioRequest{Scenario: "correlated-family"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The current scenario reflects the load
	var current api.ScenarioDTO
	rec = e.do(t, http.MethodGet, "/api/scenarios/current", nil, &current)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "correlated-family", current.ID)

	// AND: A report generates successfully against the seeded data
	var resp api.GenerateReportResponse
	rec = e.do(t, http.MethodPost, "/api/reports/generate", api.GenerateReportRequest{
		TenantID: "family-chen", StudentID: "student-mei",
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.DocumentCount)
}

func TestLoadScenario_NoDocuments(t *testing.T) {
	// GIVEN: The no-documents scenario
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load",
		api.LoadScenarioRequest{Scenario: "no-documents"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Generating a report
	rec = e.do(t, http.MethodPost, "/api/reports/generate", api.GenerateReportRequest{
		TenantID: "family-novak", StudentID: "student-lena",
	}, nil)

	// THEN: 422, the seeded balance is charged anyway
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var bal api.CreditBalanceResponse
	e.do(t, http.MethodGet, "/api/tenants/family-novak/credits", nil, &bal)
	assert.Equal(t, int64(750), bal.Balance)
}

func TestLoadScenario_LowBalance(t *testing.T) {
	// GIVEN: The low-balance scenario
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load",
		api.LoadScenarioRequest{Scenario: "low-balance"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Generating a report
	var errResp api.ErrorResponse
	rec = e.do(t, http.MethodPost, "/api/reports/generate", api.GenerateReportRequest{
		TenantID: "family-ruiz", StudentID: "student-diego",
	}, &errResp)

	// THEN: 402 with the seeded balance
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NotNil(t, errResp.CreditsAvailable)
	assert.Equal(t, int64(100), *errResp.CreditsAvailable)
}

func TestResetDatabase(t *testing.T) {
	// GIVEN: A loaded scenario
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/scenarios/load",
		api.LoadScenarioRequest{Scenario: "correlated-family"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Resetting
	rec = e.do(t, http.MethodPost, "/api/scenarios/reset", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: The seeded ledger is gone
	var bal api.CreditBalanceResponse
	rec = e.do(t, http.MethodGet, "/api/tenants/family-chen/credits", nil, &bal)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), bal.Balance)
	assert.Empty(t, bal.Transactions)
}
