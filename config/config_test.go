package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: No environment overrides
	// WHEN: Loading config
	cfg, err := Load()

	// THEN: Local-dev defaults apply
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "insight.db", cfg.DB.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, int64(250), cfg.Report.Cost)
	assert.Equal(t, 60, cfg.Report.LookbackDays)
	assert.Equal(t, 2*time.Minute, cfg.Report.GenerationTimeout)
	assert.Equal(t, int64(1000), cfg.Credits.MonthlyPlan)
	assert.True(t, cfg.Credits.AccrualEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	// GIVEN: Environment overrides
	t.Setenv("FPX_SERVER_ADDR", ":9090")
	t.Setenv("FPX_REPORT_COST", "500")
	t.Setenv("FPX_ACCRUAL_ENABLED", "false")
	t.Setenv("FPX_LLM_MODEL", "gpt-4o")

	// WHEN: Loading config
	cfg, err := Load()

	// THEN: The overrides win
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, int64(500), cfg.Report.Cost)
	assert.False(t, cfg.Credits.AccrualEnabled)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoad_RejectsNonPositiveCost(t *testing.T) {
	t.Setenv("FPX_REPORT_COST", "0")

	_, err := Load()

	require.Error(t, err)
}
