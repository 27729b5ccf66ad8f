package correlation_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpx/insight-engine/correlation"
	"github.com/fpx/insight-engine/records"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func night(date string, hours float64) records.SleepRecord {
	t, _ := time.Parse("2006-01-02", date)
	return records.SleepRecord{SleepDate: t, TotalSleepHours: hours}
}

func incident(date string) records.IncidentRecord {
	t, _ := time.Parse("2006-01-02", date)
	return records.IncidentRecord{IncidentDate: t}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestCorrelate_MixedSleepQuality(t *testing.T) {
	// GIVEN: 5 poor nights (5.5h) and 5 adequate nights (8h)
	// WHEN: 2 incidents follow poor nights and 2 follow adequate nights
	// THEN: 50% poor-sleep-linked over 4 correlated nights

	sleep := []records.SleepRecord{
		night("2025-03-01", 5.5),
		night("2025-03-03", 5.5),
		night("2025-03-05", 5.5),
		night("2025-03-07", 5.5),
		night("2025-03-09", 5.5),
		night("2025-03-02", 8),
		night("2025-03-04", 8),
		night("2025-03-06", 8),
		night("2025-03-08", 8),
		night("2025-03-10", 8),
	}
	incidents := []records.IncidentRecord{
		incident("2025-03-02"), // after poor night 03-01
		incident("2025-03-04"), // after poor night 03-03
		incident("2025-03-05"), // after adequate night 03-04
		incident("2025-03-07"), // after adequate night 03-06
	}

	summary := correlation.Correlate(sleep, incidents)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.PoorSleepIncidents)
	assert.Equal(t, 2, summary.AdequateSleepIncidents)
	assert.Equal(t, 4, summary.TotalNights)
	assert.Equal(t, 50, summary.PoorSleepPercentage)
}

func TestCorrelate_ExactThresholdIsAdequate(t *testing.T) {
	// GIVEN: A night at exactly 7.0 hours
	// THEN: The following incident counts as adequate sleep

	sleep := []records.SleepRecord{night("2025-03-01", 7.0)}
	incidents := []records.IncidentRecord{incident("2025-03-02")}

	summary := correlation.Correlate(sleep, incidents)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.PoorSleepIncidents)
	assert.Equal(t, 1, summary.AdequateSleepIncidents)
	assert.Equal(t, 0, summary.PoorSleepPercentage)
}

func TestCorrelate_ExactOneDayOffset(t *testing.T) {
	// GIVEN: Sleep recorded two days before an incident, none the prior day
	// THEN: The incident is excluded - the lookup is an exact one-day offset,
	//       not "most recent sleep record"

	sleep := []records.SleepRecord{night("2025-03-01", 4)}
	incidents := []records.IncidentRecord{incident("2025-03-03")}

	assert.Nil(t, correlation.Correlate(sleep, incidents))
}

// =============================================================================
// INSUFFICIENT DATA
// =============================================================================

func TestCorrelate_NoMatchingNights_ReturnsNil(t *testing.T) {
	sleep := []records.SleepRecord{night("2025-01-01", 5)}
	incidents := []records.IncidentRecord{incident("2025-02-15"), incident("2025-02-20")}

	assert.Nil(t, correlation.Correlate(sleep, incidents))
}

func TestCorrelate_EmptyInputs_ReturnNil(t *testing.T) {
	assert.Nil(t, correlation.Correlate(nil, nil))
	assert.Nil(t, correlation.Correlate([]records.SleepRecord{night("2025-03-01", 5)}, nil))
	assert.Nil(t, correlation.Correlate(nil, []records.IncidentRecord{incident("2025-03-02")}))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCorrelate_OrderIndependent(t *testing.T) {
	// GIVEN: A dataset with duplicates, gaps, and both buckets populated
	// WHEN: Both inputs are shuffled repeatedly
	// THEN: The summary never changes

	sleep := []records.SleepRecord{
		night("2025-03-01", 5.5),
		night("2025-03-01", 8), // duplicate date, conflicting reading
		night("2025-03-02", 6.9),
		night("2025-03-03", 7),
		night("2025-03-05", 9),
	}
	incidents := []records.IncidentRecord{
		incident("2025-03-02"),
		incident("2025-03-03"),
		incident("2025-03-04"),
		incident("2025-03-05"), // no sleep record for 03-04: excluded
		incident("2025-03-06"),
	}

	want := correlation.Correlate(sleep, incidents)
	require.NotNil(t, want)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(sleep), func(a, b int) { sleep[a], sleep[b] = sleep[b], sleep[a] })
		rng.Shuffle(len(incidents), func(a, b int) { incidents[a], incidents[b] = incidents[b], incidents[a] })

		got := correlation.Correlate(sleep, incidents)
		require.NotNil(t, got)
		assert.Equal(t, *want, *got)
	}
}

func TestCorrelate_CountsAndBoundsHold(t *testing.T) {
	// Property: poor + adequate == total, 0 <= percentage <= 100

	rng := rand.New(rand.NewSource(7))
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 100; trial++ {
		var sleep []records.SleepRecord
		var incidents []records.IncidentRecord
		for d := 0; d < 30; d++ {
			if rng.Intn(3) > 0 {
				sleep = append(sleep, records.SleepRecord{
					SleepDate:       base.AddDate(0, 0, d),
					TotalSleepHours: 4 + rng.Float64()*6,
				})
			}
			if rng.Intn(4) == 0 {
				incidents = append(incidents, records.IncidentRecord{
					IncidentDate: base.AddDate(0, 0, d),
				})
			}
		}

		summary := correlation.Correlate(sleep, incidents)
		if summary == nil {
			continue
		}
		assert.Equal(t, summary.TotalNights, summary.PoorSleepIncidents+summary.AdequateSleepIncidents)
		assert.GreaterOrEqual(t, summary.PoorSleepPercentage, 0)
		assert.LessOrEqual(t, summary.PoorSleepPercentage, 100)
	}
}

func TestSummary_Sentence(t *testing.T) {
	s := &correlation.Summary{PoorSleepIncidents: 3, AdequateSleepIncidents: 1, TotalNights: 4, PoorSleepPercentage: 75}
	assert.Equal(t,
		"Sleep-Behavior Correlation: 75% of incidents occurred after poor sleep (<7 hrs), n=4 nights with data.",
		s.Sentence())
}
