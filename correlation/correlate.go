/*
Package correlation computes the sleep/behavior correlation summary.

PURPOSE:
  A pure, deterministic computation over two time series: nightly sleep
  records and behavioral incident records. For each incident it looks up the
  sleep recorded for the calendar day immediately preceding the incident
  (exact one-day offset, not "most recent sleep record") and classifies the
  incident as following poor sleep (< 7 hours) or adequate sleep.

INVARIANTS:
  1. No I/O, no clock access - same inputs always give the same Summary
  2. Order-independent: reordering either input slice never changes the result
  3. A percentage is only produced when at least one incident correlated;
     otherwise the result is nil ("insufficient data"), never 0% or NaN

EXCLUSION RULE:
  An incident whose prior calendar day has no sleep record contributes to
  neither bucket. It is excluded, not counted as adequate.

SEE ALSO:
  - report/context.go: Renders Summary into the report context
*/
package correlation

import (
	"fmt"
	"math"
	"time"

	"github.com/fpx/insight-engine/records"
)

// PoorSleepThresholdHours separates poor from adequate sleep.
// Strictly-less-than: exactly 7.0 hours counts as adequate.
const PoorSleepThresholdHours = 7.0

// InsufficientSentence is rendered when no incidents could be correlated.
const InsufficientSentence = "Insufficient data for sleep-behavior correlation."

// Summary is the derived sleep/behavior correlation. Recomputed every run,
// never stored.
type Summary struct {
	PoorSleepIncidents     int // Incidents following a < 7h night
	AdequateSleepIncidents int // Incidents following a >= 7h night
	TotalNights            int // PoorSleepIncidents + AdequateSleepIncidents
	PoorSleepPercentage    int // round(poor / total * 100)
}

// Sentence renders the correlation line used in the report context.
func (s *Summary) Sentence() string {
	return fmt.Sprintf(
		"Sleep-Behavior Correlation: %d%% of incidents occurred after poor sleep (<7 hrs), n=%d nights with data.",
		s.PoorSleepPercentage, s.TotalNights)
}

// Correlate computes the sleep/behavior summary. Returns nil when zero
// incidents have a sleep record for the preceding calendar day.
func Correlate(sleep []records.SleepRecord, incidents []records.IncidentRecord) *Summary {
	if len(sleep) == 0 || len(incidents) == 0 {
		return nil
	}

	// Lookup from calendar date to hours slept. When the same date appears
	// more than once, keep the lowest reading so the result does not depend
	// on input order.
	hoursByDate := make(map[string]float64, len(sleep))
	for _, s := range sleep {
		key := dateKey(s.SleepDate)
		if existing, ok := hoursByDate[key]; !ok || s.TotalSleepHours < existing {
			hoursByDate[key] = s.TotalSleepHours
		}
	}

	var poor, adequate int
	for _, inc := range incidents {
		prevDay := dateKey(inc.IncidentDate.AddDate(0, 0, -1))
		hours, ok := hoursByDate[prevDay]
		if !ok {
			continue // No sleep data for the prior night: excluded
		}
		if hours < PoorSleepThresholdHours {
			poor++
		} else {
			adequate++
		}
	}

	total := poor + adequate
	if total == 0 {
		return nil
	}

	return &Summary{
		PoorSleepIncidents:     poor,
		AdequateSleepIncidents: adequate,
		TotalNights:            total,
		PoorSleepPercentage:    int(math.Round(float64(poor) / float64(total) * 100)),
	}
}

// dateKey normalizes a timestamp to its calendar date.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
