/*
context.go - The report context: typed placeholder values

PURPOSE:
  One flat, immutable mapping from placeholder name to rendered summary
  text, built exactly once per run from the aggregated records and the
  correlation summary. The placeholder set is closed: a typed struct,
  validated at construction, so a missing field is a construction error
  rather than a silent blank in the rendered prompt.

EMPTY DOMAINS:
  Zero records in a non-document domain degrade to explicit "no data
  available" text. Only zero documents abort the run, upstream of here.

SEE ALSO:
  - templates.go: The placeholder names each template consumes
  - render.go: Substitution
*/
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fpx/insight-engine/correlation"
	"github.com/fpx/insight-engine/records"
)

// Context holds every placeholder a template may reference. Never mutated
// after construction.
type Context struct {
	StudentName          string
	StudentAge           int
	FamilyName           string
	DocumentCount        int
	DocumentTypes        string
	DateRange            string
	DocumentList         string
	MetricsSummary       string
	InsightsSummary      string
	ProgressRecords      int
	EducatorSummary      string
	SleepSummary         string
	SleepCorrelationText string
	IncidentCount        int
	ReportDate           string
}

// BuildContext aggregates fetched records into the report context.
// Requires documents to be non-empty and most-recent-first.
func BuildContext(
	student *records.Student,
	tenant *records.Tenant,
	documents []records.Document,
	metrics []records.Metric,
	insights []records.Insight,
	progress []records.ProgressEntry,
	sessionLogs []records.SessionLog,
	sleep []records.SleepRecord,
	incidents []records.IncidentRecord,
	summary *correlation.Summary,
	now time.Time,
) (Context, error) {
	ctx := Context{
		StudentName:          student.Name,
		StudentAge:           student.Age(now),
		FamilyName:           tenant.Name,
		DocumentCount:        len(documents),
		DocumentTypes:        distinctCategories(documents),
		DateRange:            dateRange(documents),
		DocumentList:         documentList(documents),
		MetricsSummary:       metricsSummary(metrics),
		InsightsSummary:      insightsSummary(insights),
		ProgressRecords:      len(progress),
		EducatorSummary:      educatorSummary(sessionLogs),
		SleepSummary:         sleepSummary(sleep),
		SleepCorrelationText: correlationText(summary),
		IncidentCount:        len(incidents),
		ReportDate:           now.Format("2006-01-02"),
	}
	if err := ctx.validate(); err != nil {
		return Context{}, err
	}
	return ctx, nil
}

func (c Context) validate() error {
	switch {
	case c.StudentName == "":
		return fmt.Errorf("report context: student name is required")
	case c.FamilyName == "":
		return fmt.Errorf("report context: family name is required")
	case c.DocumentCount == 0:
		return fmt.Errorf("report context: document count must be positive")
	case c.ReportDate == "":
		return fmt.Errorf("report context: report date is required")
	}
	return nil
}

// Map returns the placeholder-name to value mapping consumed by Render.
func (c Context) Map() map[string]string {
	return map[string]string{
		"studentName":          c.StudentName,
		"studentAge":           strconv.Itoa(c.StudentAge),
		"familyName":           c.FamilyName,
		"documentCount":        strconv.Itoa(c.DocumentCount),
		"documentTypes":        c.DocumentTypes,
		"dateRange":            c.DateRange,
		"documentList":         c.DocumentList,
		"metricsSummary":       c.MetricsSummary,
		"insightsSummary":      c.InsightsSummary,
		"progressRecords":      strconv.Itoa(c.ProgressRecords),
		"educatorSummary":      c.EducatorSummary,
		"sleepSummary":         c.SleepSummary,
		"sleepCorrelationText": c.SleepCorrelationText,
		"incidentCount":        strconv.Itoa(c.IncidentCount),
		"reportDate":           c.ReportDate,
	}
}

// =============================================================================
// SUMMARY TEXT BUILDERS
// =============================================================================

func documentList(documents []records.Document) string {
	lines := make([]string, len(documents))
	for i, d := range documents {
		lines[i] = fmt.Sprintf("- %s (%s, %s)", d.FileName, d.Category, d.DocumentDate.Format("2006-01-02"))
	}
	return strings.Join(lines, "\n")
}

func distinctCategories(documents []records.Document) string {
	seen := make(map[string]bool)
	var categories []string
	for _, d := range documents {
		if !seen[d.Category] {
			seen[d.Category] = true
			categories = append(categories, d.Category)
		}
	}
	return strings.Join(categories, ", ")
}

// dateRange spans oldest to newest document date. Documents arrive
// most-recent-first, so oldest is the final element.
func dateRange(documents []records.Document) string {
	if len(documents) == 0 {
		return ""
	}
	oldest := documents[len(documents)-1].DocumentDate
	newest := documents[0].DocumentDate
	return fmt.Sprintf("%s to %s", oldest.Format("2006-01-02"), newest.Format("2006-01-02"))
}

func metricsSummary(metrics []records.Metric) string {
	seen := make(map[string]bool)
	var types []string
	for _, m := range metrics {
		if !seen[m.MetricType] {
			seen[m.MetricType] = true
			types = append(types, m.MetricType)
		}
	}
	return fmt.Sprintf("Total Metrics: %d\nMetric Types: %s", len(metrics), strings.Join(types, ", "))
}

func insightsSummary(insights []records.Insight) string {
	counts := map[string]int{}
	for _, in := range insights {
		counts[in.Priority]++
	}
	return fmt.Sprintf("Total Insights: %d\nPriority Breakdown:\n- Critical: %d\n- High: %d\n- Medium: %d",
		len(insights), counts["critical"], counts["high"], counts["medium"])
}

func educatorSummary(logs []records.SessionLog) string {
	if len(logs) == 0 {
		return "No educator session logs available."
	}
	shown := logs
	if len(shown) > 10 {
		shown = shown[:10]
	}
	lines := make([]string, len(shown))
	for i, l := range shown {
		duration := "N/A"
		if l.DurationMinutes > 0 {
			duration = strconv.Itoa(l.DurationMinutes)
		}
		engagement := l.EngagementLevel
		if engagement == "" {
			engagement = "N/A"
		}
		notes := l.ProgressNotes
		if notes == "" {
			notes = "No notes"
		} else if len(notes) > 100 {
			notes = notes[:100]
		}
		lines[i] = fmt.Sprintf("- %s: %s - %s min, Engagement: %s, %s",
			l.LogDate.Format("2006-01-02"), l.LogType, duration, engagement, notes)
	}
	return fmt.Sprintf("Educator Session Logs (%d sessions):\n%s", len(logs), strings.Join(lines, "\n"))
}

func sleepSummary(sleep []records.SleepRecord) string {
	if len(sleep) == 0 {
		return "No sleep data available."
	}
	var total float64
	for _, s := range sleep {
		total += s.TotalSleepHours
	}
	return fmt.Sprintf("Sleep Records (%d nights):\nAverage: %.1f hours/night",
		len(sleep), total/float64(len(sleep)))
}

func correlationText(summary *correlation.Summary) string {
	if summary == nil {
		return correlation.InsufficientSentence
	}
	return summary.Sentence()
}
