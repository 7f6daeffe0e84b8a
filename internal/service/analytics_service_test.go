package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dailykpi/internal/engine"
	"gorm.io/gorm"
)

func seedAnalyticsData(t *testing.T, gdb *gorm.DB) (uint, time.Time) {
	t.Helper()

	habits := NewHabitService(gdb)
	reading, err := habits.Create(HabitInput{Name: "Reading", TargetMinutes: 30, Quadrant: "Q2"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}

	records := NewDailyRecordService(gdb)
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local)

	days := []DailyRecordInput{
		{Date: start.AddDate(0, 0, -3), HabitRecords: []HabitRecordInput{{HabitID: reading.ID, Minutes: 10, Quality: 2}}},
		{Date: start, HabitRecords: []HabitRecordInput{{HabitID: reading.ID, Minutes: 30, Quality: 4}}},
		{Date: start.AddDate(0, 0, 1), HabitRecords: []HabitRecordInput{{HabitID: reading.ID, Minutes: 40, Quality: 5}}},
		{Date: start.AddDate(0, 0, 2), HabitRecords: []HabitRecordInput{{HabitID: reading.ID, Minutes: 50, Quality: 5}}},
		{Date: start.AddDate(0, 0, 3), Exception: "sick leave"},
	}
	for _, day := range days {
		day.Pillars = engine.PillarScores{Deliverables: 70, Skills: 70, Culture: 70}
		day.Tasks = []TaskInput{{Title: "Weekly review", Priority: "medium", Completed: true, EstimatedMinutes: 30}}
		if _, _, err := records.Save(day); err != nil {
			t.Fatalf("failed to save %s: %v", day.Date.Format("2006-01-02"), err)
		}
	}

	return reading.ID, start
}

func TestAnalyticsServiceSummarySkipsExceptionDays(t *testing.T) {
	gdb := setupServiceTestDB(t)
	habitID, start := seedAnalyticsData(t, gdb)
	svc := NewAnalyticsService(gdb)

	report, err := svc.Summary(start, start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if report.ExceptionDays != 1 {
		t.Fatalf("expected 1 exception day, got %d", report.ExceptionDays)
	}
	if report.Stats.CompletedDays != 3 || report.Stats.TotalDays != 4 {
		t.Fatalf("unexpected day counts: %+v", report.Stats)
	}
	if report.Stats.TotalHours != 2 {
		t.Fatalf("expected 2 hours, got %v", report.Stats.TotalHours)
	}
	if len(report.Stats.TopHabits) != 1 || report.Stats.TopHabits[0].HabitID != habitID {
		t.Fatalf("unexpected top habits: %+v", report.Stats.TopHabits)
	}
	if report.Stats.TopHabits[0].Name != "Reading" {
		t.Fatalf("expected habit name to be resolved, got %q", report.Stats.TopHabits[0].Name)
	}

	if _, err := svc.Summary(start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestAnalyticsServiceForecastAndCompare(t *testing.T) {
	gdb := setupServiceTestDB(t)
	_, start := seedAnalyticsData(t, gdb)
	svc := NewAnalyticsService(gdb)
	end := start.AddDate(0, 0, 3)

	forecast, err := svc.Forecast(start, end, engine.PeriodMonth)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	if forecast.BasedOnDays != 3 {
		t.Fatalf("expected forecast based on 3 days, got %d", forecast.BasedOnDays)
	}
	if forecast.Confidence <= 0 || forecast.Confidence > engine.ForecastMaxConfidence {
		t.Fatalf("unexpected confidence: %v", forecast.Confidence)
	}
	if forecast.PredictedKPI < engine.MinKPI || forecast.PredictedKPI > engine.MaxKPI {
		t.Fatalf("predicted KPI out of range: %v", forecast.PredictedKPI)
	}

	if _, err := svc.Forecast(start, end, engine.ForecastPeriod("decade")); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error for unknown period, got %v", err)
	}

	comparison, err := svc.Compare(start, end)
	if err != nil {
		t.Fatalf("Compare returned error: %v", err)
	}
	if comparison.Current.RecordedDays != 3 || comparison.Previous.RecordedDays != 1 {
		t.Fatalf("unexpected recorded days: current=%d previous=%d", comparison.Current.RecordedDays, comparison.Previous.RecordedDays)
	}
	if comparison.Current.CalendarDays != 4 || comparison.Previous.CalendarDays != 4 {
		t.Fatalf("expected equal-length windows, got %d and %d", comparison.Current.CalendarDays, comparison.Previous.CalendarDays)
	}
	if comparison.KPIDelta <= 0 {
		t.Fatalf("expected KPI to improve, got delta %v", comparison.KPIDelta)
	}
	if len(comparison.Insights) != 3 {
		t.Fatalf("expected 3 insights, got %v", comparison.Insights)
	}
}

func TestAnalyticsServiceOverviewReport(t *testing.T) {
	gdb := setupServiceTestDB(t)
	_, start := seedAnalyticsData(t, gdb)
	svc := NewAnalyticsService(gdb)

	overview, err := svc.Overview(start, start.AddDate(0, 0, 3), engine.PeriodMonth)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if len(overview.Trends) != 1 || overview.Trends[0].HabitName != "Reading" {
		t.Fatalf("unexpected trends: %+v", overview.Trends)
	}

	markdown := BuildReportMarkdown(overview)
	for _, want := range []string{
		"# KPI Report 2024-07-01 ~ 2024-07-04",
		"| Exception days | 1 |",
		"| Reading |",
		"## Forecast (month)",
		"## Compared with the previous period",
		"## Recommendations",
	} {
		if !strings.Contains(markdown, want) {
			t.Fatalf("expected report to contain %q, got:\n%s", want, markdown)
		}
	}

	if BuildReportMarkdown(nil) != "" {
		t.Fatal("expected empty report for nil overview")
	}
}

func TestBuildReportMarkdownEscapesHabitNames(t *testing.T) {
	overview := &AnalyticsOverview{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		Summary: engine.SummaryStats{
			TopHabits: []engine.HabitTotal{{HabitID: 1, Name: "Read | Write", TotalMinutes: 60, Sessions: 2}},
		},
		Trends: []engine.TrendAnalysis{
			{HabitID: 2, HabitName: "*Deep* work_[1]", Trend: engine.TrendStable, Recommendation: "Keep going."},
		},
		Forecast: engine.ForecastData{Period: engine.PeriodYear},
	}

	markdown := BuildReportMarkdown(overview)
	if !strings.Contains(markdown, `Read \| Write`) {
		t.Fatalf("expected pipe to be escaped, got:\n%s", markdown)
	}
	if !strings.Contains(markdown, "- **\\*Deep\\* work\\_\\[1\\]**: Keep going.") {
		t.Fatalf("expected habit name escaped in guidance list, got:\n%s", markdown)
	}
	if !strings.Contains(markdown, "| \\*Deep\\* work\\_\\[1\\] | stable |") {
		t.Fatalf("expected habit name escaped in trend table, got:\n%s", markdown)
	}
	if !strings.Contains(markdown, "Not enough history to forecast yet.") {
		t.Fatalf("expected empty forecast note, got:\n%s", markdown)
	}
	if !strings.Contains(markdown, "Nothing to adjust.") {
		t.Fatalf("expected empty recommendations note, got:\n%s", markdown)
	}
}
