package engine

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func day(offset int) time.Time {
	return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func recordsWithKPI(values ...float64) []DailyRecord {
	records := make([]DailyRecord, 0, len(values))
	for i, v := range values {
		records = append(records, DailyRecord{
			Date:         day(i),
			TotalKPI:     v,
			HabitRecords: []HabitRecord{{HabitID: 1, Minutes: 60, Quality: 4}},
		})
	}
	return records
}

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		trend     TrendDirection
		zeroValue bool
	}{
		{name: "improving", values: []float64{10, 12, 14, 16, 18}, trend: TrendImproving},
		{name: "declining", values: []float64{20, 18, 16, 14, 12}, trend: TrendDeclining},
		{name: "noise", values: []float64{15, 15.1, 14.9, 15.2, 14.8}, trend: TrendStable, zeroValue: true},
		{name: "single point", values: []float64{10}, trend: TrendStable, zeroValue: true},
		{name: "empty", values: nil, trend: TrendStable, zeroValue: true},
		{name: "flat", values: []float64{0, 0, 0}, trend: TrendStable, zeroValue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateTrend(tt.values)
			if err != nil {
				t.Fatalf("CalculateTrend returned error: %v", err)
			}
			if got.Trend != tt.trend {
				t.Fatalf("expected trend %s, got %s", tt.trend, got.Trend)
			}
			if tt.zeroValue && got.Percentage != 0 {
				t.Fatalf("expected percentage 0, got %v", got.Percentage)
			}
			if !tt.zeroValue && got.Percentage <= 0 {
				t.Fatalf("expected positive percentage, got %v", got.Percentage)
			}
		})
	}
}

func TestCalculateTrendRejectsNaN(t *testing.T) {
	_, err := CalculateTrend([]float64{1, math.NaN(), 3})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateForecastEmpty(t *testing.T) {
	forecast, err := GenerateForecast(nil, PeriodMonth)
	if err != nil {
		t.Fatalf("GenerateForecast returned error: %v", err)
	}
	if forecast.PredictedKPI != 0 || forecast.PredictedHours != 0 || forecast.Confidence != 0 || forecast.GrowthRate != 0 || forecast.BasedOnDays != 0 {
		t.Fatalf("expected zero forecast, got %+v", forecast)
	}
}

func TestGenerateForecastYearAtLeastMonth(t *testing.T) {
	records := recordsWithKPI(60, 65, 70, 75, 80, 85, 90, 95, 100, 105)

	month, err := GenerateForecast(records, PeriodMonth)
	if err != nil {
		t.Fatalf("month forecast failed: %v", err)
	}
	year, err := GenerateForecast(records, PeriodYear)
	if err != nil {
		t.Fatalf("year forecast failed: %v", err)
	}

	if month.GrowthRate <= 0 {
		t.Fatalf("expected positive growth rate, got %v", month.GrowthRate)
	}
	if month.PredictedKPI <= 82.5 {
		t.Fatalf("expected month forecast above historical average, got %v", month.PredictedKPI)
	}
	if year.PredictedKPI < month.PredictedKPI {
		t.Fatalf("expected year %v >= month %v", year.PredictedKPI, month.PredictedKPI)
	}
	if year.PredictedKPI > MaxKPI {
		t.Fatalf("expected forecast clamped to %v, got %v", MaxKPI, year.PredictedKPI)
	}
	if month.BasedOnDays != 10 || month.Trend != TrendImproving {
		t.Fatalf("unexpected forecast metadata: %+v", month)
	}
	if month.PredictedHours != 30 {
		t.Fatalf("expected 1 hour/day over 30 days, got %v", month.PredictedHours)
	}

	stable := recordsWithKPI(90, 90, 90)
	stableMonth, _ := GenerateForecast(stable, PeriodMonth)
	stableYear, _ := GenerateForecast(stable, PeriodYear)
	if stableMonth.PredictedKPI != 90 || stableYear.PredictedKPI != 90 {
		t.Fatalf("expected flat forecast, got month=%v year=%v", stableMonth.PredictedKPI, stableYear.PredictedKPI)
	}
}

func TestGenerateForecastConfidenceGrowsWithHistory(t *testing.T) {
	short, _ := GenerateForecast(recordsWithKPI(90, 90), PeriodMonth)
	long, _ := GenerateForecast(recordsWithKPI(make([]float64, 60)...), PeriodMonth)

	if short.Confidence <= 0 || short.Confidence >= long.Confidence {
		t.Fatalf("expected confidence to grow with history: short=%v long=%v", short.Confidence, long.Confidence)
	}
	if long.Confidence != ForecastMaxConfidence {
		t.Fatalf("expected capped confidence %v, got %v", ForecastMaxConfidence, long.Confidence)
	}

	if _, err := GenerateForecast(nil, ForecastPeriod("week")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown period, got %v", err)
	}
}

func TestCalculatePeriodMetrics(t *testing.T) {
	records := []DailyRecord{
		{Date: day(0), TotalKPI: 100, HabitRecords: []HabitRecord{{HabitID: 1, Minutes: 90, Quality: 4}}},
	}

	metrics, err := CalculatePeriodMetrics(records, day(0), day(1))
	if err != nil {
		t.Fatalf("CalculatePeriodMetrics returned error: %v", err)
	}
	if metrics.CompletionRate != 50 {
		t.Fatalf("expected completion rate 50, got %v", metrics.CompletionRate)
	}
	if metrics.AverageKPI != 100 || metrics.TotalHours != 1.5 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}

	inverted, _ := CalculatePeriodMetrics(records, day(1), day(0))
	if inverted.CompletionRate != 0 || inverted.CalendarDays != 0 {
		t.Fatalf("expected zero metrics for inverted window, got %+v", inverted)
	}
}

func TestCalculateSummaryStats(t *testing.T) {
	habits := []Habit{{ID: 1, Name: "Reading"}, {ID: 2, Name: "Running"}}
	records := []DailyRecord{
		{Date: day(0), TotalKPI: 80, HabitRecords: []HabitRecord{{HabitID: 1, Minutes: 30, Quality: 4}, {HabitID: 2, Minutes: 60, Quality: 5}}},
		{Date: day(1), TotalKPI: 100, HabitRecords: []HabitRecord{{HabitID: 1, Minutes: 30, Quality: 2}}},
		{Date: day(10), TotalKPI: 10},
	}

	stats, err := CalculateSummaryStats(records, habits, day(0), day(3))
	if err != nil {
		t.Fatalf("CalculateSummaryStats returned error: %v", err)
	}
	if stats.AverageKPI != 90 {
		t.Fatalf("expected average 90, got %v", stats.AverageKPI)
	}
	if stats.TotalHours != 2 {
		t.Fatalf("expected 2 hours, got %v", stats.TotalHours)
	}
	if stats.CompletedDays != 2 || stats.TotalDays != 4 {
		t.Fatalf("unexpected day counts: %+v", stats)
	}
	if len(stats.TopHabits) != 2 {
		t.Fatalf("expected 2 top habits, got %d", len(stats.TopHabits))
	}
	if stats.TopHabits[0].HabitID != 1 || stats.TopHabits[1].HabitID != 2 {
		t.Fatalf("expected tie broken by habit id, got %+v", stats.TopHabits)
	}
	if stats.TopHabits[0].Name != "Reading" || stats.TopHabits[0].AverageQuality != 3 {
		t.Fatalf("unexpected top habit: %+v", stats.TopHabits[0])
	}

	empty, _ := CalculateSummaryStats(nil, habits, time.Time{}, time.Time{})
	if empty.AverageKPI != 0 || empty.CompletedDays != 0 || len(empty.TopHabits) != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestAnalyzeHabitTrends(t *testing.T) {
	habits := []Habit{{ID: 1, Name: "Reading", TargetMinutes: 30}, {ID: 2, Name: "Guitar", TargetMinutes: 20}}
	var records []DailyRecord
	for i := 0; i < 6; i++ {
		rec := DailyRecord{Date: day(i), HabitRecords: []HabitRecord{{HabitID: 1, Minutes: 10 + i*5, Quality: 4}}}
		if i == 0 {
			rec.HabitRecords = append(rec.HabitRecords, HabitRecord{HabitID: 2, Minutes: 20, Quality: 3})
		}
		records = append(records, rec)
	}

	trends := AnalyzeHabitTrends(records, habits)
	if len(trends) != 2 {
		t.Fatalf("expected 2 trend analyses, got %d", len(trends))
	}

	reading := trends[0]
	if reading.Trend != TrendImproving || reading.Consistency != 100 {
		t.Fatalf("unexpected reading trend: %+v", reading)
	}
	if reading.AverageMinutes != 22.5 {
		t.Fatalf("expected average 22.5 minutes, got %v", reading.AverageMinutes)
	}
	if !strings.Contains(reading.Recommendation, "raising your target") {
		t.Fatalf("unexpected reading recommendation: %q", reading.Recommendation)
	}

	guitar := trends[1]
	if guitar.Trend != TrendDeclining {
		t.Fatalf("expected guitar to decline, got %+v", guitar)
	}
	if math.Abs(guitar.Consistency-16.67) > 0.01 {
		t.Fatalf("expected consistency ~16.67, got %v", guitar.Consistency)
	}
	if !strings.Contains(guitar.Recommendation, "habit stacking") {
		t.Fatalf("unexpected guitar recommendation: %q", guitar.Recommendation)
	}
}

func TestGenerateRecommendationsOrdering(t *testing.T) {
	habits := []Habit{{ID: 1, Name: "Reading", TargetMinutes: 30}, {ID: 2, Name: "Guitar", TargetMinutes: 20}, {ID: 3, Name: "Yoga", TargetMinutes: 15}}
	trends := []TrendAnalysis{
		{HabitID: 2, HabitName: "Guitar", Trend: TrendStable, Consistency: 30},
		{HabitID: 3, HabitName: "Yoga", Trend: TrendImproving, Percentage: 25, Consistency: 90},
		{HabitID: 1, HabitName: "Reading", Trend: TrendDeclining, Percentage: 20, Consistency: 90},
	}
	records := recordsWithKPI(50, 60)

	recs, err := GenerateRecommendations(records, trends, habits)
	if err != nil {
		t.Fatalf("GenerateRecommendations returned error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 recommendations, got %d: %+v", len(recs), recs)
	}

	wantTypes := []RecommendationType{
		RecommendationHabitFocus,
		RecommendationPriorityAdjustment,
		RecommendationTimeOptimization,
		RecommendationGoalSetting,
	}
	for i, want := range wantTypes {
		if recs[i].Type != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, recs[i].Type)
		}
	}
	if recs[0].Priority != RecommendationHigh || recs[2].Priority != RecommendationMedium || recs[3].Priority != RecommendationLow {
		t.Fatalf("unexpected priorities: %+v", recs)
	}
	if recs[0].HabitID != 1 || len(recs[0].ActionItems) == 0 {
		t.Fatalf("unexpected habit focus recommendation: %+v", recs[0])
	}

	healthy, _ := GenerateRecommendations(recordsWithKPI(120, 130), nil, habits)
	if len(healthy) != 0 {
		t.Fatalf("expected no recommendations for healthy KPI, got %+v", healthy)
	}
	if none, err := GenerateRecommendations(nil, nil, nil); err != nil || len(none) != 0 {
		t.Fatalf("expected no recommendations without history, got %+v err=%v", none, err)
	}
}

func TestGenerateComparisonInsights(t *testing.T) {
	up := GenerateComparisonInsights(15, 8, 20)
	down := GenerateComparisonInsights(-15, -8, -20)
	flat := GenerateComparisonInsights(3, -2, 5)

	for i := range up {
		if !strings.HasPrefix(up[i], "Excellent") && !strings.HasPrefix(up[i], "Great") {
			t.Fatalf("expected congratulatory message, got %q", up[i])
		}
		if !strings.HasPrefix(down[i], "Warning") {
			t.Fatalf("expected warning message, got %q", down[i])
		}
		if !strings.Contains(flat[i], "remained stable") {
			t.Fatalf("expected stable message, got %q", flat[i])
		}
	}

	// 阈值对称：+band 与 -band 均跳出稳定区间
	plus := GenerateComparisonInsights(KPINoiseBand, 0, 0)
	minus := GenerateComparisonInsights(-KPINoiseBand, 0, 0)
	if strings.Contains(plus[0], "stable") || strings.Contains(minus[0], "stable") {
		t.Fatalf("expected symmetric thresholds, got %q / %q", plus[0], minus[0])
	}
}

func TestComparePeriods(t *testing.T) {
	records := []DailyRecord{
		{Date: day(0), TotalKPI: 60},
		{Date: day(2), TotalKPI: 90},
		{Date: day(3), TotalKPI: 100},
	}
	current := Window{Start: day(2), End: day(3)}

	previous := current.Previous()
	if !previous.Start.Equal(day(0)) || !previous.End.Equal(day(1)) {
		t.Fatalf("unexpected previous window: %+v", previous)
	}

	comparison, err := ComparePeriods(records, current, previous)
	if err != nil {
		t.Fatalf("ComparePeriods returned error: %v", err)
	}
	if comparison.KPIDelta != 35 {
		t.Fatalf("expected KPI delta 35, got %v", comparison.KPIDelta)
	}
	if comparison.CompletionDelta != 50 {
		t.Fatalf("expected completion delta 50, got %v", comparison.CompletionDelta)
	}
	if len(comparison.Insights) != 3 || !strings.HasPrefix(comparison.Insights[0], "Excellent") {
		t.Fatalf("unexpected insights: %v", comparison.Insights)
	}
}

func TestGenerateHabitRecommendation(t *testing.T) {
	habit := Habit{Name: "Reading"}
	tests := []struct {
		name        string
		trend       TrendDirection
		pct         float64
		consistency float64
		contains    string
	}{
		{name: "low consistency wins", trend: TrendDeclining, pct: 30, consistency: 20, contains: "habit stacking"},
		{name: "declining", trend: TrendDeclining, pct: 15, consistency: 70, contains: "Review your approach"},
		{name: "improving", trend: TrendImproving, pct: 15, consistency: 70, contains: "raising your target"},
		{name: "stable consistent", trend: TrendStable, pct: 0, consistency: 90, contains: "quality over quantity"},
		{name: "fallback", trend: TrendImproving, pct: 6, consistency: 70, contains: "Keep going"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateHabitRecommendation(habit, tt.trend, tt.pct, tt.consistency)
			if !strings.Contains(got, tt.contains) {
				t.Fatalf("expected %q in %q", tt.contains, got)
			}
		})
	}
}

func TestAnalyticsIdempotent(t *testing.T) {
	habits := []Habit{{ID: 1, Name: "Reading", TargetMinutes: 30}}
	records := recordsWithKPI(70, 75, 72, 90)

	first := AnalyzeHabitTrends(records, habits)
	second := AnalyzeHabitTrends(records, habits)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical trend analyses")
	}

	f1, _ := GenerateForecast(records, PeriodYear)
	f2, _ := GenerateForecast(records, PeriodYear)
	if f1 != f2 {
		t.Fatalf("expected identical forecasts, got %+v vs %+v", f1, f2)
	}

	s1, _ := CalculateSummaryStats(records, habits, day(0), day(3))
	s2, _ := CalculateSummaryStats(records, habits, day(0), day(3))
	if !reflect.DeepEqual(s1, s2) {
		t.Fatal("expected identical summaries")
	}
}

func TestAnalyticsRejectMalformedKPI(t *testing.T) {
	habits := []Habit{{ID: 1, Name: "Reading", TargetMinutes: 30}}
	tests := []struct {
		name  string
		value float64
	}{
		{name: "nan", value: math.NaN()},
		{name: "positive inf", value: math.Inf(1)},
		{name: "negative inf", value: math.Inf(-1)},
		{name: "above max", value: MaxKPI + 1},
		{name: "negative", value: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := recordsWithKPI(20, 20)
			records[0].TotalKPI = tt.value

			if err := ValidateRecords(records); !errors.Is(err, ErrValidation) {
				t.Fatalf("ValidateRecords: expected validation error, got %v", err)
			}
			if _, err := CalculateSummaryStats(records, habits, day(0), day(1)); !errors.Is(err, ErrValidation) {
				t.Fatalf("CalculateSummaryStats: expected validation error, got %v", err)
			}
			if _, err := CalculatePeriodMetrics(records, day(0), day(1)); !errors.Is(err, ErrValidation) {
				t.Fatalf("CalculatePeriodMetrics: expected validation error, got %v", err)
			}
			if _, err := GenerateRecommendations(records, nil, habits); !errors.Is(err, ErrValidation) {
				t.Fatalf("GenerateRecommendations: expected validation error, got %v", err)
			}
			if _, err := ComparePeriods(records, Window{Start: day(1), End: day(1)}, Window{Start: day(0), End: day(0)}); !errors.Is(err, ErrValidation) {
				t.Fatalf("ComparePeriods: expected validation error, got %v", err)
			}
			if _, err := GenerateForecast(records, PeriodMonth); !errors.Is(err, ErrValidation) {
				t.Fatalf("GenerateForecast: expected validation error, got %v", err)
			}

			var verr *ValidationError
			_ = errors.As(ValidateRecords(records), &verr)
			if verr == nil || len(verr.Fields) != 1 || verr.Fields[0].Field != "records[0].total_kpi" {
				t.Fatalf("expected a single records[0].total_kpi error, got %+v", verr)
			}
		})
	}

	low, err := GenerateRecommendations(recordsWithKPI(20, 20), nil, habits)
	if err != nil || len(low) != 1 || low[0].Type != RecommendationPriorityAdjustment {
		t.Fatalf("expected priority adjustment for low KPI, got %+v err=%v", low, err)
	}
}

func TestAnalyzeHabitTrendsWeekdayOnly(t *testing.T) {
	// 2024-05-06 是周一，覆盖两个完整的周一到周日
	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	habits := []Habit{
		{ID: 1, Name: "Standup", TargetMinutes: 15, WeekdayOnly: true},
		{ID: 2, Name: "Journal", TargetMinutes: 15},
	}

	var records []DailyRecord
	for i := 0; i < 14; i++ {
		date := monday.AddDate(0, 0, i)
		record := DailyRecord{Date: date, TotalKPI: 90}
		if !isWeekend(date) {
			record.HabitRecords = []HabitRecord{
				{HabitID: 1, Minutes: 15, Quality: 4},
				{HabitID: 2, Minutes: 15, Quality: 4},
			}
		}
		records = append(records, record)
	}

	trends := AnalyzeHabitTrends(records, habits)
	standup, journal := trends[0], trends[1]

	if standup.Consistency != 100 || standup.Trend != TrendStable || standup.Percentage != 0 {
		t.Fatalf("expected weekday habit to be fully consistent and stable, got %+v", standup)
	}
	if standup.AverageMinutes != 15 {
		t.Fatalf("expected 15 average minutes over weekdays, got %v", standup.AverageMinutes)
	}
	if !strings.Contains(standup.Recommendation, "quality over quantity") {
		t.Fatalf("unexpected weekday habit recommendation: %q", standup.Recommendation)
	}

	if math.Abs(journal.Consistency-71.43) > 0.01 {
		t.Fatalf("expected daily habit to count weekends as missed, got %v", journal.Consistency)
	}
}
