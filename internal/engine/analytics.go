package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// HabitTotal 习惯在统计区间内的累计投入
type HabitTotal struct {
	HabitID        uint    `json:"habit_id"`
	Name           string  `json:"name"`
	TotalMinutes   int     `json:"total_minutes"`
	Sessions       int     `json:"sessions"`
	AverageQuality float64 `json:"average_quality"`
}

// SummaryStats 区间汇总
type SummaryStats struct {
	AverageKPI    float64      `json:"average_kpi"`
	TotalHours    float64      `json:"total_hours"`
	CompletedDays int          `json:"completed_days"`
	TotalDays     int          `json:"total_days"`
	TopHabits     []HabitTotal `json:"top_habits"`
}

// Window 闭区间日期窗口，按天比较
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days 窗口覆盖的自然日数量，结束早于开始时为 0
func (w Window) Days() int {
	return calendarDays(w.Start, w.End)
}

// Previous 返回紧挨在当前窗口之前、长度相同的窗口
func (w Window) Previous() Window {
	days := w.Days()
	if days <= 0 {
		return Window{}
	}
	start := normalizeDate(w.Start)
	return Window{Start: start.AddDate(0, 0, -days), End: start.AddDate(0, 0, -1)}
}

// PeriodMetrics 单个窗口的核心指标
type PeriodMetrics struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AverageKPI     float64   `json:"average_kpi"`
	TotalHours     float64   `json:"total_hours"`
	CompletionRate float64   `json:"completion_rate"`
	RecordedDays   int       `json:"recorded_days"`
	CalendarDays   int       `json:"calendar_days"`
}

// PeriodComparison 两个窗口的对比结果，差值均为 current - previous
type PeriodComparison struct {
	Current         PeriodMetrics `json:"current"`
	Previous        PeriodMetrics `json:"previous"`
	KPIDelta        float64       `json:"kpi_delta"`
	HoursDelta      float64       `json:"hours_delta"`
	CompletionDelta float64       `json:"completion_delta"`
	Insights        []string      `json:"insights"`
}

// ValidateRecords 检查历史记录的 TotalKPI 是否为 [MinKPI, MaxKPI] 内的有限数
func ValidateRecords(records []DailyRecord) error {
	verr := &ValidationError{}
	for i, record := range records {
		field := fmt.Sprintf("records[%d].total_kpi", i)
		switch {
		case math.IsNaN(record.TotalKPI) || math.IsInf(record.TotalKPI, 0):
			verr.add(field, "must be a finite number")
		case record.TotalKPI < MinKPI || record.TotalKPI > MaxKPI:
			verr.add(field, "must be between %.0f and %.0f, got %g", MinKPI, MaxKPI, record.TotalKPI)
		}
	}
	return verr.orNil()
}

// CalculateSummaryStats 汇总窗口内的记录。start/end 为零值时对应一侧不设限。
func CalculateSummaryStats(records []DailyRecord, habits []Habit, start, end time.Time) (SummaryStats, error) {
	if err := ValidateRecords(records); err != nil {
		return SummaryStats{}, err
	}
	window := filterWindow(records, start, end)
	stats := SummaryStats{
		CompletedDays: len(window),
		TopHabits:     []HabitTotal{},
	}

	if !start.IsZero() && !end.IsZero() {
		stats.TotalDays = calendarDays(start, end)
	} else {
		stats.TotalDays = len(window)
	}

	if len(window) == 0 {
		return stats, nil
	}

	index := indexHabits(habits)
	totals := make(map[uint]*HabitTotal)
	qualitySum := make(map[uint]int)
	kpiSum := 0.0
	minutes := 0

	for _, record := range window {
		kpiSum += record.TotalKPI
		for _, rec := range record.HabitRecords {
			minutes += rec.Minutes
			total, ok := totals[rec.HabitID]
			if !ok {
				total = &HabitTotal{HabitID: rec.HabitID, Name: index[rec.HabitID].Name}
				totals[rec.HabitID] = total
			}
			total.TotalMinutes += rec.Minutes
			total.Sessions++
			qualitySum[rec.HabitID] += rec.Quality
		}
	}

	stats.AverageKPI = kpiSum / float64(len(window))
	stats.TotalHours = float64(minutes) / 60

	top := make([]HabitTotal, 0, len(totals))
	for id, total := range totals {
		if total.Sessions > 0 {
			total.AverageQuality = float64(qualitySum[id]) / float64(total.Sessions)
		}
		top = append(top, *total)
	}
	slices.SortFunc(top, func(a, b HabitTotal) int {
		if diff := cmp.Compare(b.TotalMinutes, a.TotalMinutes); diff != 0 {
			return diff
		}
		return cmp.Compare(a.HabitID, b.HabitID)
	})
	if len(top) > TopHabitsLimit {
		top = top[:TopHabitsLimit]
	}
	stats.TopHabits = top

	return stats, nil
}

// CalculateTrend 用最小二乘斜率判断序列走势。
// 幅度 = |斜率 × (n-1)| / |均值| × 100，低于 TrendNoiseThreshold 视为稳定；
// 少于两个点时直接返回稳定。
func CalculateTrend(values []float64) (TrendResult, error) {
	verr := &ValidationError{}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			verr.add(fmt.Sprintf("values[%d]", i), "must be a finite number")
		}
	}
	if err := verr.orNil(); err != nil {
		return TrendResult{Trend: TrendStable}, err
	}
	return trendOf(values), nil
}

func trendOf(values []float64) TrendResult {
	stable := TrendResult{Trend: TrendStable}
	if len(values) < 2 {
		return stable
	}

	slope, mean := linearSlope(values)
	change := slope * float64(len(values)-1)
	if change == 0 {
		return stable
	}

	percentage := 100.0
	if mean != 0 {
		percentage = math.Abs(change) / math.Abs(mean) * 100
	}
	if percentage < TrendNoiseThreshold {
		return stable
	}

	result := TrendResult{Trend: TrendImproving, Percentage: round2(percentage)}
	if slope < 0 {
		result.Trend = TrendDeclining
	}
	return result
}

// linearSlope 以下标为 x 做最小二乘拟合，返回斜率与均值
func linearSlope(values []float64) (slope, mean float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	xMean := (n - 1) / 2
	for _, v := range values {
		mean += v
	}
	mean /= n

	var cov, varX float64
	for i, v := range values {
		dx := float64(i) - xMean
		cov += dx * (v - mean)
		varX += dx * dx
	}
	if varX == 0 {
		return 0, mean
	}
	return cov / varX, mean
}

// AnalyzeHabitTrends 逐个习惯计算分钟数走势、平均投入与一致性。
// WeekdayOnly 的习惯不计入周六、周日。
func AnalyzeHabitTrends(records []DailyRecord, habits []Habit) []TrendAnalysis {
	analyses := make([]TrendAnalysis, 0, len(habits))

	for _, habit := range habits {
		series := make([]float64, 0, len(records))
		practiced := 0
		total := 0
		for _, record := range records {
			if habit.WeekdayOnly && isWeekend(record.Date) {
				continue
			}
			minutes := 0
			for _, rec := range record.HabitRecords {
				if rec.HabitID == habit.ID {
					minutes += rec.Minutes
				}
			}
			series = append(series, float64(minutes))
			total += minutes
			if minutes > 0 {
				practiced++
			}
		}

		analysis := TrendAnalysis{HabitID: habit.ID, HabitName: habit.Name, Trend: TrendStable}
		if days := len(series); days > 0 {
			trend := trendOf(series)
			analysis.Trend = trend.Trend
			analysis.Percentage = trend.Percentage
			analysis.AverageMinutes = round2(float64(total) / float64(days))
			analysis.Consistency = round2(float64(practiced) / float64(days) * 100)
		}
		analysis.Recommendation = GenerateHabitRecommendation(habit, analysis.Trend, analysis.Percentage, analysis.Consistency)
		analyses = append(analyses, analysis)
	}

	return analyses
}

// GenerateForecast 以历史均值为起点、观察到的增长率做复利预测。
// month 复利 1 个周期，year 复利 12 个周期；没有历史数据时全部为 0。
func GenerateForecast(records []DailyRecord, period ForecastPeriod) (ForecastData, error) {
	var cycles, periodDays int
	switch period {
	case PeriodMonth:
		cycles, periodDays = 1, 30
	case PeriodYear:
		cycles, periodDays = 12, 365
	default:
		verr := &ValidationError{}
		verr.add("period", "must be month or year, got %q", period)
		return ForecastData{}, verr
	}

	forecast := ForecastData{Period: period, Trend: TrendStable}
	if len(records) == 0 {
		return forecast, nil
	}

	if err := ValidateRecords(records); err != nil {
		return ForecastData{}, err
	}

	kpis := make([]float64, len(records))
	hours := make([]float64, len(records))
	for i, record := range records {
		kpis[i] = record.TotalKPI
		hours[i] = float64(record.TotalMinutes()) / 60
	}

	avgKPI := mean(kpis)
	avgHours := mean(hours)
	kpiRate := growthRate(kpis)
	hoursRate := growthRate(hours)

	forecast.Trend = trendOf(kpis).Trend
	forecast.GrowthRate = round4(kpiRate)
	forecast.BasedOnDays = len(records)
	forecast.PredictedKPI = round2(clamp(avgKPI*math.Pow(1+kpiRate, float64(cycles)), MinKPI, MaxKPI))
	forecast.PredictedHours = round2(math.Max(0, avgHours*math.Pow(1+hoursRate, float64(cycles))*float64(periodDays)))
	forecast.Confidence = round2(math.Min(ForecastMaxConfidence, float64(len(records))/ForecastFullConfidenceDays*100))

	return forecast, nil
}

// growthRate 每个预测周期的相对增长率；稳定趋势记为 0，并限制在 ±ForecastMaxGrowthRate
func growthRate(values []float64) float64 {
	if trendOf(values).Trend == TrendStable {
		return 0
	}
	slope, avg := linearSlope(values)
	if avg == 0 {
		return 0
	}
	return clamp(slope/avg*ForecastCycleDays, -ForecastMaxGrowthRate, ForecastMaxGrowthRate)
}

// GenerateRecommendations 根据习惯趋势与整体 KPI 生成建议，高优先级在前
func GenerateRecommendations(records []DailyRecord, trends []TrendAnalysis, habits []Habit) ([]PersonalizedRecommendation, error) {
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}
	index := indexHabits(habits)
	recs := make([]PersonalizedRecommendation, 0)

	for _, trend := range trends {
		name := trend.HabitName
		if name == "" {
			name = index[trend.HabitID].Name
		}

		if trend.Trend == TrendDeclining {
			recs = append(recs, PersonalizedRecommendation{
				Type:        RecommendationHabitFocus,
				Priority:    RecommendationHigh,
				Title:       fmt.Sprintf("Refocus on %s", name),
				Description: fmt.Sprintf("%s has declined by %.1f%% over the analyzed period.", name, trend.Percentage),
				ActionItems: []string{
					fmt.Sprintf("Schedule %s at a fixed time every day", name),
					"Review what changed when the decline started",
					"Temporarily lower the daily target to rebuild momentum",
				},
				HabitID: trend.HabitID,
			})
		}

		if trend.Consistency < LowConsistencyThreshold {
			recs = append(recs, PersonalizedRecommendation{
				Type:        RecommendationTimeOptimization,
				Priority:    RecommendationMedium,
				Title:       fmt.Sprintf("Make %s a daily routine", name),
				Description: fmt.Sprintf("%s was practiced on only %.0f%% of the days.", name, trend.Consistency),
				ActionItems: []string{
					fmt.Sprintf("Attach %s to an existing routine (habit stacking)", name),
					"Reserve a recurring calendar slot",
				},
				HabitID: trend.HabitID,
			})
		}

		if trend.Trend == TrendImproving && trend.Percentage > SignificantTrendChange {
			target := index[trend.HabitID].TargetMinutes
			recs = append(recs, PersonalizedRecommendation{
				Type:        RecommendationGoalSetting,
				Priority:    RecommendationLow,
				Title:       fmt.Sprintf("Raise the bar for %s", name),
				Description: fmt.Sprintf("%s improved by %.1f%%; the current target of %d minutes may be too easy.", name, trend.Percentage, target),
				ActionItems: []string{"Increase the daily target by 10-15%"},
				HabitID:     trend.HabitID,
			})
		}
	}

	if len(records) > 0 {
		avg := 0.0
		for _, record := range records {
			avg += record.TotalKPI
		}
		avg /= float64(len(records))

		if avg < MinAcceptableKPI {
			recs = append(recs, PersonalizedRecommendation{
				Type:        RecommendationPriorityAdjustment,
				Priority:    RecommendationHigh,
				Title:       "Rebalance daily priorities",
				Description: fmt.Sprintf("Average KPI is %.1f, below the minimum of %.0f.", avg, MinAcceptableKPI),
				ActionItems: []string{
					"Complete at least one high-priority task every day",
					"Spend more time on Q2 work such as learning and planning",
					"Keep the daily task list to five items or fewer",
				},
			})
		}
	}

	slices.SortStableFunc(recs, func(a, b PersonalizedRecommendation) int {
		return a.Priority.rank() - b.Priority.rank()
	})
	return recs, nil
}

// CalculatePeriodMetrics 完成率 = 有记录的天数 / 窗口自然日数 × 100
func CalculatePeriodMetrics(records []DailyRecord, start, end time.Time) (PeriodMetrics, error) {
	if err := ValidateRecords(records); err != nil {
		return PeriodMetrics{}, err
	}
	metrics := PeriodMetrics{Start: start, End: end}
	if start.IsZero() || end.IsZero() {
		return metrics, nil
	}
	days := calendarDays(start, end)
	if days <= 0 {
		return metrics, nil
	}
	metrics.CalendarDays = days

	window := filterWindow(records, start, end)
	if len(window) == 0 {
		return metrics, nil
	}

	seen := make(map[time.Time]struct{}, len(window))
	kpiSum := 0.0
	minutes := 0
	for _, record := range window {
		seen[dateKey(record.Date)] = struct{}{}
		kpiSum += record.TotalKPI
		minutes += record.TotalMinutes()
	}

	metrics.RecordedDays = len(seen)
	metrics.AverageKPI = kpiSum / float64(len(window))
	metrics.TotalHours = float64(minutes) / 60
	metrics.CompletionRate = float64(len(seen)) / float64(days) * 100
	return metrics, nil
}

// ComparePeriods 对比两个窗口的指标并生成说明
func ComparePeriods(records []DailyRecord, current, previous Window) (PeriodComparison, error) {
	cur, err := CalculatePeriodMetrics(records, current.Start, current.End)
	if err != nil {
		return PeriodComparison{}, err
	}
	prev, err := CalculatePeriodMetrics(records, previous.Start, previous.End)
	if err != nil {
		return PeriodComparison{}, err
	}

	comparison := PeriodComparison{Current: cur, Previous: prev}
	comparison.KPIDelta = round2(comparison.Current.AverageKPI - comparison.Previous.AverageKPI)
	comparison.HoursDelta = round2(comparison.Current.TotalHours - comparison.Previous.TotalHours)
	comparison.CompletionDelta = round2(comparison.Current.CompletionRate - comparison.Previous.CompletionRate)
	comparison.Insights = GenerateComparisonInsights(comparison.KPIDelta, comparison.HoursDelta, comparison.CompletionDelta)
	return comparison, nil
}

// GenerateComparisonInsights 按差值方向与幅度输出说明，正负阈值对称
func GenerateComparisonInsights(kpiDelta, hoursDelta, completionDelta float64) []string {
	insights := make([]string, 0, 3)

	switch {
	case kpiDelta >= KPINoiseBand:
		insights = append(insights, fmt.Sprintf("Excellent! Your average KPI improved by %.1f points.", kpiDelta))
	case kpiDelta <= -KPINoiseBand:
		insights = append(insights, fmt.Sprintf("Warning: your average KPI dropped by %.1f points.", -kpiDelta))
	default:
		insights = append(insights, fmt.Sprintf("Your average KPI remained stable (%+.1f points).", kpiDelta))
	}

	switch {
	case hoursDelta >= HoursNoiseBand:
		insights = append(insights, fmt.Sprintf("Great work! You invested %.1f more hours in your habits.", hoursDelta))
	case hoursDelta <= -HoursNoiseBand:
		insights = append(insights, fmt.Sprintf("Warning: you invested %.1f fewer hours in your habits.", -hoursDelta))
	default:
		insights = append(insights, fmt.Sprintf("Your invested time remained stable (%+.1f hours).", hoursDelta))
	}

	switch {
	case completionDelta >= CompletionNoiseBand:
		insights = append(insights, fmt.Sprintf("Excellent consistency: completion rate is up %.1f percentage points.", completionDelta))
	case completionDelta <= -CompletionNoiseBand:
		insights = append(insights, fmt.Sprintf("Warning: completion rate fell %.1f percentage points.", -completionDelta))
	default:
		insights = append(insights, fmt.Sprintf("Your completion rate remained stable (%+.1f points).", completionDelta))
	}

	return insights
}

// GenerateHabitRecommendation 按决策表选择一条习惯建议
func GenerateHabitRecommendation(habit Habit, trend TrendDirection, trendPercentage, consistency float64) string {
	switch {
	case consistency < LowConsistencyThreshold:
		return fmt.Sprintf("Build consistency for %s: try habit stacking by pairing it with an existing routine, and start with a smaller daily target.", habit.Name)
	case trend == TrendDeclining && trendPercentage > SignificantTrendChange:
		return fmt.Sprintf("%s is declining by %.1f%%. Review your approach: check what changed in your schedule and remove obstacles.", habit.Name, trendPercentage)
	case trend == TrendImproving && trendPercentage > SignificantTrendChange:
		return fmt.Sprintf("Great progress on %s (+%.1f%%)! Consider raising your target to keep growing.", habit.Name, trendPercentage)
	case trend == TrendStable && consistency > HighConsistencyThreshold:
		return fmt.Sprintf("%s is steady and consistent. Optimize for quality over quantity: focus on deliberate practice.", habit.Name)
	default:
		return fmt.Sprintf("Keep going with %s and track how each session feels.", habit.Name)
	}
}

func filterWindow(records []DailyRecord, start, end time.Time) []DailyRecord {
	if start.IsZero() && end.IsZero() {
		return records
	}

	out := make([]DailyRecord, 0, len(records))
	for _, record := range records {
		day := dateKey(record.Date)
		if !start.IsZero() && day.Before(dateKey(start)) {
			continue
		}
		if !end.IsZero() && day.After(dateKey(end)) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dateKey 只保留年月日，避免时区与夏令时影响按天比较
func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func calendarDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	s, e := dateKey(start), dateKey(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
