package service

import (
	"fmt"
	"time"

	"github.com/dailykpi/internal/engine"
	"gorm.io/gorm"
)

// AnalyticsService 负责从数据库加载区间数据并交给 engine 做趋势、预测与建议。
// 例外日（Exception 非空）不参与评分序列，只计入 ExceptionDays。
type AnalyticsService struct {
	records *DailyRecordService
	habits  *HabitService
}

// AnalyticsWindow 一次分析加载的数据
type AnalyticsWindow struct {
	Start         time.Time
	End           time.Time
	Records       []engine.DailyRecord
	Habits        []engine.Habit
	ExceptionDays int
}

// SummaryReport 区间汇总及例外日数量
type SummaryReport struct {
	Start         time.Time           `json:"start"`
	End           time.Time           `json:"end"`
	Stats         engine.SummaryStats `json:"stats"`
	ExceptionDays int                 `json:"exception_days"`
}

// AnalyticsOverview 汇总报告所需的全部分析结果
type AnalyticsOverview struct {
	Start           time.Time                           `json:"start"`
	End             time.Time                           `json:"end"`
	Summary         engine.SummaryStats                 `json:"summary"`
	Trends          []engine.TrendAnalysis              `json:"trends"`
	Forecast        engine.ForecastData                 `json:"forecast"`
	Recommendations []engine.PersonalizedRecommendation `json:"recommendations"`
	Comparison      engine.PeriodComparison             `json:"comparison"`
	ExceptionDays   int                                 `json:"exception_days"`
}

// NewAnalyticsService 创建 AnalyticsService
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		records: NewDailyRecordService(gdb),
		habits:  NewHabitService(gdb),
	}
}

// Load 读取区间内的记录与启用中的习惯
func (s *AnalyticsService) Load(start, end time.Time) (*AnalyticsWindow, error) {
	stored, err := s.records.ListBetween(start, end)
	if err != nil {
		return nil, err
	}

	habits, err := s.habits.List(HabitFilter{Status: "active"})
	if err != nil {
		return nil, err
	}

	window := &AnalyticsWindow{
		Start:   normalizeToDate(start),
		End:     normalizeToDate(end),
		Records: make([]engine.DailyRecord, 0, len(stored)),
		Habits:  toEngineHabits(habits),
	}
	for _, record := range stored {
		if record.Exception != "" {
			window.ExceptionDays++
			continue
		}
		window.Records = append(window.Records, ToEngineRecord(record))
	}

	return window, nil
}

// Summary 区间汇总
func (s *AnalyticsService) Summary(start, end time.Time) (*SummaryReport, error) {
	window, err := s.Load(start, end)
	if err != nil {
		return nil, err
	}

	stats, err := engine.CalculateSummaryStats(window.Records, window.Habits, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	return &SummaryReport{
		Start:         window.Start,
		End:           window.End,
		Stats:         stats,
		ExceptionDays: window.ExceptionDays,
	}, nil
}

// HabitTrends 每个习惯的走势
func (s *AnalyticsService) HabitTrends(start, end time.Time) ([]engine.TrendAnalysis, error) {
	window, err := s.Load(start, end)
	if err != nil {
		return nil, err
	}
	return engine.AnalyzeHabitTrends(window.Records, window.Habits), nil
}

// Forecast 以区间内的历史数据预测未来一个月或一年
func (s *AnalyticsService) Forecast(start, end time.Time, period engine.ForecastPeriod) (*engine.ForecastData, error) {
	window, err := s.Load(start, end)
	if err != nil {
		return nil, err
	}

	forecast, err := engine.GenerateForecast(window.Records, period)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return &forecast, nil
}

// Recommendations 个性化建议
func (s *AnalyticsService) Recommendations(start, end time.Time) ([]engine.PersonalizedRecommendation, error) {
	window, err := s.Load(start, end)
	if err != nil {
		return nil, err
	}

	trends := engine.AnalyzeHabitTrends(window.Records, window.Habits)
	recs, err := engine.GenerateRecommendations(window.Records, trends, window.Habits)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return recs, nil
}

// Compare 对比当前区间与紧邻其前、等长的区间
func (s *AnalyticsService) Compare(start, end time.Time) (*engine.PeriodComparison, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	current := engine.Window{Start: normalizeToDate(start), End: normalizeToDate(end)}
	previous := current.Previous()

	window, err := s.Load(previous.Start, current.End)
	if err != nil {
		return nil, err
	}

	comparison, err := engine.ComparePeriods(window.Records, current, previous)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	return &comparison, nil
}

// Overview 一次性计算汇总、趋势、预测、建议与对比
func (s *AnalyticsService) Overview(start, end time.Time, period engine.ForecastPeriod) (*AnalyticsOverview, error) {
	window, err := s.Load(start, end)
	if err != nil {
		return nil, err
	}

	forecast, err := engine.GenerateForecast(window.Records, period)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	comparison, err := s.Compare(start, end)
	if err != nil {
		return nil, err
	}

	summary, err := engine.CalculateSummaryStats(window.Records, window.Habits, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	trends := engine.AnalyzeHabitTrends(window.Records, window.Habits)
	recs, err := engine.GenerateRecommendations(window.Records, trends, window.Habits)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	return &AnalyticsOverview{
		Start:           window.Start,
		End:             window.End,
		Summary:         summary,
		Trends:          trends,
		Forecast:        forecast,
		Recommendations: recs,
		Comparison:      *comparison,
		ExceptionDays:   window.ExceptionDays,
	}, nil
}
