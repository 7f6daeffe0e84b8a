package handler

import (
	"time"

	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
)

type analyticsProvider interface {
	Summary(start, end time.Time) (*service.SummaryReport, error)
	HabitTrends(start, end time.Time) ([]engine.TrendAnalysis, error)
	Forecast(start, end time.Time, period engine.ForecastPeriod) (*engine.ForecastData, error)
	Recommendations(start, end time.Time) ([]engine.PersonalizedRecommendation, error)
	Compare(start, end time.Time) (*engine.PeriodComparison, error)
	Overview(start, end time.Time, period engine.ForecastPeriod) (*service.AnalyticsOverview, error)
}
