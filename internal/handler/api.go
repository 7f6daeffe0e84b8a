package handler

import (
	"github.com/dailykpi/internal/service"
	"gorm.io/gorm"
)

const defaultWindowDays = 30

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	habits     *service.HabitService
	records    *service.DailyRecordService
	analytics  analyticsProvider
	windowDays int
}

// NewAPI constructs a handler set with shared services.
// windowDays 为未指定 start/end 时分析接口默认回看的天数
func NewAPI(db *gorm.DB, windowDays int) *API {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	return &API{
		db:         db,
		habits:     service.NewHabitService(db),
		records:    service.NewDailyRecordService(db),
		analytics:  service.NewAnalyticsService(db),
		windowDays: windowDays,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
