package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSummary 区间汇总：平均 KPI、总时长、记录天数与投入最多的习惯
func (a *API) GetSummary(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}

	report, err := a.analytics.Summary(start, end)
	if err != nil {
		handleServiceError(c, err, "计算汇总失败")
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetHabitTrends 每个习惯的趋势与一致性
func (a *API) GetHabitTrends(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}

	trends, err := a.analytics.HabitTrends(start, end)
	if err != nil {
		handleServiceError(c, err, "计算习惯趋势失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetForecast 预测下个月或下一年的 KPI 与时长
func (a *API) GetForecast(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}
	period, ok := parseForecastPeriod(c)
	if !ok {
		return
	}

	forecast, err := a.analytics.Forecast(start, end, period)
	if err != nil {
		handleServiceError(c, err, "生成预测失败")
		return
	}

	c.JSON(http.StatusOK, forecast)
}

// GetRecommendations 个性化建议，按优先级排序
func (a *API) GetRecommendations(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}

	recommendations, err := a.analytics.Recommendations(start, end)
	if err != nil {
		handleServiceError(c, err, "生成建议失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// GetComparison 与上一个等长区间对比
func (a *API) GetComparison(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}

	comparison, err := a.analytics.Compare(start, end)
	if err != nil {
		handleServiceError(c, err, "区间对比失败")
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// GetOverview 一次返回全部分析结果
func (a *API) GetOverview(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}
	period, ok := parseForecastPeriod(c)
	if !ok {
		return
	}

	overview, err := a.analytics.Overview(start, end, period)
	if err != nil {
		handleServiceError(c, err, "生成分析概览失败")
		return
	}

	c.JSON(http.StatusOK, overview)
}
