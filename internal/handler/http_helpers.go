package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondValidationError(c *gin.Context, verr *engine.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "参数校验失败",
		"fields": verr.Fields,
	})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateFormat, strings.TrimSpace(value), time.Local)
}

func parseDateParam(c *gin.Context, key string) (time.Time, bool) {
	date, err := parseDate(c.Param(key))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// resolveWindow 读取 start/end 查询参数；缺省时以今天为终点回看 windowDays 天
func (a *API) resolveWindow(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	if raw := c.Query("end"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的结束日期")
			return time.Time{}, time.Time{}, false
		}
		end = parsed
	}

	days := a.windowDays
	if days <= 0 {
		days = defaultWindowDays
	}
	start := end.AddDate(0, 0, -(days - 1))

	if raw := c.Query("start"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的开始日期")
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}

	if end.Before(start) {
		respondError(c, http.StatusBadRequest, "结束日期不能早于开始日期")
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

func parseForecastPeriod(c *gin.Context) (engine.ForecastPeriod, bool) {
	period := engine.ForecastPeriod(strings.ToLower(c.DefaultQuery("period", string(engine.PeriodMonth))))
	if period != engine.PeriodMonth && period != engine.PeriodYear {
		respondError(c, http.StatusBadRequest, "预测周期只支持 month 或 year")
		return "", false
	}
	return period, true
}

// handleServiceError 将 service/engine 错误映射为 HTTP 状态码，未知错误记录日志后返回 500
func handleServiceError(c *gin.Context, err error, message string) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(c, verr)
	case errors.Is(err, service.ErrInvalidRange):
		respondError(c, http.StatusBadRequest, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrDailyRecordNotFound):
		respondError(c, http.StatusNotFound, "当天没有记录")
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	default:
		log.Printf("[%s] %s: %v", requestID(c), message, err)
		respondError(c, http.StatusInternalServerError, message)
	}
}
