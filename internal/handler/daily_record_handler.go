package handler

import (
	"net/http"
	"time"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
	"github.com/gin-gonic/gin"
)

type habitRecordPayload struct {
	HabitID uint `json:"habit_id"`
	Minutes int  `json:"minutes"`
	Quality int  `json:"quality"`
}

type taskPayload struct {
	Title            string `json:"title"`
	Priority         string `json:"priority"`
	Completed        bool   `json:"completed"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	ActualMinutes    int    `json:"actual_minutes"`
	HabitID          uint   `json:"habit_id"`
}

type dailyRecordPayload struct {
	HabitRecords []habitRecordPayload `json:"habit_records"`
	Tasks        []taskPayload        `json:"tasks"`
	Pillars      engine.PillarScores  `json:"pillars"`
	Exception    string               `json:"exception"`
	Note         string               `json:"note"`
}

func (p dailyRecordPayload) toInput(date time.Time) service.DailyRecordInput {
	input := service.DailyRecordInput{
		Date:         date,
		HabitRecords: make([]service.HabitRecordInput, 0, len(p.HabitRecords)),
		Tasks:        make([]service.TaskInput, 0, len(p.Tasks)),
		Pillars:      p.Pillars,
		Exception:    p.Exception,
		Note:         p.Note,
	}
	for _, rec := range p.HabitRecords {
		input.HabitRecords = append(input.HabitRecords, service.HabitRecordInput{
			HabitID: rec.HabitID,
			Minutes: rec.Minutes,
			Quality: rec.Quality,
		})
	}
	for _, task := range p.Tasks {
		input.Tasks = append(input.Tasks, service.TaskInput{
			Title:            task.Title,
			Priority:         task.Priority,
			Completed:        task.Completed,
			EstimatedMinutes: task.EstimatedMinutes,
			ActualMinutes:    task.ActualMinutes,
			HabitID:          task.HabitID,
		})
	}
	return input
}

// SaveDay 保存（或覆盖）某天的记录并返回评分明细
func (a *API) SaveDay(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	var payload dailyRecordPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	record, breakdown, err := a.records.Save(payload.toInput(date))
	if err != nil {
		handleServiceError(c, err, "保存当天记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":    dailyRecordToPayload(*record),
		"breakdown": breakdown,
	})
}

// PreviewKPI 只计算 KPI，不落库
func (a *API) PreviewKPI(c *gin.Context) {
	var payload dailyRecordPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	breakdown, err := a.records.Preview(payload.toInput(time.Now()))
	if err != nil {
		handleServiceError(c, err, "计算 KPI 失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown})
}

// GetDay 返回某天的记录
func (a *API) GetDay(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	record, err := a.records.Get(date)
	if err != nil {
		handleServiceError(c, err, "获取当天记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": dailyRecordToPayload(*record)})
}

// DeleteDay 删除某天的记录
func (a *API) DeleteDay(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	if err := a.records.Delete(date); err != nil {
		handleServiceError(c, err, "删除当天记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListDays 返回区间内的全部记录
func (a *API) ListDays(c *gin.Context) {
	start, end, ok := a.resolveWindow(c)
	if !ok {
		return
	}

	records, err := a.records.ListBetween(start, end)
	if err != nil {
		handleServiceError(c, err, "获取记录列表失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, dailyRecordToPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"range": gin.H{"start": start.Format(dateFormat), "end": end.Format(dateFormat)},
		"days":  items,
	})
}

// GetDayPriority 返回某天任务的四象限分析
func (a *API) GetDayPriority(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	report, err := a.records.Priority(date)
	if err != nil {
		handleServiceError(c, err, "分析任务优先级失败")
		return
	}

	c.JSON(http.StatusOK, report)
}

func dailyRecordToPayload(record db.DailyRecord) gin.H {
	habitRecords := make([]gin.H, 0, len(record.HabitRecords))
	for _, rec := range record.HabitRecords {
		habitRecords = append(habitRecords, gin.H{
			"habit_id": rec.HabitID,
			"minutes":  rec.Minutes,
			"quality":  rec.Quality,
		})
	}

	tasks := make([]gin.H, 0, len(record.Tasks))
	for _, task := range record.Tasks {
		item := gin.H{
			"title":             task.Title,
			"priority":          task.Priority,
			"completed":         task.Completed,
			"estimated_minutes": task.EstimatedMinutes,
			"actual_minutes":    task.ActualMinutes,
		}
		if task.HabitID != nil {
			item["habit_id"] = *task.HabitID
		}
		tasks = append(tasks, item)
	}

	return gin.H{
		"id":            record.PublicID,
		"date":          record.Date.Format(dateFormat),
		"habit_records": habitRecords,
		"tasks":         tasks,
		"pillars": gin.H{
			"deliverables": record.Deliverables,
			"skills":       record.Skills,
			"culture":      record.Culture,
		},
		"scores": gin.H{
			"base_score":       record.BaseScore,
			"efficiency_bonus": record.EfficiencyBonus,
			"priority_bonus":   record.PriorityBonus,
			"q2_focus_bonus":   record.Q2FocusBonus,
			"strategic_bonus":  record.StrategicBonus,
			"revolut_score":    record.RevolutScore,
			"total_kpi":        record.TotalKPI,
		},
		"exception": record.Exception,
		"note":      record.Note,
	}
}
