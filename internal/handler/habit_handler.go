package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/service"
	"github.com/gin-gonic/gin"
)

type habitPayload struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	TargetMinutes int    `json:"target_minutes"`
	Category      string `json:"category"`
	SkillLevel    int    `json:"skill_level"`
	Quadrant      string `json:"quadrant"`
	WeekdayOnly   bool   `json:"weekday_only"`
	Status        string `json:"status"`
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	filter := service.HabitFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	habits, err := a.habits.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Create(input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	input, ok := a.parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Update(id, input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if err := a.habits.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *API) parseHabitInput(c *gin.Context) (service.HabitInput, bool) {
	var payload habitPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.HabitInput{}, false
		}
	} else {
		payload.Name = c.PostForm("name")
		payload.Description = c.PostForm("description")
		payload.Category = c.PostForm("category")
		payload.Quadrant = c.PostForm("quadrant")
		payload.Status = c.PostForm("status")
		payload.WeekdayOnly = c.PostForm("weekday_only") == "on" || c.PostForm("weekday_only") == "true"

		if raw := c.PostForm("target_minutes"); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "目标分钟数应为数字")
				return service.HabitInput{}, false
			}
			payload.TargetMinutes = val
		}
		if raw := c.PostForm("skill_level"); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "技能等级应为数字")
				return service.HabitInput{}, false
			}
			payload.SkillLevel = val
		}
	}

	return service.HabitInput{
		Name:          payload.Name,
		Description:   payload.Description,
		TargetMinutes: payload.TargetMinutes,
		Category:      payload.Category,
		SkillLevel:    payload.SkillLevel,
		Quadrant:      payload.Quadrant,
		WeekdayOnly:   payload.WeekdayOnly,
		Status:        payload.Status,
	}, true
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":             habit.ID,
		"name":           habit.Name,
		"description":    habit.Description,
		"target_minutes": habit.TargetMinutes,
		"category":       habit.Category,
		"skill_level":    habit.SkillLevel,
		"quadrant":       habit.Quadrant,
		"weekday_only":   habit.WeekdayOnly,
		"status":         habit.Status,
	}
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrHabitInvalidQuadrant):
		respondError(c, http.StatusBadRequest, "象限只支持 Q1-Q4")
	case errors.Is(err, service.ErrHabitInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		handleServiceError(c, err, "保存习惯失败")
	}
}
