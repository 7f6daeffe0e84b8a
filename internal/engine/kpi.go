package engine

import (
	"fmt"
	"math"
	"strings"
)

// DayInput 单日评分所需的全部输入
type DayInput struct {
	HabitRecords []HabitRecord `json:"habit_records"`
	Tasks        []Task        `json:"tasks"`
	Habits       []Habit       `json:"habits"`
	Pillars      PillarScores  `json:"pillars"`
}

// HabitEfficiency 单条习惯记录的效率系数
type HabitEfficiency struct {
	HabitID     uint    `json:"habit_id"`
	Ratio       float64 `json:"ratio"`
	Coefficient float64 `json:"coefficient"`
}

// KPIBreakdown 单日 KPI 的各组成部分
type KPIBreakdown struct {
	BaseScore              float64           `json:"base_score"`
	EfficiencyCoefficients []HabitEfficiency `json:"efficiency_coefficients"`
	EfficiencyBonus        float64           `json:"efficiency_bonus"`
	PriorityBonus          float64           `json:"priority_bonus"`
	Q2FocusBonus           float64           `json:"q2_focus_bonus"`
	StrategicBonus         float64           `json:"strategic_bonus"`
	RevolutScore           float64           `json:"revolut_score"`
	RawTotal               float64           `json:"raw_total"`
	TotalKPI               float64           `json:"total_kpi"`
}

// ValidateDayInput 在评分前检查取值范围与枚举，一次性返回全部错误
func ValidateDayInput(input DayInput) error {
	verr := &ValidationError{}
	index := indexHabits(input.Habits)

	for i, habit := range input.Habits {
		if habit.TargetMinutes < 0 {
			verr.add(fmt.Sprintf("habits[%d].target_minutes", i), "must not be negative, got %d", habit.TargetMinutes)
		}
	}

	seen := make(map[uint]struct{}, len(input.HabitRecords))
	for i, rec := range input.HabitRecords {
		if rec.Quality < MinQuality || rec.Quality > MaxQuality {
			verr.add(fmt.Sprintf("habit_records[%d].quality", i), "must be between %d and %d, got %d", MinQuality, MaxQuality, rec.Quality)
		}
		if rec.Minutes < 0 {
			verr.add(fmt.Sprintf("habit_records[%d].minutes", i), "must not be negative, got %d", rec.Minutes)
		}
		if _, ok := index[rec.HabitID]; !ok {
			verr.add(fmt.Sprintf("habit_records[%d].habit_id", i), "unknown habit %d", rec.HabitID)
		}
		if _, dup := seen[rec.HabitID]; dup {
			verr.add(fmt.Sprintf("habit_records[%d].habit_id", i), "duplicate habit %d", rec.HabitID)
		}
		seen[rec.HabitID] = struct{}{}
	}

	if limit := ValidateTaskLimits(input.Tasks); !limit.IsValid {
		verr.add("tasks", "%s", limit.Message)
	}

	for i, task := range input.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			verr.add(fmt.Sprintf("tasks[%d].title", i), "must not be empty")
		}
		if !task.Priority.Valid() {
			verr.add(fmt.Sprintf("tasks[%d].priority", i), "must be one of high, medium, low, got %q", task.Priority)
		}
		if task.EstimatedMinutes < 0 {
			verr.add(fmt.Sprintf("tasks[%d].estimated_minutes", i), "must not be negative, got %d", task.EstimatedMinutes)
		}
		if task.ActualMinutes < 0 {
			verr.add(fmt.Sprintf("tasks[%d].actual_minutes", i), "must not be negative, got %d", task.ActualMinutes)
		}
	}

	checkPillar(verr, "pillars.deliverables", input.Pillars.Deliverables)
	checkPillar(verr, "pillars.skills", input.Pillars.Skills)
	checkPillar(verr, "pillars.culture", input.Pillars.Culture)

	return verr.orNil()
}

func checkPillar(verr *ValidationError, field string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		verr.add(field, "must be a finite number")
		return
	}
	if value < MinPillarScore || value > MaxPillarScore {
		verr.add(field, "must be between %.0f and %.0f, got %g", MinPillarScore, MaxPillarScore, value)
	}
}

// CalculateKPI 校验输入后计算单日 KPI，结果限制在 [0, 150]。
// 校验失败时返回 *ValidationError，不返回部分结果。
func CalculateKPI(input DayInput) (KPIBreakdown, error) {
	if err := ValidateDayInput(input); err != nil {
		return KPIBreakdown{}, err
	}

	index := indexHabits(input.Habits)

	breakdown := KPIBreakdown{
		BaseScore:      CalculateBaseScore(input.HabitRecords, index),
		PriorityBonus:  CalculatePriorityBonus(input.Tasks),
		Q2FocusBonus:   CalculateQ2FocusBonus(input.Tasks, input.Habits),
		StrategicBonus: CalculateStrategicBonus(input.Tasks),
		RevolutScore:   CalculateRevolutScore(input.Pillars),
	}
	breakdown.EfficiencyCoefficients, breakdown.EfficiencyBonus = CalculateEfficiency(input.HabitRecords, index)

	breakdown.RawTotal = breakdown.BaseScore +
		breakdown.EfficiencyBonus +
		breakdown.PriorityBonus +
		breakdown.Q2FocusBonus +
		breakdown.StrategicBonus +
		breakdown.RevolutScore
	breakdown.TotalKPI = clamp(breakdown.RawTotal, MinKPI, MaxKPI)

	return breakdown, nil
}

// CalculateBaseScore 完成度（封顶 100%）乘以质量系数，取平均后放大到 BaseScoreMax
func CalculateBaseScore(records []HabitRecord, habits map[uint]Habit) float64 {
	if len(records) == 0 {
		return 0
	}

	sum := 0.0
	for _, rec := range records {
		completion := 0.0
		target := habits[rec.HabitID].TargetMinutes
		switch {
		case target > 0:
			completion = math.Min(float64(rec.Minutes)/float64(target), 1)
		case rec.Minutes > 0:
			completion = 1
		}
		sum += completion * float64(rec.Quality) / MaxQuality
	}

	return sum / float64(len(records)) * BaseScoreMax
}

// EfficiencyCoefficient 以目标的 100% 为峰值的三角曲线，0% 与 200% 处为 0
func EfficiencyCoefficient(ratio float64) float64 {
	return math.Max(0, 1-math.Abs(ratio-1))
}

// CalculateEfficiency 返回每条记录的效率系数以及平均系数换算出的加分
func CalculateEfficiency(records []HabitRecord, habits map[uint]Habit) ([]HabitEfficiency, float64) {
	coefficients := make([]HabitEfficiency, 0, len(records))
	if len(records) == 0 {
		return coefficients, 0
	}

	sum := 0.0
	for _, rec := range records {
		item := HabitEfficiency{HabitID: rec.HabitID, Ratio: 1, Coefficient: 1}
		if target := habits[rec.HabitID].TargetMinutes; target > 0 {
			item.Ratio = float64(rec.Minutes) / float64(target)
			item.Coefficient = EfficiencyCoefficient(item.Ratio)
		}
		coefficients = append(coefficients, item)
		sum += item.Coefficient
	}

	return coefficients, sum / float64(len(records)) * EfficiencyBonusMax
}

// CalculateRevolutScore 三项支柱分的加权和，缩放到 0-30
func CalculateRevolutScore(p PillarScores) float64 {
	weighted := p.Deliverables*DeliverablesWeight + p.Skills*SkillsWeight + p.Culture*CultureWeight
	return weighted * RevolutScale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
