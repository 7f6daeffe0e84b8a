// Package engine 实现每日 KPI 评分、艾森豪威尔优先级分类以及历史趋势分析。
// 包内全部是纯函数：不访问数据库、不做网络请求，也不持有任何可变状态，
// 调用方负责提供已经按日期排好序的内存数据。
package engine

import "time"

// Priority 任务优先级
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid 判断是否为已知的三个优先级之一
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Quadrant 艾森豪威尔象限
type Quadrant string

const (
	Q1 Quadrant = "Q1" // 紧急且重要
	Q2 Quadrant = "Q2" // 重要不紧急
	Q3 Quadrant = "Q3" // 紧急不重要
	Q4 Quadrant = "Q4" // 既不紧急也不重要
)

// Quadrants 按排序顺序列出全部象限
var Quadrants = []Quadrant{Q1, Q2, Q3, Q4}

// Valid 判断象限标签是否合法
func (q Quadrant) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	default:
		return false
	}
}

func (q Quadrant) rank() int {
	switch q {
	case Q1:
		return 0
	case Q2:
		return 1
	case Q3:
		return 2
	default:
		return 3
	}
}

// Habit 用户的习惯定义，对引擎只读
type Habit struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	TargetMinutes int      `json:"target_minutes"`
	Category      string   `json:"category"`
	SkillLevel    int      `json:"skill_level"`
	Quadrant      Quadrant `json:"quadrant"`
	WeekdayOnly   bool     `json:"weekday_only"`
}

// HabitRecord 某个习惯在某一天的一次记录
type HabitRecord struct {
	HabitID uint `json:"habit_id"`
	Minutes int  `json:"minutes"`
	Quality int  `json:"quality"`
}

// Task 当天的一项任务。HabitID 非零时表示任务归属于某个习惯，
// 此时以习惯的象限标签为准。
type Task struct {
	Title            string   `json:"title"`
	Priority         Priority `json:"priority"`
	Completed        bool     `json:"completed"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	ActualMinutes    int      `json:"actual_minutes"`
	HabitID          uint     `json:"habit_id,omitempty"`
}

// Minutes 返回任务耗时：优先实际耗时，其次预估耗时，否则为 0
func (t Task) Minutes() int {
	if t.ActualMinutes > 0 {
		return t.ActualMinutes
	}
	if t.EstimatedMinutes > 0 {
		return t.EstimatedMinutes
	}
	return 0
}

// PillarScores 三项 0-100 的定性评分
type PillarScores struct {
	Deliverables float64 `json:"deliverables"`
	Skills       float64 `json:"skills"`
	Culture      float64 `json:"culture"`
}

// DailyRecord 一天的完整记录。Exception 标记请假、出差等例外日，
// 引擎本身不区分例外日。
type DailyRecord struct {
	Date         time.Time     `json:"date"`
	HabitRecords []HabitRecord `json:"habit_records"`
	Tasks        []Task        `json:"tasks"`
	Pillars      PillarScores  `json:"pillars"`
	TotalKPI     float64       `json:"total_kpi"`
	Exception    string        `json:"exception,omitempty"`
}

// TotalMinutes 汇总当天所有习惯记录的分钟数
func (r DailyRecord) TotalMinutes() int {
	total := 0
	for _, rec := range r.HabitRecords {
		total += rec.Minutes
	}
	return total
}

// TrendDirection 趋势方向
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendResult 序列趋势判定结果，Percentage 为变化幅度的绝对值
type TrendResult struct {
	Trend      TrendDirection `json:"trend"`
	Percentage float64        `json:"percentage"`
}

// TrendAnalysis 单个习惯的近期表现
type TrendAnalysis struct {
	HabitID        uint           `json:"habit_id"`
	HabitName      string         `json:"habit_name"`
	Trend          TrendDirection `json:"trend"`
	Percentage     float64        `json:"percentage"`
	AverageMinutes float64        `json:"average_minutes"`
	Consistency    float64        `json:"consistency"`
	Recommendation string         `json:"recommendation"`
}

// ForecastPeriod 预测周期
type ForecastPeriod string

const (
	PeriodMonth ForecastPeriod = "month"
	PeriodYear  ForecastPeriod = "year"
)

// ForecastData 复利增长预测结果
type ForecastData struct {
	Period         ForecastPeriod `json:"period"`
	PredictedKPI   float64        `json:"predicted_kpi"`
	PredictedHours float64        `json:"predicted_hours"`
	Confidence     float64        `json:"confidence"`
	GrowthRate     float64        `json:"growth_rate"`
	BasedOnDays    int            `json:"based_on_days"`
	Trend          TrendDirection `json:"trend"`
}

// RecommendationType 个性化建议类别
type RecommendationType string

const (
	RecommendationHabitFocus         RecommendationType = "habit_focus"
	RecommendationTimeOptimization   RecommendationType = "time_optimization"
	RecommendationPriorityAdjustment RecommendationType = "priority_adjustment"
	RecommendationGoalSetting        RecommendationType = "goal_setting"
)

// RecommendationPriority 建议优先级
type RecommendationPriority string

const (
	RecommendationHigh   RecommendationPriority = "high"
	RecommendationMedium RecommendationPriority = "medium"
	RecommendationLow    RecommendationPriority = "low"
)

func (p RecommendationPriority) rank() int {
	switch p {
	case RecommendationHigh:
		return 0
	case RecommendationMedium:
		return 1
	default:
		return 2
	}
}

// PersonalizedRecommendation 排序后的可执行建议
type PersonalizedRecommendation struct {
	Type        RecommendationType     `json:"type"`
	Priority    RecommendationPriority `json:"priority"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ActionItems []string               `json:"action_items"`
	HabitID     uint                   `json:"habit_id,omitempty"`
}

func indexHabits(habits []Habit) map[uint]Habit {
	index := make(map[uint]Habit, len(habits))
	for _, habit := range habits {
		index[habit.ID] = habit
	}
	return index
}
