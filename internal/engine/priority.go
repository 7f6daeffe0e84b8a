package engine

import (
	"fmt"
	"slices"
	"strings"
)

// QuadrantBucket 单个象限内的任务与习惯，保持输入顺序
type QuadrantBucket struct {
	Tasks  []Task  `json:"tasks"`
	Habits []Habit `json:"habits"`
}

// Classification 艾森豪威尔矩阵分类结果
type Classification struct {
	Q1 QuadrantBucket `json:"Q1"`
	Q2 QuadrantBucket `json:"Q2"`
	Q3 QuadrantBucket `json:"Q3"`
	Q4 QuadrantBucket `json:"Q4"`
}

// Bucket 返回指定象限的桶
func (c *Classification) Bucket(q Quadrant) *QuadrantBucket {
	switch q {
	case Q1:
		return &c.Q1
	case Q2:
		return &c.Q2
	case Q3:
		return &c.Q3
	default:
		return &c.Q4
	}
}

// QuadrantTime 象限内的任务数、分钟数与时间占比
type QuadrantTime struct {
	Tasks      int     `json:"tasks"`
	Minutes    int     `json:"minutes"`
	Percentage float64 `json:"percentage"`
}

// TimeDistribution 各象限的时间分布
type TimeDistribution struct {
	Q1           QuadrantTime `json:"Q1"`
	Q2           QuadrantTime `json:"Q2"`
	Q3           QuadrantTime `json:"Q3"`
	Q4           QuadrantTime `json:"Q4"`
	TotalMinutes int          `json:"total_minutes"`
}

// Quadrant 返回指定象限的时间统计
func (d *TimeDistribution) Quadrant(q Quadrant) *QuadrantTime {
	switch q {
	case Q1:
		return &d.Q1
	case Q2:
		return &d.Q2
	case Q3:
		return &d.Q3
	default:
		return &d.Q4
	}
}

// TaskLimitResult 任务数量校验结果
type TaskLimitResult struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// PriorityRecommendations 基于时间分布给出的优先级调整建议
type PriorityRecommendations struct {
	CurrentQ2Focus  float64  `json:"current_q2_focus"`
	TargetQ2Focus   float64  `json:"target_q2_focus"`
	Recommendations []string `json:"recommendations"`
	ActionItems     []string `json:"action_items"`
}

// QuadrantForPriority 任务优先级到象限的固定映射，Q3 只能来自习惯标签
func QuadrantForPriority(p Priority) Quadrant {
	switch p {
	case PriorityHigh:
		return Q1
	case PriorityMedium:
		return Q2
	default:
		return Q4
	}
}

// QuadrantForTask 关联习惯且习惯带有合法象限标签时以习惯为准
func QuadrantForTask(task Task, habits map[uint]Habit) Quadrant {
	if task.HabitID != 0 {
		if habit, ok := habits[task.HabitID]; ok && habit.Quadrant.Valid() {
			return habit.Quadrant
		}
	}
	return QuadrantForPriority(task.Priority)
}

// ClassifyByEisenhowerMatrix 将任务与习惯分入四个象限
func ClassifyByEisenhowerMatrix(tasks []Task, habits []Habit) Classification {
	index := indexHabits(habits)
	var result Classification

	for _, task := range tasks {
		bucket := result.Bucket(QuadrantForTask(task, index))
		bucket.Tasks = append(bucket.Tasks, task)
	}

	for _, habit := range habits {
		if !habit.Quadrant.Valid() {
			continue
		}
		bucket := result.Bucket(habit.Quadrant)
		bucket.Habits = append(bucket.Habits, habit)
	}

	return result
}

// CalculatePriorityBonus 只统计已完成任务：high 20，medium 10，low 0
func CalculatePriorityBonus(tasks []Task) float64 {
	bonus := 0.0
	for _, task := range tasks {
		if !task.Completed {
			continue
		}
		switch task.Priority {
		case PriorityHigh:
			bonus += HighPriorityBonus
		case PriorityMedium:
			bonus += MediumPriorityBonus
		case PriorityLow:
			bonus += LowPriorityBonus
		}
	}
	return bonus
}

// CalculateQ2FocusBonus 同时奖励 Q2 任务的占比与完成度
func CalculateQ2FocusBonus(tasks []Task, habits []Habit) float64 {
	if len(tasks) == 0 {
		return 0
	}

	index := indexHabits(habits)
	q2Count, q2Completed := 0, 0
	for _, task := range tasks {
		if QuadrantForTask(task, index) != Q2 {
			continue
		}
		q2Count++
		if task.Completed {
			q2Completed++
		}
	}

	if q2Count == 0 {
		return 0
	}

	share := float64(q2Count) / float64(len(tasks))
	completedShare := float64(q2Completed) / float64(q2Count)
	return share*Q2ProportionWeight + completedShare*Q2CompletionWeight
}

// AnalyzeTimeDistribution 统计各象限的任务耗时。总时长为 0 时所有占比为 0。
func AnalyzeTimeDistribution(tasks []Task, habits []Habit) TimeDistribution {
	index := indexHabits(habits)
	var dist TimeDistribution

	for _, task := range tasks {
		minutes := task.Minutes()
		slot := dist.Quadrant(QuadrantForTask(task, index))
		slot.Tasks++
		slot.Minutes += minutes
		dist.TotalMinutes += minutes
	}

	if dist.TotalMinutes > 0 {
		total := float64(dist.TotalMinutes)
		for _, q := range Quadrants {
			slot := dist.Quadrant(q)
			slot.Percentage = float64(slot.Minutes) / total * 100
		}
	}

	return dist
}

// IsStrategicTitle 标题是否包含战略关键词（忽略大小写）
func IsStrategicTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range StrategicKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// CalculateStrategicBonus 已完成的高优先级战略任务每个加 10 分
func CalculateStrategicBonus(tasks []Task) float64 {
	bonus := 0.0
	for _, task := range tasks {
		if task.Priority != PriorityHigh || !task.Completed {
			continue
		}
		if IsStrategicTitle(task.Title) {
			bonus += StrategicBonusPerTask
		}
	}
	return bonus
}

// ValidateTaskLimits 每天最多 5 个任务
func ValidateTaskLimits(tasks []Task) TaskLimitResult {
	if len(tasks) > MaxTasksPerDay {
		return TaskLimitResult{
			IsValid: false,
			Message: fmt.Sprintf("maximum %d tasks per day allowed, got %d; move the rest to another day or drop Q4 items", MaxTasksPerDay, len(tasks)),
		}
	}
	return TaskLimitResult{IsValid: true}
}

// SortTasksByPriority 按 Q1 < Q2 < Q3 < Q4 稳定排序，返回新切片，不修改输入
func SortTasksByPriority(tasks []Task, habits []Habit) []Task {
	index := indexHabits(habits)
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b Task) int {
		return QuadrantForTask(a, index).rank() - QuadrantForTask(b, index).rank()
	})
	return sorted
}

// GeneratePriorityRecommendations 根据当天时间分布给出调整建议，最需要处理的问题排在最前
func GeneratePriorityRecommendations(tasks []Task, habits []Habit) PriorityRecommendations {
	dist := AnalyzeTimeDistribution(tasks, habits)
	current := dist.Q2.Percentage

	result := PriorityRecommendations{
		CurrentQ2Focus:  current,
		TargetQ2Focus:   TargetQ2Focus,
		Recommendations: []string{},
		ActionItems:     []string{},
	}

	if dist.Q1.Percentage > Q1DominanceThreshold && dist.Q1.Percentage >= dist.Q2.Percentage {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("Reduce Q1 firefighting: %.1f%% of your time is urgent work. Plan ahead so fewer tasks become crises.", dist.Q1.Percentage))
		result.ActionItems = append(result.ActionItems,
			"Block 30 minutes each morning to plan the day before checking messages",
			"Identify recurring urgent tasks and schedule them earlier")
	}

	if current < TargetQ2Focus {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("Increase Q2 focus from %.1f%% toward the %.0f%% target: invest more time in important, non-urgent work.", current, TargetQ2Focus))
		result.ActionItems = append(result.ActionItems,
			"Schedule at least one medium-priority strategic task per day",
			"Protect a deep-work block for learning or planning")
	}

	if dist.Q4.Percentage > Q4WasteThreshold {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("Eliminate Q4 activities: %.1f%% of your time goes to work that is neither urgent nor important.", dist.Q4.Percentage))
		result.ActionItems = append(result.ActionItems, "Drop or batch low-priority tasks at the end of the day")
	}

	if current > ExcellentQ2Focus {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("Excellent Q2 focus: %.1f%% of your time goes to important, non-urgent work. Keep it up!", current))
	}

	return result
}
