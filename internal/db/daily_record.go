package db

import (
	"time"

	"gorm.io/gorm"
)

// DailyRecord 每个自然日一条，保存支柱评分与 KPI 计算结果
// Date 唯一；PublicID 为对外暴露的 uuid
// Exception 非空表示例外日（生病、出差等），统计时不计入完成天数
type DailyRecord struct {
	gorm.Model
	PublicID        string    `gorm:"size:36;uniqueIndex"`
	Date            time.Time `gorm:"uniqueIndex;not null"`
	Deliverables    float64
	Skills          float64
	Culture         float64
	BaseScore       float64
	EfficiencyBonus float64
	PriorityBonus   float64
	Q2FocusBonus    float64
	StrategicBonus  float64
	RevolutScore    float64
	TotalKPI        float64 `gorm:"index"`
	Exception       string
	Note            string        `gorm:"type:text"`
	HabitRecords    []HabitRecord `gorm:"constraint:OnDelete:CASCADE"`
	Tasks           []Task        `gorm:"constraint:OnDelete:CASCADE"`
}

// Task 当天的任务，Position 保存录入顺序
type Task struct {
	gorm.Model
	DailyRecordID    uint `gorm:"index"`
	HabitID          *uint
	Title            string `gorm:"not null"`
	Priority         string `gorm:"size:10"`
	Completed        bool
	EstimatedMinutes int
	ActualMinutes    int
	Position         int
}
