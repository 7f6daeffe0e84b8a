package db

import "gorm.io/gorm"

// Habit 定义了习惯模型
// TargetMinutes 为每日目标分钟数，0 表示不设目标
// Category 用于统计/筛选；Quadrant 为艾森豪威尔象限标签 Q1-Q4
// WeekdayOnly 表示只在工作日执行
// Status 仅使用 active/inactive 控制后台展示
type Habit struct {
	gorm.Model
	Name          string `gorm:"not null"`
	Description   string
	TargetMinutes int
	Category      string `gorm:"index"`
	SkillLevel    int
	Quadrant      string `gorm:"size:2"`
	WeekdayOnly   bool
	Status        string
}

// HabitRecord 记录某个习惯在某一天的投入
// DailyRecord + Habit 采用唯一索引，同一天同一习惯只保留一条
type HabitRecord struct {
	gorm.Model
	DailyRecordID uint  `gorm:"index;index:idx_habit_record_unique,unique"`
	HabitID       uint  `gorm:"index:idx_habit_record_unique,unique"`
	Habit         Habit `gorm:"constraint:OnDelete:CASCADE"`
	Minutes       int
	Quality       int
}

// TableName 重写确保唯一索引作用到 daily_record_id + habit_id
func (HabitRecord) TableName() string {
	return "habit_records"
}
