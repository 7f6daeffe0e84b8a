package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/engine"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDailyRecordNotFound 指定日期没有记录时返回
	ErrDailyRecordNotFound = errors.New("daily record not found")
	// ErrInvalidRange 结束日期早于开始日期时返回
	ErrInvalidRange = errors.New("invalid range: end before start")
)

// DailyRecordService 负责单日记录的评分与持久化
// 评分全部交给 engine，服务只负责加载习惯与写库
type DailyRecordService struct {
	db     *gorm.DB
	habits *HabitService
}

// HabitRecordInput 单个习惯当天的投入
type HabitRecordInput struct {
	HabitID uint
	Minutes int
	Quality int
}

// TaskInput 当天任务
type TaskInput struct {
	Title            string
	Priority         string
	Completed        bool
	EstimatedMinutes int
	ActualMinutes    int
	HabitID          uint
}

// DailyRecordInput 保存或预览单日记录的输入
type DailyRecordInput struct {
	Date         time.Time
	HabitRecords []HabitRecordInput
	Tasks        []TaskInput
	Pillars      engine.PillarScores
	Exception    string
	Note         string
}

// PriorityReport 单日任务的优先级分析
type PriorityReport struct {
	Date            time.Time                      `json:"date"`
	Classification  engine.Classification          `json:"classification"`
	Distribution    engine.TimeDistribution        `json:"distribution"`
	TaskLimit       engine.TaskLimitResult         `json:"task_limit"`
	Recommendations engine.PriorityRecommendations `json:"recommendations"`
	SortedTasks     []engine.Task                  `json:"sorted_tasks"`
	PriorityBonus   float64                        `json:"priority_bonus"`
	Q2FocusBonus    float64                        `json:"q2_focus_bonus"`
	StrategicBonus  float64                        `json:"strategic_bonus"`
}

// NewDailyRecordService 构造 DailyRecordService
func NewDailyRecordService(gdb *gorm.DB) *DailyRecordService {
	return &DailyRecordService{db: gdb, habits: NewHabitService(gdb)}
}

// Preview 只计算 KPI，不写库
func (s *DailyRecordService) Preview(input DailyRecordInput) (*engine.KPIBreakdown, error) {
	day, err := s.buildDayInput(input)
	if err != nil {
		return nil, err
	}

	breakdown, err := engine.CalculateKPI(day)
	if err != nil {
		return nil, fmt.Errorf("score daily record: %w", err)
	}
	return &breakdown, nil
}

// Save 评分并按日期幂等写入：已存在则覆盖当天的习惯记录与任务。
// 校验失败时不写入任何数据。
func (s *DailyRecordService) Save(input DailyRecordInput) (*db.DailyRecord, *engine.KPIBreakdown, error) {
	if input.Date.IsZero() {
		return nil, nil, &engine.ValidationError{Fields: []engine.FieldError{{Field: "date", Message: "is required"}}}
	}

	breakdown, err := s.Preview(input)
	if err != nil {
		return nil, nil, err
	}

	date := normalizeToDate(input.Date)
	var saved db.DailyRecord

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		lookup := tx.Where("date = ?", date).First(&saved)
		switch {
		case errors.Is(lookup.Error, gorm.ErrRecordNotFound):
			saved = db.DailyRecord{PublicID: uuid.NewString(), Date: date}
		case lookup.Error != nil:
			return lookup.Error
		default:
			if err := tx.Unscoped().Where("daily_record_id = ?", saved.ID).Delete(&db.HabitRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("daily_record_id = ?", saved.ID).Delete(&db.Task{}).Error; err != nil {
				return err
			}
		}

		saved.Deliverables = input.Pillars.Deliverables
		saved.Skills = input.Pillars.Skills
		saved.Culture = input.Pillars.Culture
		saved.BaseScore = breakdown.BaseScore
		saved.EfficiencyBonus = breakdown.EfficiencyBonus
		saved.PriorityBonus = breakdown.PriorityBonus
		saved.Q2FocusBonus = breakdown.Q2FocusBonus
		saved.StrategicBonus = breakdown.StrategicBonus
		saved.RevolutScore = breakdown.RevolutScore
		saved.TotalKPI = breakdown.TotalKPI
		saved.Exception = strings.TrimSpace(input.Exception)
		saved.Note = strings.TrimSpace(input.Note)
		saved.HabitRecords = nil
		saved.Tasks = nil

		if err := tx.Save(&saved).Error; err != nil {
			return err
		}

		if len(input.HabitRecords) > 0 {
			records := make([]db.HabitRecord, 0, len(input.HabitRecords))
			for _, rec := range input.HabitRecords {
				records = append(records, db.HabitRecord{
					DailyRecordID: saved.ID,
					HabitID:       rec.HabitID,
					Minutes:       rec.Minutes,
					Quality:       rec.Quality,
				})
			}
			if err := tx.Omit("Habit").Create(&records).Error; err != nil {
				return err
			}
		}

		if len(input.Tasks) > 0 {
			tasks := make([]db.Task, 0, len(input.Tasks))
			for i, task := range input.Tasks {
				item := db.Task{
					DailyRecordID:    saved.ID,
					Title:            strings.TrimSpace(task.Title),
					Priority:         strings.ToLower(strings.TrimSpace(task.Priority)),
					Completed:        task.Completed,
					EstimatedMinutes: task.EstimatedMinutes,
					ActualMinutes:    task.ActualMinutes,
					Position:         i,
				}
				if task.HabitID != 0 {
					habitID := task.HabitID
					item.HabitID = &habitID
				}
				tasks = append(tasks, item)
			}
			if err := tx.Create(&tasks).Error; err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("save daily record: %w", err)
	}

	record, err := s.Get(date)
	if err != nil {
		return nil, nil, err
	}
	return record, breakdown, nil
}

// Get 返回指定日期的记录（含习惯记录与任务）
func (s *DailyRecordService) Get(date time.Time) (*db.DailyRecord, error) {
	var record db.DailyRecord
	if err := s.preload(s.db).Where("date = ?", normalizeToDate(date)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDailyRecordNotFound
		}
		return nil, fmt.Errorf("get daily record: %w", err)
	}
	return &record, nil
}

// ListBetween 返回区间内按日期升序排列的记录
func (s *DailyRecordService) ListBetween(start, end time.Time) ([]db.DailyRecord, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	var records []db.DailyRecord
	if err := s.preload(s.db).
		Where("date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	return records, nil
}

// Delete 彻底删除某天的记录及其子记录，便于同一天重新录入
func (s *DailyRecordService) Delete(date time.Time) error {
	record, err := s.Get(date)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("daily_record_id = ?", record.ID).Delete(&db.HabitRecord{}).Error; err != nil {
			return fmt.Errorf("delete habit records: %w", err)
		}
		if err := tx.Unscoped().Where("daily_record_id = ?", record.ID).Delete(&db.Task{}).Error; err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.DailyRecord{}, record.ID).Error; err != nil {
			return fmt.Errorf("delete daily record: %w", err)
		}
		return nil
	})
}

// Priority 对已保存的某天任务做艾森豪威尔分析
func (s *DailyRecordService) Priority(date time.Time) (*PriorityReport, error) {
	record, err := s.Get(date)
	if err != nil {
		return nil, err
	}

	habits, err := s.habits.ListByIDs(referencedHabitIDs(*record))
	if err != nil {
		return nil, err
	}

	tasks := toEngineTasks(record.Tasks)
	engineHabits := toEngineHabits(habits)

	return &PriorityReport{
		Date:            record.Date,
		Classification:  engine.ClassifyByEisenhowerMatrix(tasks, engineHabits),
		Distribution:    engine.AnalyzeTimeDistribution(tasks, engineHabits),
		TaskLimit:       engine.ValidateTaskLimits(tasks),
		Recommendations: engine.GeneratePriorityRecommendations(tasks, engineHabits),
		SortedTasks:     engine.SortTasksByPriority(tasks, engineHabits),
		PriorityBonus:   engine.CalculatePriorityBonus(tasks),
		Q2FocusBonus:    engine.CalculateQ2FocusBonus(tasks, engineHabits),
		StrategicBonus:  engine.CalculateStrategicBonus(tasks),
	}, nil
}

func (s *DailyRecordService) preload(query *gorm.DB) *gorm.DB {
	return query.
		Preload("HabitRecords", func(tx *gorm.DB) *gorm.DB { return tx.Order("habit_id ASC") }).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

func (s *DailyRecordService) buildDayInput(input DailyRecordInput) (engine.DayInput, error) {
	ids := make(map[uint]struct{})
	records := make([]engine.HabitRecord, 0, len(input.HabitRecords))
	for _, rec := range input.HabitRecords {
		ids[rec.HabitID] = struct{}{}
		records = append(records, engine.HabitRecord{HabitID: rec.HabitID, Minutes: rec.Minutes, Quality: rec.Quality})
	}

	tasks := make([]engine.Task, 0, len(input.Tasks))
	for _, task := range input.Tasks {
		if task.HabitID != 0 {
			ids[task.HabitID] = struct{}{}
		}
		tasks = append(tasks, engine.Task{
			Title:            task.Title,
			Priority:         engine.Priority(strings.ToLower(strings.TrimSpace(task.Priority))),
			Completed:        task.Completed,
			EstimatedMinutes: task.EstimatedMinutes,
			ActualMinutes:    task.ActualMinutes,
			HabitID:          task.HabitID,
		})
	}

	habits, err := s.habits.ListByIDs(sortedIDs(ids))
	if err != nil {
		return engine.DayInput{}, err
	}

	return engine.DayInput{
		HabitRecords: records,
		Tasks:        tasks,
		Habits:       toEngineHabits(habits),
		Pillars:      input.Pillars,
	}, nil
}

// ToEngineRecord 将存储模型转换为引擎使用的日记录
func ToEngineRecord(record db.DailyRecord) engine.DailyRecord {
	habitRecords := make([]engine.HabitRecord, 0, len(record.HabitRecords))
	for _, rec := range record.HabitRecords {
		habitRecords = append(habitRecords, engine.HabitRecord{HabitID: rec.HabitID, Minutes: rec.Minutes, Quality: rec.Quality})
	}

	return engine.DailyRecord{
		Date:         record.Date,
		HabitRecords: habitRecords,
		Tasks:        toEngineTasks(record.Tasks),
		Pillars: engine.PillarScores{
			Deliverables: record.Deliverables,
			Skills:       record.Skills,
			Culture:      record.Culture,
		},
		TotalKPI:  record.TotalKPI,
		Exception: record.Exception,
	}
}

func toEngineTasks(tasks []db.Task) []engine.Task {
	out := make([]engine.Task, 0, len(tasks))
	for _, task := range tasks {
		item := engine.Task{
			Title:            task.Title,
			Priority:         engine.Priority(task.Priority),
			Completed:        task.Completed,
			EstimatedMinutes: task.EstimatedMinutes,
			ActualMinutes:    task.ActualMinutes,
		}
		if task.HabitID != nil {
			item.HabitID = *task.HabitID
		}
		out = append(out, item)
	}
	return out
}

func referencedHabitIDs(record db.DailyRecord) []uint {
	ids := make(map[uint]struct{})
	for _, rec := range record.HabitRecords {
		ids[rec.HabitID] = struct{}{}
	}
	for _, task := range record.Tasks {
		if task.HabitID != nil {
			ids[*task.HabitID] = struct{}{}
		}
	}
	return sortedIDs(ids)
}

func sortedIDs(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
