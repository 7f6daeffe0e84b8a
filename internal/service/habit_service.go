package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/engine"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidQuadrant 当象限标签不是 Q1-Q4 时返回
	ErrHabitInvalidQuadrant = errors.New("invalid habit quadrant")
	// ErrHabitInvalidInput 名称、目标时长等字段不合法时返回
	ErrHabitInvalidInput = errors.New("invalid habit input")
)

// HabitService 负责 Habit 数据的增删改查
// Quadrant 缺省为 Q2；Status 仅使用 active/inactive，默认 active
type HabitService struct {
	db *gorm.DB
}

// HabitFilter 描述列表过滤条件
type HabitFilter struct {
	Status   string
	Category string
	Search   string
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name          string
	Description   string
	TargetMinutes int
	Category      string
	SkillLevel    int
	Quadrant      string
	WeekdayOnly   bool
	Status        string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，支持基本筛选
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Order("id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

// ListByIDs 按 ID 批量加载，不存在的 ID 会被忽略
func (s *HabitService) ListByIDs(ids []uint) ([]db.Habit, error) {
	var habits []db.Habit
	if len(ids) == 0 {
		return habits, nil
	}

	if err := s.db.Where("id IN ?", ids).Order("id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits by id: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}

	habit := db.Habit{}
	applyHabitInput(&habit, input)

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(id uint, input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}

	var existing db.Habit
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	applyHabitInput(&existing, input)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &existing, nil
}

// Delete 删除习惯
func (s *HabitService) Delete(id uint) error {
	if err := s.db.Delete(&db.Habit{}, id).Error; err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

func applyHabitInput(habit *db.Habit, input HabitInput) {
	habit.Name = strings.TrimSpace(input.Name)
	habit.Description = strings.TrimSpace(input.Description)
	habit.TargetMinutes = input.TargetMinutes
	habit.Category = strings.TrimSpace(input.Category)
	habit.SkillLevel = input.SkillLevel
	habit.Quadrant = normalizeQuadrant(input.Quadrant)
	habit.WeekdayOnly = input.WeekdayOnly
	habit.Status = normalizeStatus(input.Status)
}

func validateHabitInput(input HabitInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrHabitInvalidInput)
	}

	if input.TargetMinutes < 0 {
		return fmt.Errorf("%w: target minutes must not be negative", ErrHabitInvalidInput)
	}

	if input.SkillLevel < 0 {
		return fmt.Errorf("%w: skill level must not be negative", ErrHabitInvalidInput)
	}

	if !engine.Quadrant(normalizeQuadrant(input.Quadrant)).Valid() {
		return fmt.Errorf("%w: unsupported quadrant %s", ErrHabitInvalidQuadrant, input.Quadrant)
	}

	return nil
}

func normalizeQuadrant(quadrant string) string {
	quadrant = strings.TrimSpace(strings.ToUpper(quadrant))
	if quadrant == "" {
		return string(engine.Q2)
	}
	return quadrant
}

func normalizeStatus(status string) string {
	status = strings.TrimSpace(strings.ToLower(status))
	if status != "inactive" {
		return "active"
	}
	return "inactive"
}

// toEngineHabit 将存储模型转换为引擎使用的只读结构
func toEngineHabit(habit db.Habit) engine.Habit {
	return engine.Habit{
		ID:            habit.ID,
		Name:          habit.Name,
		TargetMinutes: habit.TargetMinutes,
		Category:      habit.Category,
		SkillLevel:    habit.SkillLevel,
		Quadrant:      engine.Quadrant(habit.Quadrant),
		WeekdayOnly:   habit.WeekdayOnly,
	}
}

func toEngineHabits(habits []db.Habit) []engine.Habit {
	out := make([]engine.Habit, 0, len(habits))
	for _, habit := range habits {
		out = append(out, toEngineHabit(habit))
	}
	return out
}
