package engine

// 评分与分析使用的固定参数，统一在此维护，测试与实现共享同一份取值。
const (
	// MaxTasksPerDay 每日任务上限
	MaxTasksPerDay = 5

	HighPriorityBonus   = 20.0
	MediumPriorityBonus = 10.0
	LowPriorityBonus    = 0.0

	// StrategicBonusPerTask 每个完成的高优先级战略任务的加分
	StrategicBonusPerTask = 10.0

	// Q2 专注加分：占比权重 + 完成度权重
	Q2ProportionWeight = 10.0
	Q2CompletionWeight = 15.0

	// TargetQ2Focus Q2 时间占比目标（百分比）
	TargetQ2Focus        = 60.0
	ExcellentQ2Focus     = 50.0
	Q1DominanceThreshold = 40.0
	Q4WasteThreshold     = 20.0

	MinQuality     = 1
	MaxQuality     = 5
	MinPillarScore = 0.0
	MaxPillarScore = 100.0

	BaseScoreMax       = 50.0
	EfficiencyBonusMax = 20.0

	DeliverablesWeight = 0.40
	SkillsWeight       = 0.35
	CultureWeight      = 0.25
	// RevolutScale 将 0-100 的支柱加权分缩放到 0-30
	RevolutScale = 0.30

	MinKPI = 0.0
	MaxKPI = 150.0

	// TrendNoiseThreshold 低于该变化幅度（%）视为稳定
	TrendNoiseThreshold    = 5.0
	SignificantTrendChange = 10.0

	LowConsistencyThreshold  = 50.0
	HighConsistencyThreshold = 80.0
	MinAcceptableKPI         = 80.0

	ForecastMaxGrowthRate      = 0.10
	ForecastCycleDays          = 30
	ForecastFullConfidenceDays = 30
	ForecastMaxConfidence      = 95.0

	// 周期对比的噪声带，正负方向对称
	KPINoiseBand        = 10.0
	HoursNoiseBand      = 5.0
	CompletionNoiseBand = 10.0

	TopHabitsLimit = 5
)

// StrategicKeywords 标题中出现这些词（忽略大小写）的高优先级任务视为战略任务
var StrategicKeywords = []string{
	"english",
	"language",
	"spanish",
	"german",
	"learning",
	"business plan",
	"business",
	"strategy",
	"strategic",
	"planning",
	"investment",
	"startup",
}
