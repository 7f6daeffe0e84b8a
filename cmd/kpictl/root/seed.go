package root

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
	"github.com/dailykpi/internal/ui"
)

var demoHabits = []service.HabitInput{
	{Name: "English practice", TargetMinutes: 30, Category: "learning", Quadrant: "Q2"},
	{Name: "Deep work", TargetMinutes: 120, Category: "work", Quadrant: "Q2"},
	{Name: "Workout", TargetMinutes: 45, Category: "health", Quadrant: "Q2"},
	{Name: "Inbox triage", TargetMinutes: 20, Category: "work", Quadrant: "Q3"},
}

var demoTasks = []struct {
	title    string
	priority string
}{
	{"Fix production incident", "high"},
	{"Business plan draft", "high"},
	{"Code review", "medium"},
	{"Learning Go concurrency", "medium"},
	{"Update wiki", "low"},
	{"Team sync notes", "low"},
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var days int
	var seed uint64
	var end string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated demo days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			last, err := parseDateFlag("end", end, today())
			if err != nil {
				return err
			}

			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			habits, err := ensureDemoHabits(service.NewHabitService(gdb))
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			records := service.NewDailyRecordService(gdb)
			first := last.AddDate(0, 0, -(days - 1))

			total := 0.0
			for i := 0; i < days; i++ {
				input := demoDay(rng, habits, i, days)
				input.Date = first.AddDate(0, 0, i)
				_, breakdown, err := records.Save(input)
				if err != nil {
					return fmt.Errorf("seed %s: %w", input.Date.Format(dateFormat), err)
				}
				total += breakdown.TotalKPI
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSeed, fmt.Sprintf("seeded %d days (%s ~ %s)", days, first.Format(dateFormat), last.Format(dateFormat))))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Average KPI", ui.KPI(total/float64(days))))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of days to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&end, "end", "", "last generated day (YYYY-MM-DD, default today)")
	return cmd
}

func ensureDemoHabits(svc *service.HabitService) ([]db.Habit, error) {
	existing, err := svc.List(service.HabitFilter{Status: "active"})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	habits := make([]db.Habit, 0, len(demoHabits))
	for _, input := range demoHabits {
		habit, err := svc.Create(input)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *habit)
	}
	return habits, nil
}

// demoDay 生成一天的数据，越靠后的日子投入越多，形成上升趋势
func demoDay(rng *rand.Rand, habits []db.Habit, index, days int) service.DailyRecordInput {
	progress := float64(index+1) / float64(days)

	input := service.DailyRecordInput{
		Pillars: engine.PillarScores{
			Deliverables: float64(50 + rng.IntN(40)),
			Skills:       float64(40 + rng.IntN(40)),
			Culture:      float64(60 + rng.IntN(30)),
		},
	}

	for _, habit := range habits {
		if rng.Float64() < 0.2 {
			continue
		}
		target := habit.TargetMinutes
		if target == 0 {
			target = 30
		}
		minutes := int(float64(target) * (0.5 + 0.6*progress) * (0.8 + 0.4*rng.Float64()))
		input.HabitRecords = append(input.HabitRecords, service.HabitRecordInput{
			HabitID: habit.ID,
			Minutes: minutes,
			Quality: engine.MinQuality + rng.IntN(engine.MaxQuality-engine.MinQuality+1),
		})
	}

	count := 2 + rng.IntN(engine.MaxTasksPerDay-1)
	for _, pick := range rng.Perm(len(demoTasks))[:count] {
		task := demoTasks[pick]
		input.Tasks = append(input.Tasks, service.TaskInput{
			Title:            task.title,
			Priority:         task.priority,
			Completed:        rng.Float64() < 0.5+0.4*progress,
			EstimatedMinutes: 30 + 15*rng.IntN(5),
		})
	}

	return input
}
