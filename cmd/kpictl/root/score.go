package root

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
	"github.com/dailykpi/internal/ui"
)

type habitRecordJSON struct {
	HabitID uint `json:"habit_id"`
	Minutes int  `json:"minutes"`
	Quality int  `json:"quality"`
}

type taskJSON struct {
	Title            string `json:"title"`
	Priority         string `json:"priority"`
	Completed        bool   `json:"completed"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	ActualMinutes    int    `json:"actual_minutes"`
	HabitID          uint   `json:"habit_id"`
}

// dayFile 与 PUT /api/days/:date 的请求体一致
type dayFile struct {
	Date         string              `json:"date"`
	HabitRecords []habitRecordJSON   `json:"habit_records"`
	Tasks        []taskJSON          `json:"tasks"`
	Pillars      engine.PillarScores `json:"pillars"`
	Exception    string              `json:"exception"`
	Note         string              `json:"note"`
}

func (f dayFile) toInput() service.DailyRecordInput {
	input := service.DailyRecordInput{
		Pillars:   f.Pillars,
		Exception: f.Exception,
		Note:      f.Note,
	}
	for _, rec := range f.HabitRecords {
		input.HabitRecords = append(input.HabitRecords, service.HabitRecordInput{HabitID: rec.HabitID, Minutes: rec.Minutes, Quality: rec.Quality})
	}
	for _, task := range f.Tasks {
		input.Tasks = append(input.Tasks, service.TaskInput{
			Title:            task.Title,
			Priority:         task.Priority,
			Completed:        task.Completed,
			EstimatedMinutes: task.EstimatedMinutes,
			ActualMinutes:    task.ActualMinutes,
			HabitID:          task.HabitID,
		})
	}
	return input
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var file, date string
	var save bool

	cmd := &cobra.Command{
		Use:   "score --file day.json",
		Short: "Score a day from a JSON file (use - for stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}

			var reader io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				reader = f
			}

			var day dayFile
			if err := json.NewDecoder(reader).Decode(&day); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}

			if date == "" {
				date = day.Date
			}
			when, err := parseDateFlag("date", date, today())
			if err != nil {
				return err
			}
			input := day.toInput()
			input.Date = when

			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			records := service.NewDailyRecordService(gdb)
			var breakdown *engine.KPIBreakdown
			if save {
				_, breakdown, err = records.Save(input)
			} else {
				breakdown, err = records.Preview(input)
			}
			if err != nil {
				var verr *engine.ValidationError
				if errors.As(err, &verr) {
					for _, field := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "- %s %s\n", ui.Bad.Render(field.Field), field.Message)
					}
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTarget, "KPI breakdown for "+when.Format(dateFormat)))
			fmt.Fprintln(out, ui.LabelValue("Base score", fmt.Sprintf("%.2f / %.0f", breakdown.BaseScore, engine.BaseScoreMax)))
			fmt.Fprintln(out, ui.LabelValue("Efficiency bonus", fmt.Sprintf("%.2f / %.0f", breakdown.EfficiencyBonus, engine.EfficiencyBonusMax)))
			fmt.Fprintln(out, ui.LabelValue("Priority bonus", fmt.Sprintf("%.2f", breakdown.PriorityBonus)))
			fmt.Fprintln(out, ui.LabelValue("Q2 focus bonus", fmt.Sprintf("%.2f", breakdown.Q2FocusBonus)))
			fmt.Fprintln(out, ui.LabelValue("Strategic bonus", fmt.Sprintf("%.2f", breakdown.StrategicBonus)))
			fmt.Fprintln(out, ui.LabelValue("Revolut score", fmt.Sprintf("%.2f", breakdown.RevolutScore)))
			if breakdown.RawTotal != breakdown.TotalKPI {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("raw total %.2f clamped to [%.0f, %.0f]", breakdown.RawTotal, engine.MinKPI, engine.MaxKPI)))
			}
			fmt.Fprintln(out, ui.LabelValue("Total KPI", ui.KPI(breakdown.TotalKPI)))
			if save {
				fmt.Fprintln(out, ui.Good.Render("saved"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with habit_records, tasks and pillars")
	cmd.Flags().StringVar(&date, "date", "", "day to score (YYYY-MM-DD, default: date in file or today)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the day after scoring")
	return cmd
}
