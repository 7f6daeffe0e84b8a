package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/service"
	"github.com/dailykpi/internal/ui"
)

func newHabitsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			habits, err := service.NewHabitService(gdb).List(service.HabitFilter{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(habits) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("no habits yet, add one with `kpictl habits add`"))
				return nil
			}
			for _, habit := range habits {
				status := ""
				if habit.Status != "active" {
					status = " " + ui.Muted.Render("("+habit.Status+")")
				}
				fmt.Fprintf(out, "#%d %s %s %s%s\n", habit.ID, ui.Key.Render(habit.Name), habit.Quadrant,
					ui.Muted.Render(fmt.Sprintf("%d min", habit.TargetMinutes)), status)
			}
			return nil
		},
	}

	cmd.AddCommand(newHabitAddCmd(opts))
	return cmd
}

func newHabitAddCmd(opts *rootOptions) *cobra.Command {
	var input service.HabitInput

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Name = args[0]

			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			habit, err := service.NewHabitService(gdb).Create(input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("added habit #%d %s", habit.ID, habit.Name)))
			return nil
		},
	}

	cmd.Flags().IntVar(&input.TargetMinutes, "target", 30, "daily target minutes (0 for none)")
	cmd.Flags().StringVar(&input.Quadrant, "quadrant", "Q2", "Eisenhower quadrant Q1-Q4")
	cmd.Flags().StringVar(&input.Category, "category", "", "category")
	cmd.Flags().IntVar(&input.SkillLevel, "skill", 0, "skill level")
	cmd.Flags().BoolVar(&input.WeekdayOnly, "weekday-only", false, "only expected on weekdays")
	return cmd
}
