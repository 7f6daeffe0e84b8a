package root

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/engine"
	"github.com/dailykpi/internal/service"
	"github.com/dailykpi/internal/ui"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var start, end, period string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize, forecast and recommend from recorded days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseDateFlag("end", end, today())
			if err != nil {
				return err
			}
			from, err := parseDateFlag("start", start, to.AddDate(0, 0, -(opts.windowDays-1)))
			if err != nil {
				return err
			}
			p := engine.ForecastPeriod(strings.ToLower(period))

			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			overview, err := service.NewAnalyticsService(gdb).Overview(from, to, p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if markdown {
				fmt.Fprint(out, service.BuildReportMarkdown(overview))
				return nil
			}

			fmt.Fprintln(out, ui.Heading(ui.IconChart, fmt.Sprintf("Analytics %s ~ %s", from.Format(dateFormat), to.Format(dateFormat))))
			summary := overview.Summary
			fmt.Fprintln(out, ui.LabelValue("Average KPI", ui.KPI(summary.AverageKPI)))
			fmt.Fprintln(out, ui.LabelValue("Total hours", fmt.Sprintf("%.1f", summary.TotalHours)))
			fmt.Fprintln(out, ui.LabelValue("Recorded days", fmt.Sprintf("%d / %d", summary.CompletedDays, summary.TotalDays)))
			if overview.ExceptionDays > 0 {
				fmt.Fprintln(out, ui.LabelValue("Exception days", overview.ExceptionDays))
			}
			fmt.Fprintln(out, "")

			if len(overview.Trends) > 0 {
				fmt.Fprintln(out, ui.H2.Render("Habit trends"))
				for _, trend := range overview.Trends {
					fmt.Fprintf(out, "- %s %s %s\n", ui.Key.Render(trend.HabitName), ui.Trend(string(trend.Trend)),
						ui.Muted.Render(fmt.Sprintf("(%.1f%%, avg %.0f min, consistency %.0f%%)", trend.Percentage, trend.AverageMinutes, trend.Consistency)))
				}
				fmt.Fprintln(out, "")
			}

			forecast := overview.Forecast
			fmt.Fprintln(out, ui.H2.Render("Forecast ("+string(forecast.Period)+")"))
			if forecast.BasedOnDays == 0 {
				fmt.Fprintln(out, ui.Muted.Render("not enough history"))
			} else {
				fmt.Fprintln(out, ui.LabelValue("Predicted KPI", ui.KPI(forecast.PredictedKPI)))
				fmt.Fprintln(out, ui.LabelValue("Predicted hours", fmt.Sprintf("%.1f", forecast.PredictedHours)))
				fmt.Fprintln(out, ui.LabelValue("Confidence", fmt.Sprintf("%.0f%% (%d days)", forecast.Confidence, forecast.BasedOnDays)))
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("Compared with previous period"))
			for _, insight := range overview.Comparison.Insights {
				fmt.Fprintf(out, "- %s\n", insight)
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("Recommendations"))
			if len(overview.Recommendations) == 0 {
				fmt.Fprintln(out, ui.Good.Render(ui.IconSparkle+" nothing to adjust"))
			}
			for _, rec := range overview.Recommendations {
				fmt.Fprintf(out, "- [%s] %s\n", ui.Priority(string(rec.Priority)), rec.Title)
				fmt.Fprintf(out, "  %s\n", ui.Muted.Render(rec.Description))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "window end (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&period, "period", string(engine.PeriodMonth), "forecast period: month or year")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the markdown report instead")
	return cmd
}
