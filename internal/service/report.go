package service

import (
	"fmt"
	"strings"
)

const reportDateFormat = "2006-01-02"

// BuildReportMarkdown 将分析结果整理为 Markdown 报告，渲染交给 handler
func BuildReportMarkdown(overview *AnalyticsOverview) string {
	var b strings.Builder
	if overview == nil {
		return ""
	}

	fmt.Fprintf(&b, "# KPI Report %s ~ %s\n\n", overview.Start.Format(reportDateFormat), overview.End.Format(reportDateFormat))

	summary := overview.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Average KPI | %.1f |\n", summary.AverageKPI)
	fmt.Fprintf(&b, "| Total hours | %.1f |\n", summary.TotalHours)
	fmt.Fprintf(&b, "| Recorded days | %d / %d |\n", summary.CompletedDays, summary.TotalDays)
	fmt.Fprintf(&b, "| Exception days | %d |\n\n", overview.ExceptionDays)

	if len(summary.TopHabits) > 0 {
		b.WriteString("### Top habits\n\n")
		b.WriteString("| Habit | Minutes | Sessions | Avg quality |\n|---|---|---|---|\n")
		for _, habit := range summary.TopHabits {
			fmt.Fprintf(&b, "| %s | %d | %d | %.1f |\n", escapeMarkdown(habit.Name), habit.TotalMinutes, habit.Sessions, habit.AverageQuality)
		}
		b.WriteString("\n")
	}

	if len(overview.Trends) > 0 {
		b.WriteString("## Habit trends\n\n")
		b.WriteString("| Habit | Trend | Change | Avg minutes | Consistency |\n|---|---|---|---|---|\n")
		for _, trend := range overview.Trends {
			fmt.Fprintf(&b, "| %s | %s | %.1f%% | %.1f | %.0f%% |\n",
				escapeMarkdown(trend.HabitName), trend.Trend, trend.Percentage, trend.AverageMinutes, trend.Consistency)
		}
		b.WriteString("\n")
		for _, trend := range overview.Trends {
			fmt.Fprintf(&b, "- **%s**: %s\n", escapeMarkdown(trend.HabitName), trend.Recommendation)
		}
		b.WriteString("\n")
	}

	forecast := overview.Forecast
	fmt.Fprintf(&b, "## Forecast (%s)\n\n", forecast.Period)
	if forecast.BasedOnDays == 0 {
		b.WriteString("Not enough history to forecast yet.\n\n")
	} else {
		fmt.Fprintf(&b, "Predicted KPI **%.1f**, %.1f hours, growth rate %.2f%% per cycle, confidence %.0f%% (based on %d days, trend %s).\n\n",
			forecast.PredictedKPI, forecast.PredictedHours, forecast.GrowthRate*100, forecast.Confidence, forecast.BasedOnDays, forecast.Trend)
	}

	if len(overview.Comparison.Insights) > 0 {
		b.WriteString("## Compared with the previous period\n\n")
		for _, insight := range overview.Comparison.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	if len(overview.Recommendations) == 0 {
		b.WriteString("Nothing to adjust. Keep it up!\n")
	}
	for _, rec := range overview.Recommendations {
		fmt.Fprintf(&b, "### [%s] %s\n\n%s\n\n", strings.ToUpper(string(rec.Priority)), rec.Title, rec.Description)
		for _, item := range rec.ActionItems {
			fmt.Fprintf(&b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	}

	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
)

// escapeMarkdown 转义用户输入中的 markdown 标记，表格与列表共用
func escapeMarkdown(value string) string {
	return markdownEscaper.Replace(value)
}
