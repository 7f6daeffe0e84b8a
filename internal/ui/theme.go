package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// kpictl 终端输出样式

const (
	IconChart   = "📈"
	IconTarget  = "🎯"
	IconClock   = "⏱️"
	IconSparkle = "✨"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconSeed    = "🌱"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// KPI 按 KPI 区间着色：>=100 绿色，>=80 橙色，其余红色
func KPI(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	switch {
	case score >= 100:
		return Good.Render(text)
	case score >= 80:
		return Warn.Render(text)
	default:
		return Bad.Render(text)
	}
}

func Trend(direction string) string {
	switch direction {
	case "improving":
		return Good.Render("↑ improving")
	case "declining":
		return Bad.Render("↓ declining")
	default:
		return Muted.Render("→ stable")
	}
}

func Priority(priority string) string {
	switch priority {
	case "high":
		return Bad.Render("HIGH")
	case "medium":
		return Warn.Render("MEDIUM")
	default:
		return Muted.Render(strings.ToUpper(priority))
	}
}
