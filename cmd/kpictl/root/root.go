package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/config"
	"github.com/dailykpi/internal/ui"
)

const Version = "0.1.0"

type rootOptions struct {
	databasePath string
	windowDays   int
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &rootOptions{windowDays: cfg.AnalyticsWindowDays}

	cmd := &cobra.Command{
		Use:           "kpictl",
		Short:         "Daily KPI scoring and productivity analytics",
		Long:          "kpictl scores a day of habits and tasks into a 0-150 KPI and analyzes trends, forecasts and recommendations from the local database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = Version
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&opts.databasePath, "db", cfg.DatabasePath, "sqlite database path (env DATABASE_PATH)")

	cmd.AddCommand(
		newScoreCmd(opts),
		newAnalyzeCmd(opts),
		newHabitsCmd(opts),
		newSeedCmd(opts),
		newUserCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
