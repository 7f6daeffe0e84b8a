package root

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/ui"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API login accounts",
	}
	cmd.AddCommand(newUserAddCmd(opts))
	return cmd
}

func newUserAddCmd(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create a login account (password from --password or KPICTL_PASSWORD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("KPICTL_PASSWORD")
			}
			if strings.TrimSpace(password) == "" {
				return errors.New("password is required")
			}

			gdb, cleanup, err := openDB(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := db.EnsureUser(gdb, args[0], password)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" user "+args[0]+" already exists"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("created user "+strings.TrimSpace(args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
