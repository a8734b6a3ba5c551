package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chukul/cloudview/internal/dashboard"
	"github.com/chukul/cloudview/internal/ui"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "ui"},
	Short:   "Browse EC2, S3, RDS and Lambda resources in an interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("the dashboard needs a terminal. Use `cloudview fetch` instead")
		}
		store, err := newStore()
		if err != nil {
			return err
		}
		if err := requireSession(cmd.Context(), store); err != nil {
			return err
		}

		ctrl := dashboard.NewController(newClient(), store, logger)
		loggedOut, err := ui.StartDashboard(cmd.Context(), ctrl, cfg.Region)
		if err != nil {
			return err
		}
		if loggedOut {
			fmt.Println(ui.RenderNotice(ctrl.Notice()))
		}
		return nil
	},
}
