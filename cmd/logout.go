package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal/auth"
	"github.com/chukul/cloudview/internal/session"
)

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		if !session.Present(store) {
			fmt.Println("💡 No active session.")
			return nil
		}

		if _, err := auth.NewService(newClient(), store, logger).Logout(); err != nil {
			return err
		}
		fmt.Println("✅ You have been successfully logged out.")
		return nil
	},
}
