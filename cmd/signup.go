package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal/api"
	"github.com/chukul/cloudview/internal/auth"
	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/session"
)

var signupEmail string

func init() {
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Account email")
	rootCmd.AddCommand(signupCmd)
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the resource viewer API",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := valueOr(signupEmail, "Email", "you@example.com", false)
		if err != nil {
			return err
		}
		password, err := promptValue("Password", "", true)
		if err != nil {
			return err
		}
		confirm, err := promptValue("Confirm password", "", true)
		if err != nil {
			return err
		}

		// signup never authenticates, so nothing is persisted here
		svc := auth.NewService(newClient(), session.NewMemoryStore(), logger)
		if _, err := svc.Signup(cmd.Context(), email, password, confirm); err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidInput) {
				return err
			}
			if detail := api.Detail(err); detail != "" {
				return fmt.Errorf("signup failed: %s", detail)
			}
			return fmt.Errorf("signup failed: %w", err)
		}

		fmt.Printf("✅ Account created for %s\n", email)
		fmt.Println("💡 Run `cloudview login` to sign in")
		return nil
	},
}
