package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal/auth"
	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/session"
	"github.com/chukul/cloudview/internal/ui"
)

var (
	loginEmail    string
	loginPassword string
)

func init() {
	// fetch and dashboard take the same account flags for --ephemeral runs
	for _, c := range []*cobra.Command{loginCmd, fetchCmd, dashboardCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "Account email")
		c.Flags().StringVar(&loginPassword, "password", os.Getenv("CLOUDVIEW_PASSWORD"), "Account password (or set CLOUDVIEW_PASSWORD, prompted when empty)")
	}

	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the resource viewer API and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ephemeral {
			return errors.New("--ephemeral keeps the session for a single run. Use it with `fetch` or `dashboard`, which sign in first")
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		email, err := signIn(cmd.Context(), store)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Logged in as %s\n", email)
		fmt.Println("💡 Run `cloudview dashboard` to browse your resources")
		return nil
	},
}

// signIn asks for missing account details and stores the token in store.
func signIn(ctx context.Context, store session.Store) (string, error) {
	email, err := valueOr(loginEmail, "Email", "you@example.com", false)
	if err != nil {
		return "", err
	}
	password, err := valueOr(loginPassword, "Password", "", true)
	if err != nil {
		return "", err
	}

	svc := auth.NewService(newClient(), store, logger)
	login := func() (struct{}, error) {
		_, err := svc.Login(ctx, email, password)
		return struct{}{}, err
	}
	if spinnerEnabled() {
		_, err = ui.Spin("Signing in...", login)
	} else {
		_, err = login()
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			return "", err
		}
		logger.Debug("login failed", "error", err)
		return "", errors.New("login failed. Check your email and password")
	}
	return email, nil
}
