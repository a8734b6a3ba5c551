package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chukul/cloudview/internal/api"
	"github.com/chukul/cloudview/internal/dashboard"
	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/ui"
)

var (
	fetchAccessKey  string
	fetchSecretKey  string
	fetchCategories []string
	fetchOutput     string
)

func init() {
	fetchCmd.Flags().StringVar(&fetchAccessKey, "access-key", os.Getenv("AWS_ACCESS_KEY_ID"), "AWS access key ID (or set AWS_ACCESS_KEY_ID)")
	fetchCmd.Flags().StringVar(&fetchSecretKey, "secret-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "AWS secret access key (or set AWS_SECRET_ACCESS_KEY)")
	fetchCmd.Flags().StringSliceVarP(&fetchCategories, "category", "c", nil, "Only show these categories: ec2, s3, rds, lambda")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", formatTable, "Output format: table, json, csv or md")

	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the AWS inventory once and print it as tables",
	Example: `  cloudview fetch --region eu-west-1
  AWS_ACCESS_KEY_ID=... AWS_SECRET_ACCESS_KEY=... cloudview fetch -o json -c ec2,rds`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := parseCategories(fetchCategories)
		if err != nil {
			return err
		}
		format, err := parseFormat(fetchOutput)
		if err != nil {
			return err
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		if err := requireSession(cmd.Context(), store); err != nil {
			return err
		}

		creds, err := promptCredentials()
		if err != nil {
			return err
		}

		ctrl := dashboard.NewController(newClient(), store, logger)
		defer ctrl.Close()

		run := func() (struct{}, error) {
			return struct{}{}, ctrl.Run(cmd.Context(), creds)
		}
		if spinnerEnabled() {
			_, err = ui.Spin(fmt.Sprintf("Fetching resources in %s...", creds.Region), run)
		} else {
			_, err = run()
		}

		snap := ctrl.Snapshot()
		if !snap.Notice.Empty() {
			fmt.Fprintln(os.Stderr, ui.RenderNotice(snap.Notice))
		}
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Unauthorized() {
				fmt.Fprintln(os.Stderr, "💡 Your session may have expired. Run `cloudview login` again.")
			}
			return err
		}

		return renderInventory(cmd.OutOrStdout(), snap.Inventory, cats, format)
	},
}

// promptCredentials collects keys from flags, the environment or a prompt.
// Empty answers are left for the controller to reject.
func promptCredentials() (resource.Credentials, error) {
	access, err := valueOr(fetchAccessKey, "AWS Access Key ID", "AKIA...", false)
	if err != nil {
		return resource.Credentials{}, err
	}
	secret, err := valueOr(fetchSecretKey, "AWS Secret Access Key", "", true)
	if err != nil {
		return resource.Credentials{}, err
	}
	return resource.Credentials{AccessKey: access, SecretKey: secret, Region: cfg.Region}, nil
}

func spinnerEnabled() bool {
	return !noTUI && term.IsTerminal(int(os.Stderr.Fd()))
}
