package cmd

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal"
)

const updateCheckTimeout = 5 * time.Second

var versionOffline bool

func init() {
	versionCmd.Flags().BoolVar(&versionOffline, "offline", false, "Skip the release check")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information and check for a newer release",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cloudview %s (%s, %s/%s)\n", internal.CurrentVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if versionOffline {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), updateCheckTimeout)
		defer cancel()

		latest, url, err := internal.FetchLatestVersion(ctx, &http.Client{Timeout: updateCheckTimeout})
		if err != nil {
			logger.Debug("release check failed", "error", err)
			fmt.Fprintln(out, "💡 Unable to check for updates right now")
			return nil
		}

		if !internal.IsNewer(latest, internal.CurrentVersion) {
			fmt.Fprintln(out, "✅ You're running the latest version")
			return nil
		}
		fmt.Fprintf(out, "\n💡 Update available: %s → %s\n   Download: %s\n", internal.CurrentVersion, latest, url)
		return nil
	},
}
