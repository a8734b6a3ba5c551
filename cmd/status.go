package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal"
	"github.com/chukul/cloudview/internal/config"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/session"
)

var statusJSON bool

var (
	statusLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Width(14)
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type statusReport struct {
	APIURL    string `json:"api_url"`
	Backend   string `json:"session_backend"`
	File      string `json:"session_file,omitempty"`
	Encrypted bool   `json:"encrypted"`
	LoggedIn  bool   `json:"logged_in"`
	View      string `json:"view"`
	Region    string `json:"region"`
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output results in JSON format for automation")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the API endpoint, session backend and login state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}

		r := statusReport{
			APIURL:   cfg.APIURL,
			Backend:  cfg.SessionBackend,
			LoggedIn: session.Present(store),
			View:     string(guard.New(store).Resolve(guard.ViewDashboard)),
			Region:   cfg.Region,
		}
		if fs, ok := store.(*session.FileStore); ok {
			r.File = fs.Path()
			secret, _ := internal.GetSecret(cfg.Secret)
			r.Encrypted = secret != ""
		}
		if cfg.SessionBackend == config.BackendKeychain {
			r.Encrypted = true
		}

		if statusJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		out := cmd.OutOrStdout()
		line := func(label, value string) {
			fmt.Fprintf(out, "%s %s\n", statusLabel.Render(label), value)
		}
		line("API", cfg.APIURL)
		line("Region", r.Region)
		line("Session", r.Backend)
		if r.File != "" {
			line("File", truncateText(r.File, 60))
		}
		if r.Encrypted {
			line("Encrypted", statusOK.Render("yes"))
		} else {
			line("Encrypted", statusOff.Render("no"))
		}
		if r.LoggedIn {
			line("Logged in", statusOK.Render("yes"))
		} else {
			line("Logged in", statusOff.Render("no"))
			fmt.Fprintln(out, "\n💡 Run `cloudview login` to sign in")
		}
		return nil
	},
}
