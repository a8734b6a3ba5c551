package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chukul/cloudview/internal"
	"github.com/chukul/cloudview/internal/api"
	"github.com/chukul/cloudview/internal/config"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/session"
	"github.com/chukul/cloudview/internal/telemetry"
)

var (
	cfgFile   string
	verbose   bool
	ephemeral bool
	noTUI     bool

	cfg       *config.Config
	logger    = telemetry.Discard()
	logCloser io.Closer
)

func printLogo() {
	ascii := []string{
		`   ██████╗██╗      ██████╗ ██╗   ██╗██████╗ ██╗   ██╗██╗███████╗██╗    ██╗`,
		`  ██╔════╝██║     ██╔═══██╗██║   ██║██╔══██╗██║   ██║██║██╔════╝██║    ██║`,
		`  ██║     ██║     ██║   ██║██║   ██║██║  ██║██║   ██║██║█████╗  ██║ █╗ ██║`,
		`  ██║     ██║     ██║   ██║██║   ██║██║  ██║╚██╗ ██╔╝██║██╔══╝  ██║███╗██║`,
		`  ╚██████╗███████╗╚██████╔╝╚██████╔╝██████╔╝ ╚████╔╝ ██║███████╗╚███╔███╔╝`,
		`   ╚═════╝╚══════╝ ╚═════╝  ╚═════╝ ╚═════╝   ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝ `,
	}

	fmt.Println()
	for _, line := range ascii {
		runes := []rune(line)
		for i, char := range runes {
			// Blue -> Purple -> Pink
			ratio := float64(i) / float64(len(runes))

			var r, g, b int
			if ratio < 0.5 {
				subRatio := ratio * 2
				r = int(170 * subRatio)
				g = int(176 * (1 - subRatio))
				b = 255
			} else {
				subRatio := (ratio - 0.5) * 2
				r = int(170*(1-subRatio) + 255*subRatio)
				g = 0
				b = int(255*(1-subRatio) + 128*subRatio)
			}

			fmt.Printf("\x1b[38;2;%d;%d;%dm%c\x1b[0m", r, g, b, char)
		}
		fmt.Println()
	}
	fmt.Println("\x1b[1m  A terminal viewer for your AWS resources: EC2, S3, RDS and Lambda\x1b[0m")
	fmt.Println()
}

var rootCmd = &cobra.Command{
	Use:           "cloudview",
	Short:         "cloudview shows the AWS resources behind a set of credentials",
	Long:          `cloudview signs you in to a resource viewer API and shows the EC2 instances, S3 buckets, RDS databases and Lambda functions visible to your AWS credentials.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		if ephemeral {
			cfg.SessionBackend = config.BackendMemory
		}

		level := telemetry.ParseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCloser = telemetry.InitLogger(level, cfg.LogFile, cmd.Name() == "serve")

		// Check for updates (non-blocking) unless the command owns the terminal or stdout
		if wantsUpdateCheck(cmd) {
			internal.CheckForUpdates()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.cloudview/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory for this run only (fetch and dashboard sign in first)")
	pf.BoolVar(&noTUI, "no-tui", false, "Use plain line prompts instead of the interactive UI")
	pf.String("api-url", "", "Resource viewer API base URL")
	pf.String("secret", "", "Encryption secret for the session file (or set CLOUDVIEW_SECRET)")
	pf.String("session", "", "Session backend: file, keychain or memory")
	pf.String("region", "", "Default AWS region")

	_ = viper.BindPFlag("api.url", pf.Lookup("api-url"))
	_ = viper.BindPFlag("secret", pf.Lookup("secret"))
	_ = viper.BindPFlag("session.backend", pf.Lookup("session"))
	_ = viper.BindPFlag("region", pf.Lookup("region"))
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || os.Args[1] == "help" {
		printLogo()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

// wantsUpdateCheck is false for full-screen, long-running and prompt commands, and for
// version, which checks by itself.
func wantsUpdateCheck(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "dashboard", "serve", "prompt", "info", "version":
		return false
	}
	return true
}

// newStore builds the configured session store.
func newStore() (session.Store, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendKeychain:
		if !internal.IsMacOS() {
			return nil, internal.ErrKeychainUnsupported
		}
		return session.NewKeychainStore(), nil
	default:
		secret, err := internal.GetSecret(cfg.Secret)
		if err != nil {
			// no secret configured anywhere; the token is stored in plain text
			secret = ""
			logger.Debug("session file is not encrypted", "path", cfg.SessionFile)
		}
		if secret != "" && len(secret) < internal.KeySize {
			return nil, fmt.Errorf("secret must be at least %d characters", internal.KeySize)
		}
		return session.NewFileStore(cfg.SessionFile, secret, logger), nil
	}
}

func newClient() *api.Client {
	return api.NewClient(cfg.APIURL, cfg.APITimeout, api.WithLogger(logger))
}

// requireSession opens the dashboard view. With --ephemeral the memory store starts
// empty, so the user signs in first and the token lives only in this process.
func requireSession(ctx context.Context, store session.Store) error {
	if ephemeral && !session.Present(store) {
		if _, err := signIn(ctx, store); err != nil {
			return err
		}
	}
	return requireView(store, guard.ViewDashboard)
}

// requireView resolves v through the guard and fails when it redirects elsewhere.
func requireView(store session.Store, v guard.View) error {
	if guard.New(store).Resolve(v) != v {
		return fmt.Errorf("not logged in. Run `cloudview login` first")
	}
	return nil
}
