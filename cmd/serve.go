package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chukul/cloudview/internal/collector"
	"github.com/chukul/cloudview/internal/server"
	"github.com/chukul/cloudview/internal/server/auth"
	"github.com/chukul/cloudview/internal/server/store"
)

const shutdownTimeout = 15 * time.Second

func init() {
	f := serveCmd.Flags()
	f.String("host", "", "Address to listen on (default 0.0.0.0)")
	f.Int("port", 0, "Port to listen on (default 8000)")
	f.String("database-url", "", "PostgreSQL connection URL")
	f.String("jwt-secret", "", "HMAC secret used to sign access tokens (or set CLOUDVIEW_JWT_SECRET)")

	_ = viper.BindPFlag("server.host", f.Lookup("host"))
	_ = viper.BindPFlag("server.port", f.Lookup("port"))
	_ = viper.BindPFlag("database.url", f.Lookup("database-url"))
	_ = viper.BindPFlag("jwt.secret", f.Lookup("jwt-secret"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resource viewer API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Server
		if sc.JWTSecret == "" {
			return errors.New("jwt.secret is required. Set CLOUDVIEW_JWT_SECRET or --jwt-secret")
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx := cmd.Context()

		db, err := store.Connect(ctx, store.DBConfig{
			URL:             sc.DatabaseURL,
			MaxOpenConns:    sc.DBMaxOpenConns,
			MaxIdleConns:    sc.DBMaxIdleConns,
			ConnMaxLifetime: sc.DBConnLifetime,
		})
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		users := store.NewUserRepository(db)
		if err := users.Migrate(ctx); err != nil {
			return err
		}

		tokens, err := auth.NewTokens(sc.JWTSecret, sc.TokenTTL)
		if err != nil {
			return err
		}

		var metrics *server.Metrics
		if sc.MetricsEnabled {
			metrics = server.NewMetrics()
		}

		h := server.NewHandler(users, tokens, collector.New(logger), metrics, logger)
		router := server.NewRouter(ctx, h, metrics, server.RouterConfig{
			CORSOrigins:     sc.CORSOrigins,
			TokenRatePerSec: sc.TokenRatePerSec,
			TokenRateBurst:  sc.TokenRateBurst,
		}, logger)

		srv := server.NewServer(sc.Host, sc.Port, router, logger)
		fmt.Printf("✅ Listening on http://%s\n", srv.Addr())

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return <-errCh
	},
}
