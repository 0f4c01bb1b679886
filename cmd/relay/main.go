package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvoloshin/relaychat-server/internal/app"
	"github.com/nvoloshin/relaychat-server/internal/config"
	"github.com/nvoloshin/relaychat-server/internal/log"
)

func main() {
	var (
		configPath string
		logLevel   string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:   "relay",
		Short: "Real-time group-chat relay server",
		Long:  "relay accepts websocket sessions and fans chat, presence, typing and private-message events out to rooms.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			overrides.LogLevel = logLevel
			cfg.UpdateFrom(overrides)
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting relay server")

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	root.Flags().DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	root.Flags().DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	root.Flags().StringVar(&overrides.DatabasePath, "db", "", "path to SQLite history database (empty serves synthetic pages)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
