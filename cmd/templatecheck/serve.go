package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"templatecheck/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		devMode bool
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, info, err := loadConfig()
			if err != nil {
				return err
			}

			// 命令行参数覆盖配置; an explicitly configured port wins
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}

			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			logger.Info("starting templatecheck",
				zap.String("config", info.Path),
				zap.Bool("config_found", info.FileFound),
				zap.Int("port", cfg.Server.Port),
				zap.String("ranking", cfg.Classifier.Ranking),
				zap.Bool("cache", cfg.Templates.Cache),
			)

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(fmt.Sprintf(":%d", cfg.Server.Port))
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				_ = srv.Shutdown(context.Background())
				return err
			case sig := <-quit:
				logger.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (only used when config.toml does not set one)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "Development mode")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	return cmd
}
