package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/camel-workshop/tester/internal/api"
	"github.com/camel-workshop/tester/internal/logging"
	"github.com/camel-workshop/tester/internal/version"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /testApp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lg := logging.New("tester")
			cfg, err := loadConfig()
			if err != nil {
				lg.Error("config", slog.String("error", err.Error()))
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			ready := func() error {
				_, err := os.Stat(cfg.UploadFile)
				return err
			}
			if err := ready(); err != nil {
				lg.Warn("upload file not found; upload check will fail", slog.String("path", cfg.UploadFile))
			}

			s := api.New(lg, newSuite(lg, cfg), ready)
			s.WriteTimeout = cfg.ClusterTimeout + cfg.ClusterTimeout/5
			s.ShutdownGrace = cfg.ShutdownGrace

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			lg.Info("listening", slog.String("addr", cfg.HTTPAddr), slog.String("version", version.Full()))
			if err := s.Start(ctx, cfg.HTTPAddr); err != nil {
				lg.Error("http", slog.String("error", err.Error()))
				return err
			}
			lg.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TESTER_HTTP_ADDR)")
	return cmd
}
