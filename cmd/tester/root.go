package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/camel-workshop/tester/internal/checks"
	"github.com/camel-workshop/tester/internal/config"
	"github.com/camel-workshop/tester/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tester",
		Short:         "Smoke tests for the Camel workshop drug store",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version.Full(),
	}
	serve := newServeCmd()
	root.AddCommand(serve, newRunCmd())
	// Running the bare binary serves, as the container image expects.
	root.RunE = serve.RunE
	return root
}

func newSuite(lg *slog.Logger, cfg *config.Config) *checks.Suite {
	return checks.NewSuite(lg, checks.Options{
		HTTPClient:     &http.Client{Timeout: cfg.HTTPTimeout},
		UploadFile:     cfg.UploadFile,
		Seed:           cfg.FilenameSeed,
		ClusterTimeout: cfg.ClusterTimeout,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
