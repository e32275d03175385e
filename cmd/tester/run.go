package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/camel-workshop/tester/internal/auth"
	"github.com/camel-workshop/tester/internal/logging"
	"github.com/camel-workshop/tester/internal/models"
)

var errChecksFailed = errors.New("one or more checks failed")

func newRunCmd() *cobra.Command {
	var (
		req    models.Request
		output string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the checks once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.AccountToken == "" {
				req.AccountToken = os.Getenv("TESTER_ACCOUNT_TOKEN")
			}
			req.Normalize()
			if err := req.Validate(); err != nil {
				return fmt.Errorf("invalid target: %w", err)
			}
			render, err := rendererFor(output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			lg := logging.New("tester")
			if _, filled := auth.ResolveProject(&req); filled {
				lg.Info("project taken from account token", slog.String("project", req.OpenshiftProject))
			}
			rep := newSuite(lg, cfg).Run(ctx, uuid.NewString(), req)
			if err := render(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if !rep.Passed() {
				return errChecksFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.BaseURL, "base-url", "", "base URL of the drug store service")
	f.StringVar(&req.OpenshiftURL, "openshift-url", "", "cluster API server URL")
	f.StringVar(&req.AccountToken, "token", "", "service account token (default $TESTER_ACCOUNT_TOKEN)")
	f.StringVar(&req.Deployment, "deployment", "", "name of the workload to inspect")
	f.StringVar(&req.AppType, "app-type", "deployment", "kind of the workload (deployment, deploymentconfig, ...)")
	f.StringVar(&req.OpenshiftProject, "project", "", "namespace of the workload")
	f.StringVarP(&output, "output", "o", "text", "report format: text, json or yaml")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("openshift-url")
	_ = cmd.MarkFlagRequired("deployment")
	return cmd
}
