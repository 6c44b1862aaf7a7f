// Package serve provides the command that runs the dashboard HTTP API.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdview/internal/api"
	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability"
	"github.com/tphakala/birdview/internal/observability/metrics"
	"github.com/tphakala/birdview/internal/session"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		Long:  "Load the configured habitat tables and serve dashboard passes over HTTP until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", viper.GetString("webserver.host"), "Address to listen on")
	cmd.Flags().Int("port", viper.GetInt("webserver.port"), "Port to listen on")
	cmd.Flags().Bool("preload", viper.GetBool("loader.preload"), "Load both habitats before accepting requests")

	bindings := map[string]string{
		"webserver.host": "host",
		"webserver.port": "port",
		"loader.preload": "preload",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	var (
		m    *observability.Metrics
		opts []api.ServerOption
	)
	if settings.Telemetry.Enabled {
		var err error
		if m, err = observability.NewMetrics(); err != nil {
			return err
		}
		opts = append(opts, api.WithMetrics(m))
	}

	var (
		datasetMetrics   *metrics.DatasetMetrics
		dashboardMetrics *metrics.DashboardMetrics
	)
	if m != nil {
		datasetMetrics, dashboardMetrics = m.Dataset, m.Dashboard
	}
	store := dataset.NewStoreFromSettings(settings, datasetMetrics, nil)
	svc := dashboard.NewService(store, dashboard.ConfigFromSettings(settings), dashboardMetrics, nil)
	sessions := session.NewManager(settings.Session, dashboardMetrics, nil)

	stopEvents, err := startEvents(ctx, settings, store, log)
	if err != nil {
		return err
	}
	defer stopEvents()

	if settings.Loader.Preload {
		// A habitat that fails here is retried on its first request.
		if err := store.Preload(ctx); err != nil {
			log.Warn("Preload incomplete", logger.Error(err))
		}
	}

	server, err := api.New(settings, store, svc, sessions, opts...)
	if err != nil {
		return err
	}

	log.Info("Starting dashboard API",
		logger.String("address", settings.WebServer.ListenAddress()),
		logger.String("version", settings.Version),
		logger.Bool("metrics", m != nil))

	return server.Run(ctx)
}
