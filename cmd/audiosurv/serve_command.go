package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"audiosurv/internal/logging"
	"audiosurv/internal/metrics"
	"audiosurv/internal/notifications"
	"audiosurv/internal/pipeline"
	"audiosurv/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, ctx, strings.TrimSpace(bind))
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func runServer(cmd *cobra.Command, ctx *commandContext, bind string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bind != "" {
		cfg.Server.Bind = bind
	}
	logger := ctx.log()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	rt, err := ctx.openRuntime(signalCtx, pipelineMetrics.ObservePersistError)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.close(signalCtx); err != nil {
			logging.WarnWithContext(logger, "failed to close storage", "storage_close_failed", logging.Error(err))
		}
	}()

	backend, err := ctx.openGateway(signalCtx)
	if err != nil {
		return err
	}
	defer backend.Close()

	p, err := pipeline.New(pipeline.Options{
		Gateway: backend.Gateway,
		Store:   rt.alerts,
		Logger:  logger,
		Observers: []pipeline.Observer{
			pipelineMetrics,
			notifications.NewObserver(notifications.NewService(cfg), cfg.Notifications, logger),
		},
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config:         cfg,
		Store:          rt.alerts,
		Keywords:       rt.keywords,
		Pipeline:       p,
		Analyzer:       backend.Keywords,
		Metrics:        pipelineMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())

	<-signalCtx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "Shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(signalCtx), shutdownTimeout)
	defer stopCancel()
	return srv.Stop(stopCtx)
}
