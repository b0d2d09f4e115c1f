package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trash-notify/internal/handlers"
	"trash-notify/internal/httpserver"
	"trash-notify/internal/line"
	"trash-notify/internal/notifier"
	"trash-notify/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the LINE webhook",
		Long: `Serve the LINE webhook on HTTP_LISTEN_ADDR together with /healthz,
/metrics and /admin/notify. With NOTIFY_SCHEDULE=true the daily notifier
also runs in-process at NOTIFY_AT in TIMEZONE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	cfg, logger := opts.Config, opts.Logger
	logger.Info("starting trash-notify", "driver", cfg.StoreDriver, "timezone", cfg.Location.String())

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	lineClient, err := opts.lineClient()
	if err != nil {
		return err
	}

	dispatcher := handlers.NewDispatcher(store, lineClient, cfg.Location, logger)
	webhook := line.NewWebhookHandler(logger, opts.Metrics, lineClient, dispatcher)

	daily := notifier.New(store, lineClient, notifier.Config{
		Location:    cfg.Location,
		Concurrency: cfg.NotifyConcurrency,
		Metrics:     opts.Metrics,
	}, logger)

	if cfg.NotifySchedule {
		sched := scheduler.New(cfg.Location, logger)
		if _, err := sched.ScheduleDaily(cfg.NotifyAt, func() {
			if _, err := daily.Run(ctx); err != nil {
				logger.Error("scheduled notification run failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule notifier: %w", err)
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, opts.Metrics, httpserver.Handlers{
		LineWebhook: webhook,
	}, cfg.PublicBasePath)
	httpSrv.SetDependencies(httpserver.Dependencies{
		Store:      store,
		Notifier:   daily,
		AdminToken: cfg.AdminToken,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
