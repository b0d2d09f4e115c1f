package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"trash-notify/internal/config"
	"trash-notify/internal/line"
	"trash-notify/internal/logging"
	"trash-notify/internal/metrics"
	"trash-notify/internal/repo"
	"trash-notify/migrations"
)

// RootOptions holds global flags and the state resolved before any
// subcommand runs.
type RootOptions struct {
	LogLevel string

	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewRootCommand creates the root command of the bot.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trash-notify",
		Short: "Weekly trash-day reminder bot for LINE",
		Long: `trash-notify lets LINE users register one short note per weekday
and pushes that note every morning on the matching day.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			opts.Config = cfg
			opts.Logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			opts.Metrics = metrics.Registry(cfg.MetricsNamespace)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewNotifyCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// openStore connects the configured backend, applies the schema where the
// backend has one and wraps it with metrics.
func (o *RootOptions) openStore(ctx context.Context) (repo.Store, error) {
	raw, err := repo.Open(ctx, o.Config.StoreOptions(), o.Logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.Config.StoreDriver, err)
	}
	store := repo.Instrument(raw, o.Metrics)
	if m, ok := store.(repo.Migrator); ok {
		if err := m.RunMigrations(ctx, migrations.Files); err != nil {
			store.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		o.Logger.Debug("schema up to date", "driver", o.Config.StoreDriver)
	}
	return store, nil
}

func (o *RootOptions) lineClient() (*line.Client, error) {
	if err := o.Config.RequireLine(); err != nil {
		return nil, err
	}
	client, err := line.New(line.Config{
		ChannelSecret: o.Config.LineChannelSecret,
		ChannelToken:  o.Config.LineChannelToken,
		APIEndpoint:   o.Config.LineAPIEndpoint,
		Metrics:       o.Metrics,
	}, o.Logger)
	if err != nil {
		return nil, fmt.Errorf("init line client: %w", err)
	}
	return client, nil
}
