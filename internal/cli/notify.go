package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"trash-notify/internal/notifier"
)

// NewNotifyCommand creates the notify command.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Push today's notes once and exit",
		Long: `Run one daily notification pass: every user whose note for today
(in TIMEZONE) is set gets a push message. Meant for an external scheduler
such as cron or a cloud job. Exits non-zero when the store cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runNotify(ctx context.Context, opts *RootOptions, out io.Writer) error {
	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	lineClient, err := opts.lineClient()
	if err != nil {
		return err
	}

	n := notifier.New(store, lineClient, notifier.Config{
		Location:    opts.Config.Location,
		Concurrency: opts.Config.NotifyConcurrency,
		Metrics:     opts.Metrics,
	}, opts.Logger)

	sent, err := n.Run(ctx)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	fmt.Fprintf(out, "sent %d\n", sent)
	return nil
}
