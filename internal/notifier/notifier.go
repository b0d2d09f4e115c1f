// Package notifier pushes the morning reminder to every user whose record
// carries a note for today.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trash-notify/internal/metrics"
	"trash-notify/internal/render"
	"trash-notify/internal/weekly"
)

// DefaultConcurrency bounds parallel pushes when Config leaves it unset.
const DefaultConcurrency = 8

// Pusher sends an unsolicited message.
type Pusher interface {
	Push(ctx context.Context, userID string, msg render.Message) error
}

// Lister enumerates stored records.
type Lister interface {
	ListAll(ctx context.Context) ([]weekly.Record, error)
}

// Config tunes a Notifier.
type Config struct {
	Location    *time.Location
	Concurrency int
	Metrics     *metrics.Metrics
}

// Notifier runs one daily notification pass per Run call.
type Notifier struct {
	store       Lister
	pusher      Pusher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	loc         *time.Location
	concurrency int
	now         func() time.Time
}

// New wires a notifier.
func New(store Lister, pusher Pusher, cfg Config, logger *slog.Logger) *Notifier {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Notifier{
		store:       store,
		pusher:      pusher,
		logger:      logger.With("component", "notifier"),
		metrics:     cfg.Metrics,
		loc:         loc,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run pushes today's note to every record that has one and returns how many
// pushes succeeded. Failing to list records aborts the run; a failed push
// is logged and the remaining users are still notified.
func (n *Notifier) Run(ctx context.Context) (int, error) {
	logger := n.logger.With("run_id", uuid.NewString())
	day := weekly.Today(n.now(), n.loc)

	records, err := n.store.ListAll(ctx)
	if err != nil {
		n.countRun("error")
		return 0, fmt.Errorf("list records: %w", err)
	}

	logger.Info("notification run started", "day", weekly.DayNames[day], "records", len(records))

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for _, rec := range records {
		note, ok := rec.NoteFor(day)
		if !ok {
			continue
		}
		userID := rec.ID
		g.Go(func() error {
			err := n.pusher.Push(gctx, userID, render.Push(note))
			if n.metrics != nil {
				n.metrics.Pushes.WithLabelValues(metrics.Status(err)).Inc()
			}
			if err != nil {
				failed.Add(1)
				logger.Warn("push failed", "user_id", userID, "error", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	if failed.Load() > 0 {
		status = "partial"
	}
	n.countRun(status)
	logger.Info("notification run finished", "sent", sent.Load(), "failed", failed.Load())
	return int(sent.Load()), nil
}

func (n *Notifier) countRun(status string) {
	if n.metrics != nil {
		n.metrics.NotifierRuns.WithLabelValues(status).Inc()
	}
}
