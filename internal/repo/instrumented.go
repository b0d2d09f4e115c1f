package repo

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"trash-notify/internal/metrics"
	"trash-notify/internal/weekly"
)

// Instrumented records operation counts and latency for a Store.
type Instrumented struct {
	next    Store
	metrics *metrics.Metrics
}

// Instrument wraps store with Prometheus instrumentation. A nil metrics
// registry returns store unchanged.
func Instrument(store Store, m *metrics.Metrics) Store {
	if m == nil {
		return store
	}
	return &Instrumented{next: store, metrics: m}
}

func (s *Instrumented) observe(op string, started time.Time, err error) {
	status := metrics.Status(err)
	if errors.Is(err, ErrNotFound) {
		status = "not_found"
	}
	s.metrics.StoreOperations.WithLabelValues(op, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (s *Instrumented) Close() { s.next.Close() }

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) Get(ctx context.Context, id string) (*weekly.Record, error) {
	started := time.Now()
	rec, err := s.next.Get(ctx, id)
	s.observe("get", started, err)
	return rec, err
}

func (s *Instrumented) Put(ctx context.Context, rec *weekly.Record) error {
	started := time.Now()
	err := s.next.Put(ctx, rec)
	s.observe("put", started, err)
	return err
}

func (s *Instrumented) UpdateField(ctx context.Context, id string, field Field, value any) error {
	started := time.Now()
	err := s.next.UpdateField(ctx, id, field, value)
	s.observe("update_"+string(field), started, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, id string) error {
	started := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe("delete", started, err)
	return err
}

func (s *Instrumented) ListAll(ctx context.Context) ([]weekly.Record, error) {
	started := time.Now()
	recs, err := s.next.ListAll(ctx)
	s.observe("list_all", started, err)
	return recs, err
}

// RunMigrations forwards to the wrapped store when it keeps a schema.
func (s *Instrumented) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	if m, ok := s.next.(Migrator); ok {
		return m.RunMigrations(ctx, filesystem)
	}
	return nil
}
