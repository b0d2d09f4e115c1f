package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trash-notify/internal/weekly"
)

var pgUpdates = map[Field]string{
	FieldName:    `UPDATE trash_disposal_notification SET name = $2 WHERE id = $1;`,
	FieldSetting: `UPDATE trash_disposal_notification SET setting = $2::jsonb WHERE id = $1;`,
	FieldState:   `UPDATE trash_disposal_notification SET state = $2 WHERE id = $1;`,
}

// PostgresStore keeps user records in Postgres.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	schema string
	codec  codec
}

// NewPostgres opens a new connection pool to the database with the desired search_path.
func NewPostgres(ctx context.Context, databaseURL, schema string, loc *time.Location, logger *slog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "repo_postgres"),
		schema: schema,
		codec:  newCodec(loc),
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresStore) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresStore) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return unavailable("ping postgres", err)
	}
	return nil
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresStore) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

// Get returns the record for id or ErrNotFound.
func (r *PostgresStore) Get(ctx context.Context, id string) (*weekly.Record, error) {
	const q = `
SELECT id, name, setting::text, state, "create"
FROM trash_disposal_notification
WHERE id = $1
LIMIT 1;
`
	var (
		it      Item
		setting string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&it.ID, &it.Name, &setting, &it.State, &it.Create)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get record", err)
	}
	return r.decode(it, setting)
}

// Put inserts rec, replacing any existing record with the same id.
func (r *PostgresStore) Put(ctx context.Context, rec *weekly.Record) error {
	const q = `
INSERT INTO trash_disposal_notification (id, name, setting, state, "create")
VALUES ($1, $2, $3::jsonb, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    setting = EXCLUDED.setting,
    state = EXCLUDED.state,
    "create" = EXCLUDED."create";
`
	it := r.codec.item(rec)
	setting, err := encodeSetting(it.Setting)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, q, it.ID, it.Name, setting, it.State, it.Create); err != nil {
		return unavailable("put record", err)
	}
	return nil
}

// UpdateField rewrites a single attribute of an existing record.
func (r *PostgresStore) UpdateField(ctx context.Context, id string, field Field, value any) error {
	q, ok := pgUpdates[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	encoded, err := encodeField(field, value)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, q, id, encoded)
	if err != nil {
		return unavailable("update "+string(field), err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record for id. Deleting an absent record is not an error.
func (r *PostgresStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM trash_disposal_notification WHERE id = $1;`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return unavailable("delete record", err)
	}
	return nil
}

// ListAll returns every stored record in unspecified order.
func (r *PostgresStore) ListAll(ctx context.Context) ([]weekly.Record, error) {
	const q = `SELECT id, name, setting::text, state, "create" FROM trash_disposal_notification;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	defer rows.Close()

	var records []weekly.Record
	for rows.Next() {
		var (
			it      Item
			setting string
		)
		if err := rows.Scan(&it.ID, &it.Name, &setting, &it.State, &it.Create); err != nil {
			return nil, unavailable("scan record", err)
		}
		rec, err := r.decode(it, setting)
		if err != nil {
			r.logger.Warn("skipping undecodable record", "id", it.ID, "error", err)
			continue
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate records", err)
	}
	return records, nil
}

func (r *PostgresStore) decode(it Item, setting string) (*weekly.Record, error) {
	notes, err := decodeSetting(setting)
	if err != nil {
		return nil, err
	}
	it.Setting = notes
	return r.codec.record(it)
}
