package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trash-notify/internal/weekly"
)

var sqliteUpdates = map[Field]string{
	FieldName:    `UPDATE trash_disposal_notification SET name = ? WHERE id = ?;`,
	FieldSetting: `UPDATE trash_disposal_notification SET setting = ? WHERE id = ?;`,
	FieldState:   `UPDATE trash_disposal_notification SET state = ? WHERE id = ?;`,
}

// Get returns the record for id or ErrNotFound.
func (r *SQLiteStore) Get(ctx context.Context, id string) (*weekly.Record, error) {
	const q = `
SELECT id, name, setting, state, "create"
FROM trash_disposal_notification
WHERE id = ?
LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	var (
		it      Item
		setting string
	)
	if err := row.Scan(&it.ID, &it.Name, &setting, &it.State, &it.Create); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get record", err)
	}
	return r.decode(it, setting)
}

// Put inserts rec, replacing any existing record with the same id.
func (r *SQLiteStore) Put(ctx context.Context, rec *weekly.Record) error {
	const q = `
INSERT INTO trash_disposal_notification (id, name, setting, state, "create")
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    setting = excluded.setting,
    state = excluded.state,
    "create" = excluded."create";
`
	it := r.codec.item(rec)
	setting, err := encodeSetting(it.Setting)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, it.ID, it.Name, setting, it.State, it.Create); err != nil {
		return unavailable("put record", err)
	}
	return nil
}

// UpdateField rewrites a single attribute of an existing record.
func (r *SQLiteStore) UpdateField(ctx context.Context, id string, field Field, value any) error {
	q, ok := sqliteUpdates[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	encoded, err := encodeField(field, value)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, encoded, id)
	if err != nil {
		return unavailable("update "+string(field), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record for id. Deleting an absent record is not an error.
func (r *SQLiteStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM trash_disposal_notification WHERE id = ?;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return unavailable("delete record", err)
	}
	return nil
}

// ListAll returns every stored record in unspecified order.
func (r *SQLiteStore) ListAll(ctx context.Context) ([]weekly.Record, error) {
	const q = `SELECT id, name, setting, state, "create" FROM trash_disposal_notification;`
	rows, err := r.db.QueryContext(ctx, q)
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

func (r *SQLiteStore) decode(it Item, setting string) (*weekly.Record, error) {
	notes, err := decodeSetting(setting)
	if err != nil {
		return nil, err
	}
	it.Setting = notes
	return r.codec.record(it)
}
