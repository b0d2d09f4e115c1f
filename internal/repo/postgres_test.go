package repo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trash-notify/internal/weekly"
	"trash-notify/migrations"
)

// newTestPostgres migrates a throwaway schema on TEST_DATABASE_URL.
func newTestPostgres(t *testing.T) (*PostgresStore, *pgxpool.Pool, string) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewPostgres(ctx, url, schema, jst, logger)
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx, migrations.Files))

	t.Cleanup(func() {
		store.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	})
	return store, admin, schema
}

func TestPostgresRoundTrip(t *testing.T) {
	store, _, _ := newTestPostgres(t)
	ctx := context.Background()

	created := time.Date(2021, 6, 5, 16, 0, 1, 0, jst)
	require.NoError(t, store.Put(ctx, weekly.NewRecord("U1", "Taro", created)))

	rec, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Taro", rec.Name)
	assert.Equal(t, weekly.Idle, rec.State)
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.Equal(t, weekly.NoNote, rec.Notes[6])

	notes := rec.Notes
	notes[0] = "燃えるごみ"
	notes[1] = ""
	require.NoError(t, store.UpdateField(ctx, "U1", FieldSetting, notes))
	require.NoError(t, store.UpdateField(ctx, "U1", FieldState, weekly.DialogState(2)))
	require.NoError(t, store.UpdateField(ctx, "U1", FieldName, "Jiro"))

	rec, err = store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "燃えるごみ", rec.Notes[0])
	assert.Equal(t, "", rec.Notes[1])
	assert.Equal(t, weekly.DialogState(2), rec.State)
	assert.Equal(t, "Jiro", rec.Name)

	require.NoError(t, store.Put(ctx, weekly.NewRecord("U2", "Hanako", created)))
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Delete(ctx, "U1"))
	require.NoError(t, store.Delete(ctx, "U1"))
	_, err = store.Get(ctx, "U1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoresSettingAsJSONB(t *testing.T) {
	store, admin, schema := newTestPostgres(t)
	ctx := context.Background()

	rec := weekly.NewRecord("U1", "Taro", time.Now())
	rec.SetNote(3, "古紙")
	require.NoError(t, store.Put(ctx, rec))

	var (
		kind  string
		third string
	)
	q := `SELECT jsonb_typeof(setting), setting->>3 FROM ` + pgx.Identifier{schema, "trash_disposal_notification"}.Sanitize() + ` WHERE id = $1`
	require.NoError(t, admin.QueryRow(ctx, q, "U1").Scan(&kind, &third))
	assert.Equal(t, "array", kind)
	assert.Equal(t, "古紙", third)
}

func TestPostgresUpdateMissingRecord(t *testing.T) {
	store, _, _ := newTestPostgres(t)
	err := store.UpdateField(context.Background(), "nobody", FieldState, weekly.DialogState(0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresMigrationsAreRepeatable(t *testing.T) {
	store, _, _ := newTestPostgres(t)
	assert.NoError(t, store.RunMigrations(context.Background(), migrations.Files))
}
