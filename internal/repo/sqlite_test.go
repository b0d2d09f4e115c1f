package repo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trash-notify/internal/weekly"
	"trash-notify/migrations"
)

var jst = time.FixedZone("JST", 9*60*60)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "data", "test.db"), jst, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.RunMigrations(ctx, migrations.Files))
	return store
}

func TestCreateThenGetReturnsDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created := time.Date(2024, 4, 1, 7, 15, 30, 0, jst)
	require.NoError(t, store.Put(ctx, weekly.NewRecord("U1", "Taro", created)))

	got, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", got.ID)
	assert.Equal(t, "Taro", got.Name)
	assert.Equal(t, weekly.Idle, got.State)
	assert.True(t, created.Equal(got.CreatedAt))
	for i, note := range got.Notes {
		assert.Equal(t, weekly.NoNote, note, "day %d", i)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFieldTouchesOneAttribute(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Put(ctx, weekly.NewRecord("U1", "Taro", time.Now())))

	require.NoError(t, store.UpdateField(ctx, "U1", FieldState, weekly.DialogState(3)))
	notes := weekly.NewRecord("U1", "", time.Time{}).Notes
	notes[0] = "燃えるごみ"
	require.NoError(t, store.UpdateField(ctx, "U1", FieldSetting, notes))

	got, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, weekly.DialogState(3), got.State)
	assert.Equal(t, "燃えるごみ", got.Notes[0])
	assert.Equal(t, weekly.NoNote, got.Notes[1])
	assert.Equal(t, "Taro", got.Name)
}

func TestUpdateFieldRejectsBadValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Put(ctx, weekly.NewRecord("U1", "", time.Now())))

	assert.Error(t, store.UpdateField(ctx, "U1", FieldState, weekly.DialogState(12)))
	assert.Error(t, store.UpdateField(ctx, "U1", FieldState, "3"))
	assert.Error(t, store.UpdateField(ctx, "U1", FieldSetting, []string{"a"}))
	assert.Error(t, store.UpdateField(ctx, "U1", Field("create"), "x"))
}

func TestUpdateFieldMissingRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateField(context.Background(), "ghost", FieldState, weekly.Idle)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Put(ctx, weekly.NewRecord("U1", "", time.Now())))

	require.NoError(t, store.Delete(ctx, "U1"))
	_, err := store.Get(ctx, "U1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "U1"))
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := weekly.NewRecord("U1", "Taro", time.Now())
	require.NoError(t, store.Put(ctx, rec))

	rec.SetNote(4, "びん")
	rec.State = 5
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "びん", got.Notes[4])
	assert.Equal(t, weekly.DialogState(5), got.State)
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, id := range []string{"U1", "U2", "U3"} {
		require.NoError(t, store.Put(ctx, weekly.NewRecord(id, id, time.Now())))
	}

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	assert.ElementsMatch(t, []string{"U1", "U2", "U3"}, ids)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	store := newTestStore(t)
	store.Close()

	_, err := store.Get(context.Background(), "U1")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCodecKeepsPersistedLayout(t *testing.T) {
	c := newCodec(jst)
	rec := weekly.NewRecord("U1", "Taro", time.Date(2021, 6, 5, 7, 0, 1, 0, time.UTC))
	rec.SetNote(0, "燃えるごみ")
	rec.State = 2

	it := c.item(rec)
	assert.Equal(t, "2", it.State)
	assert.Equal(t, "2021/06/05 16:00:01", it.Create)
	require.Len(t, it.Setting, weekly.Days)
	assert.Equal(t, "燃えるごみ", it.Setting[0])

	back, err := c.record(Item{ID: "U2", Setting: []string{"a"}, State: "99"})
	require.NoError(t, err)
	assert.Equal(t, weekly.NoNote, back.Notes[6])
	assert.True(t, back.CreatedAt.IsZero())

	_, err = c.record(Item{ID: "U3", State: "42"})
	assert.Error(t, err)
}
