package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trash-notify/internal/render"
	"trash-notify/internal/repo"
	"trash-notify/internal/weekly"
)

var jst = time.FixedZone("JST", 9*60*60)

type recordingPusher struct {
	mu    sync.Mutex
	sent  map[string]render.Message
	fails map[string]bool
}

func newPusher(failing ...string) *recordingPusher {
	p := &recordingPusher{sent: map[string]render.Message{}, fails: map[string]bool{}}
	for _, id := range failing {
		p.fails[id] = true
	}
	return p
}

func (p *recordingPusher) Push(_ context.Context, userID string, msg render.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails[userID] {
		return errors.New("push rejected")
	}
	p.sent[userID] = msg
	return nil
}

func (p *recordingPusher) users() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.sent))
	for id := range p.sent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type failingLister struct{}

func (failingLister) ListAll(context.Context) ([]weekly.Record, error) {
	return nil, repo.ErrUnavailable
}

func seed(t *testing.T, store repo.Store, id string, notes map[int]string) {
	t.Helper()
	rec := weekly.NewRecord(id, "name-"+id, time.Now())
	for day, note := range notes {
		rec.SetNote(day, note)
	}
	require.NoError(t, store.Put(context.Background(), rec))
}

func newNotifier(store Lister, p Pusher, at time.Time) *Notifier {
	n := New(store, p, Config{Location: jst, Concurrency: 2}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.now = func() time.Time { return at }
	return n
}

// 2024-04-01 is a Monday.
var monday7am = time.Date(2024, 4, 1, 7, 0, 0, 0, jst)

func TestRunPushesOnlyConfiguredDays(t *testing.T) {
	store := repo.NewMemory()
	seed(t, store, "U1", map[int]string{0: "燃えるごみ"})
	seed(t, store, "U2", map[int]string{1: "ビン"})
	seed(t, store, "U3", map[int]string{0: "かん", 3: "古紙"})
	seed(t, store, "U4", nil)

	p := newPusher()
	sent, err := newNotifier(store, p, monday7am).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"U1", "U3"}, p.users())
	assert.Equal(t, "おはようございます。\n今日は燃えるごみの日です。", p.sent["U1"].Text)
	assert.Equal(t, render.KindText, p.sent["U1"].Kind)
	assert.Equal(t, "おはようございます。\n今日はかんの日です。", p.sent["U3"].Text)
}

func TestRunSendsNothingOnUnconfiguredDay(t *testing.T) {
	store := repo.NewMemory()
	seed(t, store, "U1", map[int]string{0: "燃えるごみ"})

	p := newPusher()
	tuesday := monday7am.Add(24 * time.Hour)
	sent, err := newNotifier(store, p, tuesday).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, p.users())
}

func TestRunUsesReferenceTimezone(t *testing.T) {
	store := repo.NewMemory()
	seed(t, store, "U1", map[int]string{0: "燃えるごみ"})

	// Sunday 22:30 UTC is already Monday morning in Tokyo.
	p := newPusher()
	at := time.Date(2024, 3, 31, 22, 30, 0, 0, time.UTC)
	sent, err := newNotifier(store, p, at).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestRunContinuesPastFailedPush(t *testing.T) {
	store := repo.NewMemory()
	for _, id := range []string{"U1", "U2", "U3"} {
		seed(t, store, id, map[int]string{0: "燃えるごみ"})
	}

	p := newPusher("U2")
	sent, err := newNotifier(store, p, monday7am).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"U1", "U3"}, p.users())
}

func TestRunFailsWhenStoreUnavailable(t *testing.T) {
	p := newPusher()
	sent, err := newNotifier(failingLister{}, p, monday7am).Run(context.Background())
	assert.ErrorIs(t, err, repo.ErrUnavailable)
	assert.Zero(t, sent)
	assert.Empty(t, p.users())
}

func TestRunWithEmptyStore(t *testing.T) {
	sent, err := newNotifier(repo.NewMemory(), newPusher(), monday7am).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}
