package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubNotifier struct {
	sent  int
	err   error
	calls int
}

func (s *stubNotifier) Run(context.Context) (int, error) {
	s.calls++
	return s.sent, s.err
}

func newServer(basePath string, deps Dependencies) *Server {
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := New(":0", slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Handlers{LineWebhook: webhook}, basePath)
	srv.SetDependencies(deps)
	return srv
}

func do(srv *Server, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ok := do(newServer("", Dependencies{Store: stubPinger{}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.JSONEq(t, `{"status":"ok"}`, ok.Body.String())

	down := do(newServer("", Dependencies{Store: stubPinger{err: errors.New("down")}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestBasePathMount(t *testing.T) {
	srv := newServer("/bot/", Dependencies{})

	assert.Equal(t, http.StatusTeapot, do(srv, http.MethodPost, "/bot/callback", "").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/bot/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/callback", "").Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/botx/callback", "").Code)
}

func TestAdminNotify(t *testing.T) {
	n := &stubNotifier{sent: 3}
	srv := newServer("", Dependencies{Notifier: n, AdminToken: "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, do(srv, http.MethodPost, "/admin/notify", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(srv, http.MethodPost, "/admin/notify", "Bearer wrong").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodGet, "/admin/notify", "Bearer s3cret").Code)
	assert.Zero(t, n.calls)

	res := do(srv, http.MethodPost, "/admin/notify", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok","sent":3}`, res.Body.String())
	assert.Equal(t, 1, n.calls)
}

func TestAdminNotifyFailure(t *testing.T) {
	srv := newServer("", Dependencies{Notifier: &stubNotifier{err: errors.New("store down")}, AdminToken: "t"})
	res := do(srv, http.MethodPost, "/admin/notify", "Bearer t")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.JSONEq(t, `{"status":"error"}`, res.Body.String())
}

func TestAdminNotifyDisabledWithoutToken(t *testing.T) {
	srv := newServer("", Dependencies{Notifier: &stubNotifier{}})
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/admin/notify", "Bearer ").Code)
}
